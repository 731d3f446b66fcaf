package session

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// Conn is a WebSocket connection to the Twitch IRC gateway, opened anonymously. It
// performs the PASS/NICK handshake on dial, answers server PINGs itself, and hands
// every other inbound frame to the consumer via Frames
type Conn struct {
	ws      *websocket.Conn
	frames  chan string
	writeMu sync.Mutex

	statusMu sync.Mutex
	lastErr  error
}

// Dial opens the chat transport and completes the anonymous login handshake. The
// read loop runs until the connection drops; the Frames channel is closed when it
// does
func Dial(ctx context.Context, url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chat server: %w", err)
	}

	c := &Conn{
		ws:     ws,
		frames: make(chan string, 64),
	}
	handshake := []string{
		"CAP REQ :twitch.tv/tags",
		"PASS SCHMOOPIIE",
		fmt.Sprintf("NICK justinfan%d", 10000+rand.Intn(90000)),
	}
	for _, line := range handshake {
		if err := c.Send(line); err != nil {
			ws.Close()
			return nil, fmt.Errorf("failed to complete chat handshake: %w", err)
		}
	}

	go c.readLoop()
	return c, nil
}

// Send writes one protocol line to the connection; safe for concurrent use
func (c *Conn) Send(line string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, []byte(line))
}

// Frames delivers raw inbound frames as they arrive; closed when the connection is
// lost
func (c *Conn) Frames() <-chan string {
	return c.frames
}

// GetStatus returns nil while the connection is healthy, or the error that ended it
func (c *Conn) GetStatus() error {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return c.lastErr
}

func (c *Conn) Close() error {
	return c.ws.Close()
}

func (c *Conn) readLoop() {
	defer close(c.frames)
	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			c.statusMu.Lock()
			c.lastErr = err
			c.statusMu.Unlock()
			fmt.Printf("Chat connection closed: %v\n", err)
			return
		}
		// The gateway may batch several IRC lines into one WebSocket message
		for _, line := range strings.Split(string(payload), "\r\n") {
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "PING") {
				if err := c.Send("PONG"); err != nil {
					fmt.Printf("Failed to send PONG: %v\n", err)
				}
				continue
			}
			c.frames <- line
		}
	}
}
