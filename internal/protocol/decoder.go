package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	irc "github.com/gempir/go-twitch-irc/v4"
)

// WireFormat selects which of the supported chat wire shapes the decoder expects. The
// format is fixed per deployment, never auto-detected from frame contents
type WireFormat int

const (
	// WireFormatIRC is Twitch's tagged IRC protocol, one IRC line per frame
	WireFormatIRC WireFormat = iota
	// WireFormatDelimited is a key-value line format with literal $FIELD: markers; a
	// single frame may carry several messages back-to-back
	WireFormatDelimited
	// WireFormatJSON is one JSON-encoded message object per frame
	WireFormatJSON
)

// ActiveWireFormat is the wire shape used by the production chat transport
const ActiveWireFormat = WireFormatIRC

// ErrMalformedFrame indicates a frame that does not conform to the active wire
// shape's grammar; the frame is dropped whole, never partially decoded
var ErrMalformedFrame = errors.New("malformed chat frame")

// Decoder turns raw inbound frames into chat events. Decoding is a pure function of
// one frame: the decoder holds no mutable state and is safe for concurrent use
type Decoder struct {
	format WireFormat
}

func NewDecoder(format WireFormat) *Decoder {
	return &Decoder{format: format}
}

// Decode parses one raw frame into zero or more chat events. Keep-alive and other
// protocol control frames yield (nil, nil): they carry no event but are not an error.
// Frames that fail to parse yield ErrMalformedFrame and no events
func (d *Decoder) Decode(frame string) ([]*Event, error) {
	if isControlFrame(frame, d.format) {
		return nil, nil
	}
	switch d.format {
	case WireFormatIRC:
		return decodeIrcFrame(frame)
	case WireFormatDelimited:
		return decodeDelimitedFrame(frame)
	case WireFormatJSON:
		return decodeJsonFrame(frame)
	}
	return nil, fmt.Errorf("%w: unsupported wire format %d", ErrMalformedFrame, d.format)
}

// isControlFrame recognizes the frames that the active protocol uses for connection
// upkeep rather than chat content; these must be discarded silently
func isControlFrame(frame string, format WireFormat) bool {
	trimmed := strings.TrimSpace(frame)
	if trimmed == "" {
		return true
	}
	if strings.HasPrefix(trimmed, "PING") || strings.HasPrefix(trimmed, "PONG") {
		return true
	}
	// An event-stream transport emits ':' comment lines as keep-alives
	if format == WireFormatJSON && strings.HasPrefix(trimmed, ":") {
		return true
	}
	return false
}

func decodeIrcFrame(frame string) ([]*Event, error) {
	parsed := irc.ParseMessage(frame)
	switch m := parsed.(type) {
	case *irc.PingMessage, *irc.PongMessage:
		return nil, nil
	case *irc.PrivateMessage:
		sender := m.User.DisplayName
		if sender == "" {
			sender = m.User.Name
		}
		text := strings.TrimRight(m.Message, " ")
		if sender == "" || text == "" {
			return nil, fmt.Errorf("%w: PRIVMSG with empty sender or text", ErrMalformedFrame)
		}
		return []*Event{newMessageEvent(&Message{
			Sender:       sender,
			Color:        m.User.Color,
			FirstMessage: m.FirstMessage,
		}, text)}, nil
	}
	return nil, fmt.Errorf("%w: not a PRIVMSG", ErrMalformedFrame)
}

// delimitedMessageRegex captures one message's worth of $FIELD: markers; a frame may
// match several times in sequence
var delimitedMessageRegex = regexp.MustCompile(
	`\$TIMESTAMP:([^$]*)\$COLOR:([^$]*)\$FIRST_MSG:([^$]*)\$NAME:([^$]*)\$MESSAGE:([^$]*)`)

func decodeDelimitedFrame(frame string) ([]*Event, error) {
	matches := delimitedMessageRegex.FindAllStringSubmatch(frame, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no delimited fields found", ErrMalformedFrame)
	}
	events := make([]*Event, 0, len(matches))
	for _, groups := range matches {
		var id *int64
		if raw := groups[1]; raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid timestamp %q", ErrMalformedFrame, raw)
			}
			id = &parsed
		}
		name := groups[4]
		text := strings.TrimSpace(groups[5])
		if name == "" || text == "" {
			return nil, fmt.Errorf("%w: empty name or message", ErrMalformedFrame)
		}
		events = append(events, newMessageEvent(&Message{
			ID:           id,
			Sender:       name,
			Color:        groups[2],
			FirstMessage: groups[3] != "" && groups[3] != "0",
		}, text))
	}
	return events, nil
}

type jsonWireMessage struct {
	ID           *int64 `json:"id"`
	Sender       string `json:"sender"`
	Color        string `json:"color"`
	FirstMessage bool   `json:"firstMessage"`
	Text         string `json:"text"`
}

func decodeJsonFrame(frame string) ([]*Event, error) {
	var m jsonWireMessage
	if err := json.Unmarshal([]byte(frame), &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if m.Sender == "" || m.Text == "" {
		return nil, fmt.Errorf("%w: empty sender or text", ErrMalformedFrame)
	}
	return []*Event{newMessageEvent(&Message{
		ID:           m.ID,
		Sender:       m.Sender,
		Color:        m.Color,
		FirstMessage: m.FirstMessage,
	}, m.Text)}, nil
}

// newMessageEvent wraps a decoded message and its body text into an Event; the body
// starts as a single text fragment and is split against the channel's emote rules by
// Refragment once the event leaves the decoder
func newMessageEvent(m *Message, text string) *Event {
	m.Fragments = []Fragment{{Kind: FragmentKindText, Content: text}}
	return &Event{
		Type:    EventTypeMessage,
		Message: m,
	}
}
