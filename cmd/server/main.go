package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codingconcepts/env"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/own-c/rt/internal/coordinator"
	"github.com/own-c/rt/internal/emotes"
	"github.com/own-c/rt/internal/feed"
	"github.com/own-c/rt/internal/metadata"
	"github.com/own-c/rt/internal/protocol"
	"github.com/own-c/rt/internal/server"
	"github.com/own-c/rt/internal/session"
	"github.com/own-c/rt/internal/telemetry"
	"github.com/own-c/rt/internal/users"
)

type Config struct {
	BindAddr   string `env:"BIND_ADDR" default:"127.0.0.1"`
	ListenPort uint16 `env:"LISTEN_PORT" default:"3030"`

	TwitchClientId     string `env:"TWITCH_CLIENT_ID" required:"true"`
	TwitchClientSecret string `env:"TWITCH_CLIENT_SECRET" required:"true"`

	ChatServerUrl       string `env:"CHAT_SERVER_URL" default:"wss://irc-ws.chat.twitch.tv"`
	UsersFilePath       string `env:"USERS_FILE_PATH" default:"users.json"`
	FetchTimeoutSeconds int    `env:"FETCH_TIMEOUT_SECONDS" default:"5"`
}

func main() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("error loading .env file: %v", err)
	}
	config := Config{}
	if err := env.Set(&config); err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	ctx, close := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM)
	defer close()

	telemetry.Init()

	userStore := users.NewStore(config.UsersFilePath)
	if err := userStore.Load(); err != nil {
		log.Fatalf("error loading user directory: %v", err)
	}

	twitchClient, err := metadata.NewTwitchClient(config.TwitchClientId, config.TwitchClientSecret)
	if err != nil {
		log.Fatalf("error initializing Twitch API client: %v", err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, err := session.Dial(dialCtx, config.ChatServerUrl)
	cancel()
	if err != nil {
		log.Fatalf("error connecting to chat: %v", err)
	}

	chatSession := session.New()
	chatSession.Attach(conn)

	fetchTimeout := time.Duration(config.FetchTimeoutSeconds) * time.Second
	coord := coordinator.New(twitchClient, emotes.NewFetcher(nil), chatSession, emotes.NewCache(), userStore, fetchTimeout)

	reader := feed.NewReader(conn.Frames(), protocol.NewDecoder(protocol.ActiveWireFormat), coord.Rules)
	chatFeed := feed.NewHandler(ctx, reader.Events())

	srv := server.New(coord, userStore, twitchClient, chatFeed, conn.GetStatus)
	addr := fmt.Sprintf("%s:%d", config.BindAddr, config.ListenPort)
	httpServer := &http.Server{Addr: addr, Handler: srv}

	fmt.Printf("Listening on %s...\n", addr)
	var wg errgroup.Group
	wg.Go(httpServer.ListenAndServe)
	wg.Go(func() error {
		return reader.Run(ctx)
	})

	select {
	case <-ctx.Done():
		fmt.Printf("Received signal; closing server...\n")
		conn.Close()
		chatSession.Reset()
		httpServer.Shutdown(context.Background())
	}

	err = wg.Wait()
	if err == http.ErrServerClosed || err == context.Canceled || err == feed.ErrTransportClosed {
		fmt.Printf("Server closed.\n")
	} else {
		log.Fatalf("error running server: %v", err)
	}
}
