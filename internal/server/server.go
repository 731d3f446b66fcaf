package server

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/own-c/rt/internal/coordinator"
	"github.com/own-c/rt/internal/metadata"
	"github.com/own-c/rt/internal/users"
)

// StreamChecker is the subset of platform metadata operations the HTTP surface needs
// beyond what the coordinator wraps: one-off channel lookups for the user directory
// and bulk liveness checks
type StreamChecker interface {
	GetStream(ctx context.Context, channel string) (*metadata.Stream, error)
	GetLive(ctx context.Context, channels []string) ([]string, error)
}

// Server is the local HTTP surface the desktop frontend talks to
type Server struct {
	http.Handler

	coordinator   *coordinator.Coordinator
	users         *users.Store
	twitch        StreamChecker
	getChatStatus func() error
}

func New(c *coordinator.Coordinator, userStore *users.Store, twitch StreamChecker, chatFeed http.Handler, getChatStatus func() error) *Server {
	s := &Server{
		coordinator:   c,
		users:         userStore,
		twitch:        twitch,
		getChatStatus: getChatStatus,
	}
	r := mux.NewRouter()
	r.Path("/stream/{channel}").Methods("GET").HandlerFunc(s.handleWatch)
	r.Path("/chat").Methods("GET").Handler(chatFeed)
	r.Path("/users").Methods("GET").HandlerFunc(s.handleGetUsers)
	r.Path("/users/{username}").Methods("POST").HandlerFunc(s.handleAddUser)
	r.Path("/users/{username}").Methods("DELETE").HandlerFunc(s.handleRemoveUser)
	r.Path("/live").Methods("GET").HandlerFunc(s.handleGetLive)
	r.Path("/status").Methods("GET").HandlerFunc(s.handleStatus)
	r.Path("/metrics").Methods("GET").Handler(promhttp.Handler())

	// The frontend is a desktop webview served from its own origin
	s.Handler = cors.AllowAll().Handler(r)
	return s
}
