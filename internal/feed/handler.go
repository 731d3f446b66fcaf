package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Handler serves a stream of chat events to the overlay UI using Server-Sent Events
type Handler[T any] struct {
	ctx context.Context
	b   bus[T]

	// OnConnectFunc, if set, resolves an initial value to send to each client as soon
	// as it connects (e.g. the current watch snapshot)
	OnConnectFunc func() (T, bool)
}

// NewHandler initializes an SSE handler that reads events from the given channel and
// fans them out to all open UI connections
func NewHandler[T any](ctx context.Context, ch <-chan T) *Handler[T] {
	h := &Handler[T]{
		ctx: ctx,
		b: bus[T]{
			chs: make(map[chan T]struct{}),
		},
	}
	go func() {
		done := false
		for !done {
			select {
			case <-ctx.Done():
				done = true
				h.b.clear()
			case event := <-ch:
				h.b.publish(event)
			}
		}
	}()
	return h
}

// ServeHTTP responds by opening a long-lived HTTP connection to which events will be
// written as the handler receives them, formatted as text/event-stream messages with
// 'data' consisting of a JSON-encoded event payload
func (h *Handler[T]) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	// If a content-type is explicitly requested, require that it's text/event-stream
	accept := req.Header.Get("accept")
	if accept != "" && accept != "*/*" && !strings.HasPrefix(accept, "text/event-stream") {
		message := fmt.Sprintf("content-type %s is not supported", accept)
		http.Error(res, message, http.StatusBadRequest)
		return
	}

	res.Header().Set("content-type", "text/event-stream")
	res.Header().Set("cache-control", "no-cache")
	res.Header().Set("connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.(http.Flusher).Flush()

	// Send an initial value if configured; otherwise an initial keep-alive comment so
	// the webview's EventSource settles into the open state immediately
	if h.OnConnectFunc != nil {
		if event, ok := h.OnConnectFunc(); ok {
			writeEvent(res, event)
		} else {
			writeKeepAlive(res)
		}
	} else {
		writeKeepAlive(res)
	}

	ch := make(chan T, 32)
	h.b.register(ch)

	fmt.Printf("Opened chat feed connection to %s...\n", req.RemoteAddr)
	for {
		select {
		case <-time.After(30 * time.Second):
			writeKeepAlive(res)
		case event := <-ch:
			writeEvent(res, event)
		case <-h.ctx.Done():
			fmt.Printf("Server is shutting down; abandoning chat feed connection to %s.\n", req.RemoteAddr)
			h.b.unregister(ch)
			return
		case <-req.Context().Done():
			fmt.Printf("Chat feed connection to %s has been closed.\n", req.RemoteAddr)
			h.b.unregister(ch)
			return
		}
	}
}

func writeEvent[T any](res http.ResponseWriter, event T) {
	data, err := json.Marshal(event)
	if err != nil {
		fmt.Printf("Failed to serialize chat feed event as JSON: %v\n", err)
		return
	}
	fmt.Fprintf(res, "data: %s\n\n", data)
	res.(http.Flusher).Flush()
}

func writeKeepAlive(res http.ResponseWriter) {
	res.Write([]byte(":\n\n"))
	res.(http.Flusher).Flush()
}
