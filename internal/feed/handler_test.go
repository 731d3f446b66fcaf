package feed

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_Handler(t *testing.T) {
	t.Run("server responds by opening an SSE connection", func(t *testing.T) {
		h := NewHandler[struct{}](context.Background(), make(<-chan struct{}))
		req := httptest.NewRequest(http.MethodGet, "/chat", nil)
		res := httptest.NewRecorder()
		go h.ServeHTTP(res, req)
		waitForResponseSubstring(t, res, ":")

		assert.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "text/event-stream", res.Header().Get("content-type"))
		assert.Equal(t, "no-cache", res.Header().Get("cache-control"))
		assert.Equal(t, "keep-alive", res.Header().Get("connection"))
	})
	t.Run("if explicit 'accept' is set, it must be 'text/event-stream'", func(t *testing.T) {
		h := NewHandler[struct{}](context.Background(), make(<-chan struct{}))
		req := httptest.NewRequest(http.MethodGet, "/chat", nil)
		req.Header.Set("accept", "application/json")
		res := httptest.NewRecorder()
		h.ServeHTTP(res, req)

		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
	t.Run("events are fanned out to all connected clients", func(t *testing.T) {
		events := make(chan testEvent, 32)
		h := NewHandler[testEvent](context.Background(), events)

		// An event published before any client connects is simply dropped
		events <- testEvent{"alice", "nobody's listening"}
		time.Sleep(5 * time.Millisecond)

		ctxA, closeA := context.WithCancel(context.Background())
		ctxB, closeB := context.WithCancel(context.Background())
		defer closeA()
		defer closeB()

		reqA := httptest.NewRequest(http.MethodGet, "/chat", nil).WithContext(ctxA)
		reqB := httptest.NewRequest(http.MethodGet, "/chat", nil).WithContext(ctxB)
		resA := httptest.NewRecorder()
		resB := httptest.NewRecorder()

		// Connect client A, and while it's connected, emit a new event
		go h.ServeHTTP(resA, reqA)
		waitForResponseSubstring(t, resA, ":")
		events <- testEvent{"alice", "hello"}
		waitForResponseSubstring(t, resA, "hello")

		// Connect client B, then emit an event which both clients should receive
		go h.ServeHTTP(resB, reqB)
		waitForResponseSubstring(t, resB, ":")
		events <- testEvent{"bob", "hi all"}
		waitForResponseSubstring(t, resA, "hi all")
		waitForResponseSubstring(t, resB, "hi all")

		// Disconnect client A, then emit a final event
		closeA()
		blockUntil(t, func() bool { return len(h.b.chs) == 1 }, 5*time.Millisecond)
		events <- testEvent{"carol", "bye"}
		waitForResponseSubstring(t, resB, "bye")

		bodyA, err := io.ReadAll(resA.Body)
		assert.NoError(t, err)
		assert.Equal(t, ":\n\ndata: {\"sender\":\"alice\",\"text\":\"hello\"}\n\ndata: {\"sender\":\"bob\",\"text\":\"hi all\"}\n\n", string(bodyA))

		bodyB, err := io.ReadAll(resB.Body)
		assert.NoError(t, err)
		assert.Equal(t, ":\n\ndata: {\"sender\":\"bob\",\"text\":\"hi all\"}\n\ndata: {\"sender\":\"carol\",\"text\":\"bye\"}\n\n", string(bodyB))
	})
	t.Run("a configured initial value replaces the opening keep-alive", func(t *testing.T) {
		h := NewHandler[testEvent](context.Background(), make(<-chan testEvent))
		h.OnConnectFunc = func() (testEvent, bool) {
			return testEvent{"server", "welcome"}, true
		}
		req := httptest.NewRequest(http.MethodGet, "/chat", nil)
		res := httptest.NewRecorder()
		go h.ServeHTTP(res, req)
		waitForResponseSubstring(t, res, "welcome")

		assert.Equal(t, "data: {\"sender\":\"server\",\"text\":\"welcome\"}\n\n", res.Body.String())
	})
	t.Run("canceling the handler's context closes all connections", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		events := make(chan testEvent, 32)
		h := NewHandler[testEvent](ctx, events)
		req := httptest.NewRequest(http.MethodGet, "/chat", nil)
		res := httptest.NewRecorder()

		go h.ServeHTTP(res, req)
		waitForResponseSubstring(t, res, ":")
		events <- testEvent{"alice", "still here"}
		waitForResponseSubstring(t, res, "still here")

		cancel()
		blockUntil(t, func() bool { return len(h.b.chs) == 0 }, 5*time.Millisecond)
		events <- testEvent{"alice", "too late"}

		time.Sleep(5 * time.Millisecond)
		body, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		assert.Equal(t, ":\n\ndata: {\"sender\":\"alice\",\"text\":\"still here\"}\n\n", string(body))
	})
}

type testEvent struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

func waitForResponseSubstring(t *testing.T, res *httptest.ResponseRecorder, s string) {
	bodyContainsSubstring := func() bool {
		return strings.Contains(res.Body.String(), s)
	}
	blockUntil(t, bodyContainsSubstring, 5*time.Millisecond)
}

func blockUntil(t *testing.T, cond func() bool, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			t.Fatal("timed out waiting for condition")
		case <-time.After(100 * time.Microsecond):
			if cond() {
				return
			}
		}
	}
}
