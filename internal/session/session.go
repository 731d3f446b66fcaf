package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrNotConnected indicates that a channel switch was requested before the chat
// transport was opened, or after it was lost
var ErrNotConnected = errors.New("chat transport is not connected")

// Transport is the outbound half of the chat connection: a way to send one
// protocol line. The session owns all join/part traffic on it; no other component
// may send channel-membership lines
type Transport interface {
	Send(line string) error
}

// State tracks where the session is in the join lifecycle
type State int

const (
	// StateIdle means no channel is joined
	StateIdle State = iota
	// StateJoining means a join line has been sent but membership is not yet settled
	StateJoining
	// StateJoined means the session is receiving the channel's chat
	StateJoined
)

// Session owns the single "currently joined channel" value. At most one channel is
// joined at any time: a switch to channel B parts channel A first, in that order, so
// that B's early frames are never attributed to A and no subscription to A leaks.
// All transitions are serialized behind one lock
type Session struct {
	mu        sync.Mutex
	transport Transport
	state     State
	channel   string
}

func New() *Session {
	return &Session{}
}

// Attach hands the session its transport; connection establishment is a one-time
// setup per process, separate from channel switching
func (s *Session) Attach(t Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transport = t
}

// Current returns the joined channel name, if any. Channel names are compared
// case-insensitively but stored with the case the caller supplied
func (s *Session) Current() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel, s.state == StateJoined
}

// Switch makes toChannel the joined channel. Switching to the channel that is
// already joined is a no-op; otherwise the previous channel is parted before the new
// one is joined. The join is fire-and-forget: Twitch sends no ack for anonymous
// users, so the session is considered joined as soon as the line is written
func (s *Session) Switch(toChannel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transport == nil {
		return ErrNotConnected
	}
	if s.state == StateJoined && strings.EqualFold(s.channel, toChannel) {
		return nil
	}

	if s.state == StateJoined {
		fmt.Printf("CHAT | parting #%s\n", strings.ToLower(s.channel))
		if err := s.transport.Send("PART #" + strings.ToLower(s.channel)); err != nil {
			return fmt.Errorf("failed to part channel %q: %w", s.channel, err)
		}
		s.state = StateIdle
		s.channel = ""
	}

	s.state = StateJoining
	fmt.Printf("CHAT | joining #%s\n", strings.ToLower(toChannel))
	if err := s.transport.Send("JOIN #" + strings.ToLower(toChannel)); err != nil {
		s.state = StateIdle
		return fmt.Errorf("failed to join channel %q: %w", toChannel, err)
	}
	s.state = StateJoined
	s.channel = toChannel
	return nil
}

// Reset drops the transport and any joined channel; called when the underlying
// connection is lost
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transport = nil
	s.state = StateIdle
	s.channel = ""
}
