package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/own-c/rt/internal/emotes"
	"github.com/own-c/rt/internal/protocol"
)

func Test_Reader(t *testing.T) {
	newRules := func() func() *emotes.RuleSet {
		cache := emotes.NewCache()
		rules := cache.Prime("somechannel", []emotes.Descriptor{
			{Name: "FrankerZ", Url: "https://cdn.example.com/frankerz/1x", Width: 28, Height: 28},
		})
		return func() *emotes.RuleSet { return rules }
	}

	t.Run("frames are decoded, fragmented, and republished in order", func(t *testing.T) {
		frames := make(chan string, 8)
		r := NewReader(frames, protocol.NewDecoder(protocol.WireFormatIRC), newRules())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := make(chan error, 1)
		go func() {
			done <- r.Run(ctx)
		}()

		frames <- "PING :tmi.twitch.tv"
		frames <- ":alice!alice@alice.tmi.twitch.tv PRIVMSG #somechannel :nice FrankerZ"
		frames <- "this is not a valid frame"
		frames <- ":bob!bob@bob.tmi.twitch.tv PRIVMSG #somechannel :hello"

		event := receiveEvent(t, r.Events())
		assert.Equal(t, "alice", event.Message.Sender)
		assert.Equal(t, []protocol.Fragment{
			{Kind: protocol.FragmentKindText, Content: "nice"},
			{Kind: protocol.FragmentKindEmote, Content: "FrankerZ", Emote: &emotes.Descriptor{Name: "FrankerZ", Url: "https://cdn.example.com/frankerz/1x", Width: 28, Height: 28}},
		}, event.Message.Fragments)

		// The malformed frame was dropped, so bob's message comes straight through
		event = receiveEvent(t, r.Events())
		assert.Equal(t, "bob", event.Message.Sender)

		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})
	t.Run("a closed frame source stops the pump", func(t *testing.T) {
		frames := make(chan string)
		r := NewReader(frames, protocol.NewDecoder(protocol.WireFormatIRC), newRules())
		close(frames)

		assert.ErrorIs(t, r.Run(context.Background()), ErrTransportClosed)
	})
}

func receiveEvent(t *testing.T, events <-chan *protocol.Event) *protocol.Event {
	select {
	case event := <-events:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}
