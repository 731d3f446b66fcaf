package feed

import (
	"context"
	"errors"

	"github.com/own-c/rt/internal/emotes"
	"github.com/own-c/rt/internal/protocol"
	"github.com/own-c/rt/internal/telemetry"
)

// ErrTransportClosed is returned by Run when the inbound frame channel closes,
// indicating that the chat connection was lost
var ErrTransportClosed = errors.New("chat transport closed")

// Reader is the pump between the chat transport and the UI feed: it decodes each
// inbound frame, splits message text into fragments against the active channel's
// emote rules, and republishes the resulting events on a channel of its own.
// Malformed frames are counted and dropped without surfacing an error
type Reader struct {
	frames  <-chan string
	decoder *protocol.Decoder
	rules   func() *emotes.RuleSet
	events  chan *protocol.Event
}

// NewReader wires a reader to a frame source. rules is consulted per event so that
// channel switches take effect without restarting the pump
func NewReader(frames <-chan string, decoder *protocol.Decoder, rules func() *emotes.RuleSet) *Reader {
	return &Reader{
		frames:  frames,
		decoder: decoder,
		rules:   rules,
		events:  make(chan *protocol.Event, 32),
	}
}

// Events delivers decoded chat events in arrival order
func (r *Reader) Events() <-chan *protocol.Event {
	return r.events
}

// Run consumes frames until the context is canceled or the transport closes
func (r *Reader) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-r.frames:
			if !ok {
				return ErrTransportClosed
			}
			events, err := r.decoder.Decode(frame)
			if err != nil {
				telemetry.CountFrame(true)
				continue
			}
			for _, event := range events {
				protocol.Refragment(event, r.rules())
				telemetry.CountFrame(false)
				select {
				case r.events <- event:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}
