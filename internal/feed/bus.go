package feed

import "sync"

// bus keeps track of a channel for each connected UI client that needs to be
// notified when a chat event occurs
type bus[T any] struct {
	chs map[chan T]struct{}
	mu  sync.RWMutex
}

// register adds a channel that will be notified when new events arrive
func (b *bus[T]) register(ch chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.chs[ch] = struct{}{}
}

// unregister removes a previously-registered channel, if such a channel is registered
func (b *bus[T]) unregister(ch chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.chs, ch)
}

// clear removes all channels from the bus
func (b *bus[T]) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.chs = make(map[chan T]struct{})
}

// publish fans an event out to all currently-registered channels. The send never
// blocks: a client whose buffer is full misses the event, so one stalled connection
// can't hold up delivery to everyone else
func (b *bus[T]) publish(event T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.chs {
		select {
		case ch <- event:
		default:
		}
	}
}
