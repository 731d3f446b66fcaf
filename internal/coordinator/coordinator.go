package coordinator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/own-c/rt/internal/emotes"
	"github.com/own-c/rt/internal/metadata"
	"github.com/own-c/rt/internal/telemetry"
	"github.com/own-c/rt/internal/users"
)

// MetadataFetcher resolves channel/stream details from the streaming platform
type MetadataFetcher interface {
	GetStream(ctx context.Context, channel string) (*metadata.Stream, error)
}

// EmoteFetcher resolves a channel's third-party emote set, keyed by platform user ID
type EmoteFetcher interface {
	GetEmotes(ctx context.Context, userId string) ([]emotes.Descriptor, error)
}

// ChannelSwitcher changes which chat channel is currently joined and reports which
// one that is
type ChannelSwitcher interface {
	Switch(channel string) error
	Current() (string, bool)
}

// Coordinator orchestrates a "watch channel X" request: it fetches stream metadata,
// switches the chat session, primes the emote cache, and publishes one consistent
// snapshot of what the user is currently watching. Every mutation of session, cache,
// and published state happens inside one critical section (watchMu), and a monotonic
// request token identifies calls that have been superseded by a newer one so their
// results can be dropped before they touch anything
type Coordinator struct {
	metadata     MetadataFetcher
	emotes       EmoteFetcher
	session      ChannelSwitcher
	cache        *emotes.Cache
	users        *users.Store
	fetchTimeout time.Duration

	token atomic.Uint64

	// watchMu serializes the switch/invalidate/prime/publish sequence of each watch
	watchMu sync.Mutex

	mu      sync.Mutex
	current *Snapshot
	rules   *emotes.RuleSet
}

// New wires up a coordinator. The users store is optional: when present, each watch
// refreshes the directory record for the watched channel. fetchTimeout bounds each
// external fetch so a stalled metadata call degrades instead of hanging the watch
func New(metadataFetcher MetadataFetcher, emoteFetcher EmoteFetcher, channelSwitcher ChannelSwitcher, cache *emotes.Cache, userStore *users.Store, fetchTimeout time.Duration) *Coordinator {
	return &Coordinator{
		metadata:     metadataFetcher,
		emotes:       emoteFetcher,
		session:      channelSwitcher,
		cache:        cache,
		users:        userStore,
		fetchTimeout: fetchTimeout,
	}
}

// Watch makes the given channel the one the user is watching. Metadata and emote
// failures degrade the snapshot (empty title, no-match emote rules) rather than
// failing the call; only a chat switch failure is escalated, since stale chat is
// worse than a sparse snapshot
func (c *Coordinator) Watch(ctx context.Context, channel string) (*Snapshot, error) {
	token := c.token.Add(1)

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()
	stream, err := c.metadata.GetStream(fetchCtx, channel)
	if err != nil {
		fmt.Printf("WATCH | metadata unavailable for %q: %v\n", channel, err)
		snapshot := &Snapshot{Channel: channel}
		c.recordUser(channel, "", false)
		c.watchMu.Lock()
		c.publishOffline(token, snapshot)
		c.watchMu.Unlock()
		telemetry.CountWatch(false)
		return snapshot, nil
	}

	// The session switch, cache invalidation, emote prime, and publish must land as
	// one unit: a stale call is dropped here, inside the critical section, so it can
	// never re-switch the session after a newer watch has already settled
	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	if c.superseded(token) {
		return newSnapshot(stream), nil
	}

	previous, joined := c.session.Current()
	if err := c.session.Switch(stream.Channel); err != nil {
		telemetry.CountWatch(true)
		return nil, fmt.Errorf("failed to switch chat to %q: %w", stream.Channel, err)
	}
	telemetry.CountSwitch()
	if joined && !strings.EqualFold(previous, stream.Channel) {
		c.cache.Invalidate(previous)
	}

	rules := c.primeEmotes(ctx, stream)

	snapshot := newSnapshot(stream)
	c.recordUser(stream.Channel, stream.AvatarUrl, stream.Live)
	c.publish(token, snapshot, rules)
	telemetry.CountWatch(false)
	return snapshot, nil
}

// Snapshot returns the most recently published snapshot with its elapsed time
// recomputed from the broadcast start anchor, so the value never drifts
func (c *Coordinator) Snapshot() (*Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil, false
	}
	snapshot := *c.current
	if snapshot.Live {
		snapshot.Elapsed = FormatElapsed(snapshot.StartedAt, time.Now())
	}
	return &snapshot, true
}

// Rules returns the emote rules for the channel currently being watched; nil (which
// matches nothing) when no channel is active
func (c *Coordinator) Rules() *emotes.RuleSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rules
}

// primeEmotes resolves the channel's emote rules, reusing the cached set when one
// exists and otherwise fetching best-effort: a failed fetch primes the channel with
// an empty set, degrading highlighting but never the watch
func (c *Coordinator) primeEmotes(ctx context.Context, stream *metadata.Stream) *emotes.RuleSet {
	if rules, ok := c.cache.Get(stream.Channel); ok {
		return rules
	}
	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()
	descriptors, err := c.emotes.GetEmotes(fetchCtx, stream.UserId)
	if err != nil {
		fmt.Printf("WATCH | emote fetch failed for %q: %v\n", stream.Channel, err)
		descriptors = nil
	}
	return c.cache.Prime(stream.Channel, descriptors)
}

// recordUser refreshes the directory entry for a watched channel, preserving a
// previously-stored avatar when the latest fetch didn't produce one
func (c *Coordinator) recordUser(channel string, avatarUrl string, live bool) {
	if c.users == nil {
		return
	}
	if existing, ok := c.users.Get(channel); ok && avatarUrl == "" {
		avatarUrl = existing.Avatar
	}
	record := users.Record{
		Username: channel,
		Avatar:   avatarUrl,
		Live:     live,
	}
	if err := c.users.Set(record); err != nil {
		fmt.Printf("WATCH | failed to save directory record for %q: %v\n", channel, err)
	}
}

// superseded reports whether a newer Watch call has been issued since the call that
// holds the given token
func (c *Coordinator) superseded(token uint64) bool {
	return token != c.token.Load()
}

// publish installs the snapshot and emote rules as the current watch state, unless a
// newer Watch call has superseded this one, in which case the result is discarded
func (c *Coordinator) publish(token uint64, snapshot *Snapshot, rules *emotes.RuleSet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.token.Load() {
		fmt.Printf("WATCH | discarding stale result for %q\n", snapshot.Channel)
		return
	}
	c.current = snapshot
	c.rules = rules
}

// publishOffline installs a degraded snapshot but leaves the emote rules untouched:
// the session is still joined to whatever channel it was on, so the live feed keeps
// tagging that channel's emotes
func (c *Coordinator) publishOffline(token uint64, snapshot *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.token.Load() {
		fmt.Printf("WATCH | discarding stale result for %q\n", snapshot.Channel)
		return
	}
	c.current = snapshot
}
