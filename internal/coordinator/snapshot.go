package coordinator

import (
	"fmt"
	"time"

	"github.com/own-c/rt/internal/metadata"
)

// Snapshot is the published, internally consistent view of what the user is
// currently watching. It is always replaced wholesale, never updated field-by-field,
// so the UI can't observe a torn state between two channels
type Snapshot struct {
	Channel     string    `json:"channel"`
	Title       string    `json:"title"`
	Game        string    `json:"game"`
	ViewerCount int       `json:"viewerCount"`
	Live        bool      `json:"live"`
	PlaybackUrl string    `json:"playbackUrl,omitempty"`
	StartedAt   time.Time `json:"startedAt,omitempty"`
	Elapsed     string    `json:"elapsed,omitempty"`
}

func newSnapshot(stream *metadata.Stream) *Snapshot {
	snapshot := &Snapshot{
		Channel:     stream.Channel,
		Title:       stream.Title,
		Game:        stream.Game,
		ViewerCount: stream.ViewerCount,
		Live:        stream.Live,
		PlaybackUrl: stream.PlaybackUrl,
		StartedAt:   stream.StartedAt,
	}
	if stream.Live {
		snapshot.Elapsed = FormatElapsed(stream.StartedAt, time.Now())
	}
	return snapshot
}

// FormatElapsed renders the time between the broadcast start anchor and now as
// H:MM:SS. The value is recomputed from the anchor on every refresh rather than
// incremented, so it can't drift
func FormatElapsed(startedAt time.Time, now time.Time) string {
	if startedAt.IsZero() || now.Before(startedAt) {
		return ""
	}
	totalSeconds := int(now.Sub(startedAt).Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
}
