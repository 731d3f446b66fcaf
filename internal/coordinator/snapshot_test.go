package coordinator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_FormatElapsed(t *testing.T) {
	now := time.Date(2023, 11, 17, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		startedAt time.Time
		want      string
	}{
		{"zero start renders nothing", time.Time{}, ""},
		{"a start in the future renders nothing", now.Add(time.Minute), ""},
		{"just started", now, "0:00:00"},
		{"under a minute", now.Add(-42 * time.Second), "0:00:42"},
		{"minutes and seconds", now.Add(-(3*time.Minute + 5*time.Second)), "0:03:05"},
		{"over an hour", now.Add(-(time.Hour + 2*time.Minute + 3*time.Second)), "1:02:03"},
		{"hours are not zero-padded", now.Add(-26 * time.Hour), "26:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatElapsed(tt.startedAt, now))
		})
	}
}
