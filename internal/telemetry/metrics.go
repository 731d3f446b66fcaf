// Package telemetry exposes Prometheus counters for the chat pipeline and the
// watch coordinator.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	FramesDecoded   prometheus.Counter
	FramesRejected  prometheus.Counter
	ChannelSwitches prometheus.Counter
	WatchRequests   prometheus.Counter
	WatchFailures   prometheus.Counter
)

// Init registers all metrics with the default registry (idempotent)
func Init() {
	once.Do(func() {
		FramesDecoded = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_frames_decoded_total", Help: "Number of inbound chat frames decoded into events"})
		FramesRejected = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_frames_rejected_total", Help: "Number of inbound chat frames dropped as malformed"})
		ChannelSwitches = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_channel_switches_total", Help: "Number of chat channel join/part transitions"})
		WatchRequests = promauto.NewCounter(prometheus.CounterOpts{Name: "watch_requests_total", Help: "Number of watch requests handled"})
		WatchFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "watch_failures_total", Help: "Number of watch requests that failed outright"})
	})
}

// CountFrame records the outcome of decoding one inbound frame
func CountFrame(rejected bool) {
	if rejected {
		if FramesRejected != nil {
			FramesRejected.Inc()
		}
		return
	}
	if FramesDecoded != nil {
		FramesDecoded.Inc()
	}
}

// CountSwitch records one completed channel switch
func CountSwitch() {
	if ChannelSwitches != nil {
		ChannelSwitches.Inc()
	}
}

// CountWatch records one handled watch request and whether it failed
func CountWatch(failed bool) {
	if WatchRequests != nil {
		WatchRequests.Inc()
	}
	if failed && WatchFailures != nil {
		WatchFailures.Inc()
	}
}
