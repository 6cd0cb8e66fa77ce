package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// Timer backs RaftApplyDuration around every Node.Submit call
// (pkg/dispatcher/dispatcher.go); pkg/server/server.go times
// CommandDuration itself with time.Since. These cases exercise Timer on
// plain histograms of both kinds: start, do work, observe.
func TestTimerObservesElapsedDurationIntoHistogram(t *testing.T) {
	cases := []struct {
		name      string
		histogram prometheus.Histogram
	}{
		{"command duration", prometheus.NewHistogram(prometheus.HistogramOpts{Name: "test_command_duration"})},
		{"raft apply duration", prometheus.NewHistogram(prometheus.HistogramOpts{Name: "test_raft_apply_duration"})},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			timer := NewTimer()
			time.Sleep(time.Millisecond)
			timer.ObserveDuration(tc.histogram)

			count := testutil.CollectAndCount(tc.histogram)
			assert.Equal(t, 1, count)
		})
	}
}

func TestTimerObservesElapsedDurationIntoHistogramVec(t *testing.T) {
	vec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "test_command_duration_by_verb"},
		[]string{"verb"},
	)

	timer := NewTimer()
	timer.ObserveDurationVec(vec, "GET")

	assert.Equal(t, 1, testutil.CollectAndCount(vec, "test_command_duration_by_verb"))
}

func TestTimerDurationIsMonotonicallyPositive(t *testing.T) {
	timer := NewTimer()
	time.Sleep(time.Millisecond)
	assert.Greater(t, timer.Duration(), time.Duration(0))
}
