package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Connection metrics.
	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zakros_connections_active",
			Help: "Number of currently open client connections",
		},
	)

	ConnectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zakros_connections_total",
			Help: "Total number of client connections accepted",
		},
	)

	// Command metrics.
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zakros_commands_total",
			Help: "Total number of commands processed by verb and outcome",
		},
		[]string{"verb", "outcome"},
	)

	CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zakros_command_duration_seconds",
			Help:    "Command execution duration in seconds by verb",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"verb"},
	)

	// Raft metrics.
	RaftLeader = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zakros_raft_is_leader",
			Help: "Whether this node is the Raft leader (1 = leader, 0 = follower)",
		},
	)

	RaftPeers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zakros_raft_peers_total",
			Help: "Total number of Raft peers in the cluster",
		},
	)

	RaftLogIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zakros_raft_log_index",
			Help: "Current Raft log index",
		},
	)

	RaftAppliedIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zakros_raft_applied_index",
			Help: "Last applied Raft log index",
		},
	)

	RaftApplyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "zakros_raft_apply_duration_seconds",
			Help:    "Time taken for a Raft Apply to return in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Keyspace metrics.
	KeyspaceKeysTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zakros_keyspace_keys_total",
			Help: "Current number of keys in the keyspace",
		},
	)

	// Pub/Sub metrics.
	PubSubSubscribersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zakros_pubsub_subscribers_total",
			Help: "Current number of channel and pattern subscriptions",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ConnectionsActive,
		ConnectionsTotal,
		CommandsTotal,
		CommandDuration,
		RaftLeader,
		RaftPeers,
		RaftLogIndex,
		RaftAppliedIndex,
		RaftApplyDuration,
		KeyspaceKeysTotal,
		PubSubSubscribersTotal,
	)
}

// Handler returns the Prometheus HTTP handler exposing every registered
// metric in the text exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing command execution and Raft round trips.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer started now.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
