package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cuemby/zakros/pkg/cluster"
	"github.com/cuemby/zakros/pkg/keyspace"
	"github.com/cuemby/zakros/pkg/pubsub"
)

// Collector periodically samples a node's Raft, keyspace, and Pub/Sub state
// into the registered gauges, and doubles as the health/readiness/liveness
// reporter backing the /health, /ready, and /live HTTP endpoints. Unlike a
// generic named-component registry that a caller asserts booleans into, its
// notion of "healthy" is read directly off cluster.Node.LeaderAddr() and
// keyspace.DBSize() — the same node and keyspace the gauges below are
// sampled from.
type Collector struct {
	node   *cluster.Node
	ks     *keyspace.Keyspace
	reg    *pubsub.Registry
	stopCh chan struct{}

	mu        sync.RWMutex
	version   string
	startTime time.Time
}

// NewCollector creates a collector sampling node, ks, and reg.
func NewCollector(node *cluster.Node, ks *keyspace.Keyspace, reg *pubsub.Registry) *Collector {
	return &Collector{
		node:      node,
		ks:        ks,
		reg:       reg,
		stopCh:    make(chan struct{}),
		startTime: time.Now(),
	}
}

// SetVersion records the build version reported in /health and /ready
// bodies.
func (c *Collector) SetVersion(version string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version = version
}

// Start begins collecting on a 15 second tick, collecting once immediately.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectKeyspaceMetrics()
	c.collectRaftMetrics()
	c.collectPubSubMetrics()
}

func (c *Collector) collectKeyspaceMetrics() {
	c.ks.RLock()
	defer c.ks.RUnlock()
	KeyspaceKeysTotal.Set(float64(c.ks.DBSize()))
}

func (c *Collector) collectRaftMetrics() {
	if c.node == nil {
		return
	}

	if c.node.IsLeader() {
		RaftLeader.Set(1)
	} else {
		RaftLeader.Set(0)
	}

	stats := c.node.Stats()
	if v, ok := stats["last_log_index"]; ok {
		RaftLogIndex.Set(float64(v))
	}
	if v, ok := stats["applied_index"]; ok {
		RaftAppliedIndex.Set(float64(v))
	}
	RaftPeers.Set(float64(stats["num_peers"]))
}

func (c *Collector) collectPubSubMetrics() {
	if c.reg == nil {
		return
	}
	PubSubSubscribersTotal.Set(float64(c.reg.SubscriberCount()))
}

// HealthStatus is the JSON body served by /health, /ready, and /live.
type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
	Message    string            `json:"message,omitempty"`
	Version    string            `json:"version,omitempty"`
	Uptime     string            `json:"uptime,omitempty"`
}

// Health reports keyspace reachability and, when Raft is enabled, whether
// this node's cluster has a known leader. A node with Raft disabled is
// never marked unhealthy on that account — it is simply reported as such.
func (c *Collector) Health() HealthStatus {
	c.mu.RLock()
	version := c.version
	c.mu.RUnlock()

	components := make(map[string]string)
	healthy := true

	keys := func() int {
		c.ks.RLock()
		defer c.ks.RUnlock()
		return c.ks.DBSize()
	}()
	components["keyspace"] = fmt.Sprintf("healthy: %d keys", keys)

	switch {
	case c.node == nil:
		components["raft"] = "disabled"
	case c.node.LeaderAddr() != "":
		components["raft"] = "healthy: leader known"
	default:
		healthy = false
		components["raft"] = "unhealthy: no known leader"
	}

	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	return HealthStatus{
		Status:     status,
		Timestamp:  time.Now(),
		Components: components,
		Version:    version,
		Uptime:     time.Since(c.startTime).String(),
	}
}

// Ready mirrors Health but is phrased as ready/not_ready, the distinction an
// orchestrator's readiness probe expects when deciding whether to route
// traffic to this node.
func (c *Collector) Ready() HealthStatus {
	health := c.Health()
	status := "ready"
	message := ""
	if health.Status != "healthy" {
		status = "not_ready"
		message = "waiting for raft leader election"
	}
	return HealthStatus{
		Status:     status,
		Timestamp:  health.Timestamp,
		Components: health.Components,
		Message:    message,
		Version:    health.Version,
		Uptime:     health.Uptime,
	}
}

// HealthHandler serves the /health endpoint: 200 if healthy, 503 otherwise.
func (c *Collector) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := c.Health()
		w.Header().Set("Content-Type", "application/json")
		statusCode := http.StatusOK
		if health.Status != "healthy" {
			statusCode = http.StatusServiceUnavailable
		}
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(health)
	}
}

// ReadyHandler serves the /ready endpoint: 200 if ready, 503 otherwise.
func (c *Collector) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		readiness := c.Ready()
		w.Header().Set("Content-Type", "application/json")
		statusCode := http.StatusOK
		if readiness.Status != "ready" {
			statusCode = http.StatusServiceUnavailable
		}
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(readiness)
	}
}

// LivenessHandler serves the /live endpoint: 200 as long as the process is
// running, independent of Raft or keyspace state.
func (c *Collector) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "alive",
			"uptime": time.Since(c.startTime).String(),
		})
	}
}
