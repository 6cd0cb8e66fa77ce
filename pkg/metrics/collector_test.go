package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cuemby/zakros/pkg/keyspace"
	"github.com/cuemby/zakros/pkg/pubsub"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorHealthRaftDisabledIsHealthy(t *testing.T) {
	ks := keyspace.New()
	c := NewCollector(nil, ks, pubsub.New())

	health := c.Health()
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "disabled", health.Components["raft"])
	assert.Contains(t, health.Components["keyspace"], "healthy")
}

func TestCollectorHealthReflectsKeyspaceSize(t *testing.T) {
	ks := keyspace.New()
	ks.Lock()
	_, err := ks.Set("k", []byte("v"), keyspace.SetOpts{})
	ks.Unlock()
	require.NoError(t, err)

	c := NewCollector(nil, ks, pubsub.New())
	health := c.Health()
	assert.Contains(t, health.Components["keyspace"], "1 keys")
}

func TestCollectorSetVersionAppearsInHealth(t *testing.T) {
	c := NewCollector(nil, keyspace.New(), pubsub.New())
	c.SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", c.Health().Version)
}

func TestCollectorReadyMirrorsHealthyStatus(t *testing.T) {
	c := NewCollector(nil, keyspace.New(), pubsub.New())
	ready := c.Ready()
	assert.Equal(t, "ready", ready.Status)
	assert.Empty(t, ready.Message)
}

func TestHealthHandlerReturns200WhenHealthy(t *testing.T) {
	c := NewCollector(nil, keyspace.New(), pubsub.New())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	c.HealthHandler()(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
}

func TestReadyHandlerReturns200WhenReady(t *testing.T) {
	c := NewCollector(nil, keyspace.New(), pubsub.New())
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()

	c.ReadyHandler()(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ready", body.Status)
}

func TestLivenessHandlerAlwaysReturns200(t *testing.T) {
	c := NewCollector(nil, keyspace.New(), pubsub.New())
	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	w := httptest.NewRecorder()

	c.LivenessHandler()(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "alive", body["status"])
}

func TestCollectKeyspaceMetricsSetsGauge(t *testing.T) {
	ks := keyspace.New()
	ks.Lock()
	_, err := ks.Set("a", []byte("1"), keyspace.SetOpts{})
	ks.Unlock()
	require.NoError(t, err)

	c := NewCollector(nil, ks, pubsub.New())
	c.collectKeyspaceMetrics()
	assert.Equal(t, float64(1), testutil.ToFloat64(KeyspaceKeysTotal))
}

func TestCollectRaftMetricsNoopWithoutNode(t *testing.T) {
	c := NewCollector(nil, keyspace.New(), pubsub.New())
	c.collectRaftMetrics() // must not panic when Raft is disabled
}

func TestCollectPubSubMetricsSetsGauge(t *testing.T) {
	reg := pubsub.New()
	reg.Subscribe(&noopSubscriber{}, "news")
	reg.PSubscribe(&noopSubscriber{}, "alerts.*")

	c := NewCollector(nil, keyspace.New(), reg)
	c.collectPubSubMetrics()
	assert.Equal(t, float64(2), testutil.ToFloat64(PubSubSubscribersTotal))
}

type noopSubscriber struct{}

func (noopSubscriber) Deliver(kind, channel string, payload []byte) {}
