/*
Package metrics exposes zakros's Prometheus metrics and HTTP health
endpoints.

Metrics cover connection counts, per-verb command counters and latency
histograms, keyspace size, Pub/Sub subscriber counts, and the Raft
indices/leadership gauges Collector polls every 15 seconds from a
cluster.Node. Handler serves the Prometheus text exposition format;
Collector's HealthHandler/ReadyHandler/LivenessHandler serve /health,
/ready, and /live as JSON, deriving their status directly from the same
Raft and keyspace state the gauges are sampled from rather than a
separately-asserted component registry.
*/
package metrics
