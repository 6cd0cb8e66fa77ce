package cluster

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cuemby/zakros/pkg/commands"
	"github.com/cuemby/zakros/pkg/keyspace"
	"github.com/cuemby/zakros/pkg/resp"
	"github.com/cuemby/zakros/pkg/storage"
	"github.com/hashicorp/raft"
)

// peerPortOffset is added to a peer's configured client port to derive its
// Raft transport port, so a single cluster-addrs entry ("host:port") names
// both surfaces for a node (spec section 4.6, "a peer port derived from
// the cluster-addrs entry for this node id").
const peerPortOffset = 10000

// Config describes one node's static view of the cluster. ClusterAddrs is
// indexed by node id, exactly as parsed from the cluster-addrs
// configuration option.
type Config struct {
	NodeID         int
	DataDir        string
	ClusterAddrs   []string
	StorageKind    storage.Kind
	SnapshotRetain int
}

// Node wraps a raft.Raft instance bootstrapped over the statically
// configured cluster named in Config, applying committed entries to ks
// through an FSM. Grounded on pkg/cluster's prior Manager, which wired
// hashicorp/raft the same way around a BoltDB-backed Store instead of a
// Keyspace; the CA/DNS/ingress concerns it also owned have no analogue
// here and were dropped (see DESIGN.md).
type Node struct {
	id      int
	raft    *raft.Raft
	fsm     *FSM
	backend *storage.Backend
	addrs   []string // client-facing RESP address, indexed by node id
}

// New bootstraps (or rejoins, for a Durable backend with existing state) a
// Raft node over ks, configured with every peer in cfg.ClusterAddrs as a
// voter from the start — zakros clusters are fixed-membership for their
// lifetime (non-goal: dynamic membership changes).
func New(cfg Config, ks *keyspace.Keyspace) (*Node, error) {
	if cfg.NodeID < 0 || cfg.NodeID >= len(cfg.ClusterAddrs) {
		return nil, fmt.Errorf("node id %d out of range for %d cluster-addrs entries", cfg.NodeID, len(cfg.ClusterAddrs))
	}

	raftConfig := raft.DefaultConfig()
	raftConfig.LocalID = raft.ServerID(strconv.Itoa(cfg.NodeID))

	// Tuned for LAN deployments rather than hashicorp/raft's WAN-safe
	// defaults, matching pkg/cluster's prior Bootstrap timings.
	raftConfig.HeartbeatTimeout = 500 * time.Millisecond
	raftConfig.ElectionTimeout = 500 * time.Millisecond
	raftConfig.LeaderLeaseTimeout = 250 * time.Millisecond

	peerAddr, err := peerTransportAddr(cfg.ClusterAddrs[cfg.NodeID])
	if err != nil {
		return nil, fmt.Errorf("resolve peer address: %w", err)
	}
	bindAddr, err := net.ResolveTCPAddr("tcp", peerAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve bind address: %w", err)
	}
	transport, err := raft.NewTCPTransport(peerAddr, bindAddr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("create raft transport: %w", err)
	}

	backend, err := storage.Open(cfg.StorageKind, cfg.DataDir, cfg.SnapshotRetain, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("open storage backend: %w", err)
	}

	fsm := NewFSM(ks)

	r, err := raft.NewRaft(raftConfig, fsm, backend.LogStore, backend.StableStore, backend.SnapshotStore, transport)
	if err != nil {
		return nil, fmt.Errorf("create raft: %w", err)
	}

	servers := make([]raft.Server, len(cfg.ClusterAddrs))
	for i, clientAddr := range cfg.ClusterAddrs {
		peer, err := peerTransportAddr(clientAddr)
		if err != nil {
			return nil, fmt.Errorf("resolve peer address for node %d: %w", i, err)
		}
		servers[i] = raft.Server{ID: raft.ServerID(strconv.Itoa(i)), Address: raft.ServerAddress(peer)}
	}
	future := r.BootstrapCluster(raft.Configuration{Servers: servers})
	if err := future.Error(); err != nil && err != raft.ErrCantBootstrap {
		return nil, fmt.Errorf("bootstrap cluster: %w", err)
	}

	return &Node{id: cfg.NodeID, raft: r, fsm: fsm, backend: backend, addrs: cfg.ClusterAddrs}, nil
}

// peerTransportAddr derives a node's Raft transport address from its
// configured client address by adding peerPortOffset to the port.
func peerTransportAddr(clientAddr string) (string, error) {
	host, portStr, err := net.SplitHostPort(clientAddr)
	if err != nil {
		return "", err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", fmt.Errorf("invalid port in %q: %w", clientAddr, err)
	}
	return net.JoinHostPort(host, strconv.Itoa(port+peerPortOffset)), nil
}

// IsLeader reports whether this node currently holds Raft leadership.
func (n *Node) IsLeader() bool {
	return n.raft.State() == raft.Leader
}

// LeaderAddr returns the client-facing address of the current leader, as
// named in a MOVED reply, or "" if no leader is known.
func (n *Node) LeaderAddr() string {
	_, leaderID := n.raft.LeaderWithID()
	if leaderID == "" {
		return ""
	}
	id, err := strconv.Atoi(string(leaderID))
	if err != nil || id < 0 || id >= len(n.addrs) {
		return ""
	}
	return n.addrs[id]
}

// ErrNotLeader is returned by Submit when this node is not the Raft
// leader. The dispatcher checks IsLeader itself and replies MOVED before
// submitting; an ErrNotLeader from a leadership change in between reaches
// the client as an -ERR reply like any other Submit error.
var ErrNotLeader = fmt.Errorf("not the raft leader")

// Submit replicates batch through Raft and blocks until it is applied,
// returning the FSM's per-entry replies in order. It must only be called
// on the leader; a non-leader call returns ErrNotLeader without touching
// Raft.
func (n *Node) Submit(batch commands.Batch, timeout time.Duration) ([]resp.Value, error) {
	if !n.IsLeader() {
		return nil, ErrNotLeader
	}
	data, err := commands.EncodeBatch(batch)
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}
	future := n.raft.Apply(data, timeout)
	if err := future.Error(); err != nil {
		return nil, err
	}
	replies, ok := future.Response().([]resp.Value)
	if !ok {
		return nil, fmt.Errorf("unexpected FSM response type %T", future.Response())
	}
	return replies, nil
}

// Stats reports the Raft indices and peer count used by the metrics
// collector.
func (n *Node) Stats() map[string]uint64 {
	s := n.raft.Stats()
	out := map[string]uint64{"num_peers": uint64(len(n.addrs))}
	if v, ok := parseUint(s["last_log_index"]); ok {
		out["last_log_index"] = v
	}
	if v, ok := parseUint(s["applied_index"]); ok {
		out["applied_index"] = v
	}
	return out
}

func parseUint(s string) (uint64, bool) {
	v, err := strconv.ParseUint(s, 10, 64)
	return v, err == nil
}

// Shutdown stops the Raft node and releases its storage backend.
func (n *Node) Shutdown() error {
	if err := n.raft.Shutdown().Error(); err != nil {
		return err
	}
	return n.backend.Close()
}

// ParseClusterAddrs splits the whitespace-separated cluster-addrs
// configuration value into one entry per node id.
func ParseClusterAddrs(s string) []string {
	return strings.Fields(s)
}
