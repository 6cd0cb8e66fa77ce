// Package integration exercises a real multi-node Raft cluster end to end,
// the way test/e2e's cluster tests drove a multi-VM Warren cluster through
// its framework helpers — here the "cluster" is three in-process
// cluster.Node values over loopback TCP, which is enough to exercise
// leader election, log replication, and MOVED redirection without the
// external VM tooling the original framework needed.
package integration

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/cuemby/zakros/pkg/cluster"
	"github.com/cuemby/zakros/pkg/commands"
	"github.com/cuemby/zakros/pkg/dispatcher"
	"github.com/cuemby/zakros/pkg/keyspace"
	"github.com/cuemby/zakros/pkg/pubsub"
	"github.com/cuemby/zakros/pkg/resp"
	"github.com/cuemby/zakros/pkg/session"
	"github.com/cuemby/zakros/pkg/storage"
	"github.com/stretchr/testify/require"
)

type testNode struct {
	node *cluster.Node
	ks   *keyspace.Keyspace
	d    *dispatcher.Dispatcher
}

func freeAddrs(t *testing.T, n int) []string {
	t.Helper()
	addrs := make([]string, n)
	listeners := make([]net.Listener, n)
	for i := 0; i < n; i++ {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		listeners[i] = ln
		addrs[i] = ln.Addr().String()
	}
	// Close immediately: we only wanted free ports, and Raft's transport
	// binds peerPortOffset above these, not the addresses themselves.
	for _, ln := range listeners {
		ln.Close()
	}
	return addrs
}

func startCluster(t *testing.T, n int) []*testNode {
	t.Helper()
	addrs := freeAddrs(t, n)
	nodes := make([]*testNode, n)
	for i := 0; i < n; i++ {
		ks := keyspace.New()
		node, err := cluster.New(cluster.Config{
			NodeID:         i,
			DataDir:        t.TempDir(),
			ClusterAddrs:   addrs,
			StorageKind:    storage.KindVolatile,
			SnapshotRetain: 1,
		}, ks)
		require.NoError(t, err)
		reg := pubsub.New()
		d := dispatcher.New(ks, node, i, addrs, reg, nil)
		nodes[i] = &testNode{node: node, ks: ks, d: d}
	}
	t.Cleanup(func() {
		for _, n := range nodes {
			n.node.Shutdown()
		}
	})
	return nodes
}

func waitForLeader(t *testing.T, nodes []*testNode) *testNode {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for {
		for _, n := range nodes {
			if n.node.IsLeader() {
				return n
			}
		}
		select {
		case <-ctx.Done():
			t.Fatal("no leader elected within timeout")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestClusterElectsLeader(t *testing.T) {
	nodes := startCluster(t, 3)
	leader := waitForLeader(t, nodes)
	require.NotNil(t, leader)
}

func TestClusterReplicatesWrites(t *testing.T) {
	nodes := startCluster(t, 3)
	leader := waitForLeader(t, nodes)

	sess := session.New()
	result := leader.d.Dispatch(sess, nil, "SET", [][]byte{[]byte("greeting"), []byte("hello")})
	require.Len(t, result.Replies, 1)
	require.Equal(t, resp.OK(), result.Replies[0])

	for _, n := range nodes {
		require.Eventually(t, func() bool {
			n.ks.RLock()
			defer n.ks.RUnlock()
			val, ok, _ := n.ks.Get("greeting")
			return ok && string(val) == "hello"
		}, 2*time.Second, 20*time.Millisecond, "node did not observe replicated write")
	}
}

func TestFollowerRedirectsWriteWithMoved(t *testing.T) {
	nodes := startCluster(t, 3)
	leader := waitForLeader(t, nodes)

	var follower *testNode
	for _, n := range nodes {
		if n != leader {
			follower = n
			break
		}
	}
	require.NotNil(t, follower)

	sess := session.New()
	result := follower.d.Dispatch(sess, nil, "SET", [][]byte{[]byte("k"), []byte("v")})
	require.Len(t, result.Replies, 1)
	require.Equal(t, resp.TypeError, result.Replies[0].Type)
	require.Contains(t, result.Replies[0].Str, "MOVED")
}

func TestReadonlyFollowerServesStaleReadsLocally(t *testing.T) {
	nodes := startCluster(t, 3)
	leader := waitForLeader(t, nodes)

	leaderSess := session.New()
	leader.d.Dispatch(leaderSess, nil, "SET", [][]byte{[]byte("k"), []byte("v")})

	var follower *testNode
	for _, n := range nodes {
		if n != leader {
			follower = n
			break
		}
	}
	require.Eventually(t, func() bool {
		follower.ks.RLock()
		defer follower.ks.RUnlock()
		_, ok, _ := follower.ks.Get("k")
		return ok
	}, 2*time.Second, 20*time.Millisecond)

	sess := session.New()
	sess.Readonly = true
	result := follower.d.Dispatch(sess, nil, "GET", [][]byte{[]byte("k")})
	require.Equal(t, resp.BulkString("v"), result.Replies[0])
}

func TestExecBatchAtomicThroughRaft(t *testing.T) {
	nodes := startCluster(t, 3)
	leader := waitForLeader(t, nodes)

	sess := session.New()
	leader.d.Dispatch(sess, nil, "MULTI", nil)
	leader.d.Dispatch(sess, nil, "SET", [][]byte{[]byte("a"), []byte("1")})
	leader.d.Dispatch(sess, nil, "SET", [][]byte{[]byte("b"), []byte("2")})
	result := leader.d.Dispatch(sess, nil, "EXEC", nil)
	require.Len(t, result.Replies, 1)
	require.Equal(t, resp.TypeArray, result.Replies[0].Type)
	require.Len(t, result.Replies[0].Arr, 2)

	for _, n := range nodes {
		require.Eventually(t, func() bool {
			n.ks.RLock()
			defer n.ks.RUnlock()
			a, ok1, _ := n.ks.Get("a")
			b, ok2, _ := n.ks.Get("b")
			return ok1 && ok2 && string(a) == "1" && string(b) == "2"
		}, 2*time.Second, 20*time.Millisecond)
	}
}

func TestEncodeDecodeBatchRoundTripsAcrossTransport(t *testing.T) {
	batch := commands.Batch{Entries: []commands.Entry{
		{Verb: "SET", Args: [][]byte{[]byte("x"), []byte("y")}},
	}}
	data, err := commands.EncodeBatch(batch)
	require.NoError(t, err)
	decoded, err := commands.DecodeBatch(data)
	require.NoError(t, err)
	require.Equal(t, batch, decoded)
}
