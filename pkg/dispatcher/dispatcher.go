// Package dispatcher implements the command dispatcher: it looks up and
// validates each incoming command, applies MULTI/EXEC/WATCH transaction
// discipline, and routes the command to a local execution, a Raft submit,
// or a MOVED redirect according to its class.
package dispatcher

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cuemby/zakros/pkg/cluster"
	"github.com/cuemby/zakros/pkg/commands"
	"github.com/cuemby/zakros/pkg/keyspace"
	"github.com/cuemby/zakros/pkg/metrics"
	"github.com/cuemby/zakros/pkg/pubsub"
	"github.com/cuemby/zakros/pkg/resp"
	"github.com/cuemby/zakros/pkg/session"
)

// DefaultApplyTimeout bounds how long a Write or EXEC submission waits for
// its Raft entry to apply before giving up.
const DefaultApplyTimeout = 5 * time.Second

// subscribeModeAllowed lists the verbs a session may still issue once it
// has entered subscribed mode (spec section 4.6).
var subscribeModeAllowed = map[string]bool{
	"SUBSCRIBE": true, "UNSUBSCRIBE": true, "PSUBSCRIBE": true,
	"PUNSUBSCRIBE": true, "PING": true, "QUIT": true, "RESET": true,
}

// Dispatcher holds everything needed to route one command: the local
// keyspace, the optional Raft node (nil when Raft is disabled), and the
// node-local Pub/Sub registry.
type Dispatcher struct {
	KS           *keyspace.Keyspace
	Node         *cluster.Node // nil when Raft is disabled
	NodeID       int
	ClusterAddrs []string
	PubSub       *pubsub.Registry
	ApplyTimeout time.Duration
	OnShutdown   func()
}

// New builds a Dispatcher. node may be nil (Raft disabled), in which case
// every command executes directly against ks.
func New(ks *keyspace.Keyspace, node *cluster.Node, nodeID int, clusterAddrs []string, reg *pubsub.Registry, onShutdown func()) *Dispatcher {
	return &Dispatcher{
		KS:           ks,
		Node:         node,
		NodeID:       nodeID,
		ClusterAddrs: clusterAddrs,
		PubSub:       reg,
		ApplyTimeout: DefaultApplyTimeout,
		OnShutdown:   onShutdown,
	}
}

// Result is what Dispatch tells the connection handler to do with a
// command: one or more reply Values to write, in order, and whether the
// connection should close afterward.
type Result struct {
	Replies []resp.Value
	Close   bool
}

func single(v resp.Value) Result { return Result{Replies: []resp.Value{v}} }

// Dispatch runs one full dispatch cycle for verb/args against sess. sub is
// the connection's Pub/Sub subscriber handle (used only by PubSub-class
// commands); it may be nil for a connection that never subscribes.
func (d *Dispatcher) Dispatch(sess *session.Session, sub pubsub.Subscriber, verb string, args [][]byte) Result {
	upper := strings.ToUpper(verb)

	if sess.Subscribed() && !subscribeModeAllowed[upper] {
		return single(resp.Err("ERR only (P)SUBSCRIBE / (P)UNSUBSCRIBE / PING / QUIT / RESET are allowed in this context"))
	}

	spec, ok := commands.Lookup(upper)
	if !ok {
		if sess.InMulti {
			sess.MultiDirty = true
		}
		return single(resp.Err(fmt.Sprintf("ERR unknown command '%s'", verb)))
	}
	if !spec.CheckArity(len(args) + 1) {
		if sess.InMulti {
			sess.MultiDirty = true
		}
		return single(resp.Err(fmt.Sprintf("ERR wrong number of arguments for '%s' command", verb)))
	}

	// MULTI, EXEC, DISCARD, WATCH, UNWATCH and every PubSub command run
	// immediately even inside a transaction; everything else queues.
	if sess.InMulti && spec.Class != commands.Transaction && spec.Class != commands.PubSub {
		sess.EnqueueMulti(upper, args)
		return single(resp.Simple("QUEUED"))
	}

	switch spec.Class {
	case commands.Transaction:
		return d.dispatchTransaction(sess, upper, args)
	case commands.PubSub:
		return d.dispatchPubSub(sess, sub, upper, args)
	case commands.Cluster:
		return single(d.dispatchCluster(args))
	case commands.Connection:
		return d.dispatchConnection(sess, sub, upper, args)
	case commands.PureLocal:
		return single(d.dispatchPureLocal(upper, args))
	case commands.ReadLocal:
		return single(d.dispatchReadLocal(sess, upper, args))
	case commands.Write:
		return single(d.dispatchWrite(upper, args))
	default:
		return single(resp.Err("ERR internal: unclassified command"))
	}
}

func (d *Dispatcher) dispatchPureLocal(verb string, args [][]byte) resp.Value {
	switch verb {
	case "PING":
		if len(args) == 1 {
			return resp.Bulk(args[0])
		}
		return resp.Simple("PONG")
	case "ECHO":
		return resp.Bulk(args[0])
	case "TIME":
		now := time.Now()
		return resp.Array([]resp.Value{
			resp.BulkString(strconv.FormatInt(now.Unix(), 10)),
			resp.BulkString(strconv.FormatInt(int64(now.Nanosecond()/1000), 10)),
		})
	case "SHUTDOWN":
		if d.OnShutdown != nil {
			d.OnShutdown()
		}
		return resp.OK()
	case "INFO":
		return resp.BulkString(d.infoString())
	default:
		return resp.Err(fmt.Sprintf("ERR unknown command '%s'", verb))
	}
}

func (d *Dispatcher) infoString() string {
	role := "standalone"
	if d.Node != nil {
		if d.Node.IsLeader() {
			role = "leader"
		} else {
			role = "follower"
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Server\r\nnode_id:%d\r\nrole:%s\r\n", d.NodeID, role)
	d.KS.RLock()
	fmt.Fprintf(&b, "# Keyspace\r\ndb0:keys=%d\r\n", d.KS.DBSize())
	d.KS.RUnlock()
	return b.String()
}

func (d *Dispatcher) dispatchConnection(sess *session.Session, sub pubsub.Subscriber, verb string, args [][]byte) Result {
	switch verb {
	case "SELECT":
		if string(args[0]) != "0" {
			return single(resp.Err("ERR SELECT is only supported for database 0"))
		}
		return single(resp.OK())
	case "READONLY":
		sess.Readonly = true
		return single(resp.OK())
	case "READWRITE":
		sess.Readonly = false
		return single(resp.OK())
	case "RESET":
		if d.PubSub != nil && sub != nil {
			d.PubSub.UnsubscribeAll(sub)
		}
		sess.Channels = make(map[string]struct{})
		sess.Patterns = make(map[string]struct{})
		sess.EndMulti()
		sess.Unwatch()
		sess.Readonly = false
		return single(resp.Simple("RESET"))
	case "QUIT":
		return Result{Replies: []resp.Value{resp.OK()}, Close: true}
	default:
		return single(resp.Err(fmt.Sprintf("ERR unknown command '%s'", verb)))
	}
}

func (d *Dispatcher) dispatchCluster(args [][]byte) resp.Value {
	if len(args) == 0 {
		return resp.Err("ERR wrong number of arguments for 'cluster' command")
	}
	switch strings.ToUpper(string(args[0])) {
	case "MYID":
		return resp.BulkString(strconv.Itoa(d.NodeID))
	case "SLOTS":
		if len(d.ClusterAddrs) == 0 {
			return resp.Array(nil)
		}
		leader := 0
		if d.Node != nil {
			if addr := d.Node.LeaderAddr(); addr != "" {
				for i, a := range d.ClusterAddrs {
					if a == addr {
						leader = i
						break
					}
				}
			}
		}
		members := make([]resp.Value, 0, len(d.ClusterAddrs))
		// Leader entry first, by convention.
		order := append([]int{leader}, without(leader, len(d.ClusterAddrs))...)
		for _, id := range order {
			host, port := splitHostPort(d.ClusterAddrs[id])
			members = append(members, resp.Array([]resp.Value{
				resp.BulkString(host),
				resp.Int(port),
				resp.BulkString(strconv.Itoa(id)),
			}))
		}
		slot := resp.Array(append([]resp.Value{resp.Int(0), resp.Int(16383)}, members...))
		return resp.Array([]resp.Value{slot})
	default:
		return resp.Err("ERR unknown CLUSTER subcommand")
	}
}

func without(x, n int) []int {
	out := make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		if i != x {
			out = append(out, i)
		}
	}
	return out
}

func splitHostPort(addr string) (string, int64) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return addr, 0
	}
	port, _ := strconv.ParseInt(addr[idx+1:], 10, 64)
	return addr[:idx], port
}

func (d *Dispatcher) dispatchReadLocal(sess *session.Session, verb string, args [][]byte) resp.Value {
	if d.Node == nil || d.Node.IsLeader() || sess.Readonly {
		d.KS.RLock()
		defer d.KS.RUnlock()
		return commands.Execute(d.KS, verb, args)
	}
	return d.movedReply()
}

func (d *Dispatcher) dispatchWrite(verb string, args [][]byte) resp.Value {
	if d.Node == nil {
		d.KS.Lock()
		defer d.KS.Unlock()
		return commands.Execute(d.KS, verb, args)
	}
	if !d.Node.IsLeader() {
		return d.movedReply()
	}
	timer := metrics.NewTimer()
	replies, err := d.Node.Submit(commands.Batch{Entries: []commands.Entry{{Verb: verb, Args: args}}}, d.ApplyTimeout)
	timer.ObserveDuration(metrics.RaftApplyDuration)
	if err != nil {
		return resp.Err("ERR " + err.Error())
	}
	return replies[0]
}

func (d *Dispatcher) movedReply() resp.Value {
	addr := ""
	if d.Node != nil {
		addr = d.Node.LeaderAddr()
	}
	if addr == "" {
		return resp.Err("CLUSTERDOWN no known raft leader")
	}
	return resp.Err("MOVED 0 " + addr)
}

func (d *Dispatcher) dispatchTransaction(sess *session.Session, verb string, args [][]byte) Result {
	switch verb {
	case "MULTI":
		if sess.InMulti {
			return single(resp.Err("ERR MULTI calls can not be nested"))
		}
		sess.BeginMulti()
		return single(resp.OK())
	case "DISCARD":
		if !sess.InMulti {
			return single(resp.Err("ERR DISCARD without MULTI"))
		}
		sess.EndMulti()
		sess.Unwatch()
		return single(resp.OK())
	case "WATCH":
		if sess.InMulti {
			return single(resp.Err("ERR WATCH inside MULTI is not allowed"))
		}
		d.KS.RLock()
		for _, k := range args {
			sess.Watch(string(k), d.KS.Stamp(string(k)))
		}
		d.KS.RUnlock()
		return single(resp.OK())
	case "UNWATCH":
		sess.Unwatch()
		return single(resp.OK())
	case "EXEC":
		return single(d.execTransaction(sess))
	default:
		return single(resp.Err(fmt.Sprintf("ERR unknown command '%s'", verb)))
	}
}

func (d *Dispatcher) execTransaction(sess *session.Session) resp.Value {
	if !sess.InMulti {
		return resp.Err("ERR EXEC without MULTI")
	}
	defer sess.EndMulti()
	defer sess.Unwatch()

	if sess.MultiDirty {
		return resp.Err("EXECABORT Transaction discarded because of previous errors.")
	}

	d.KS.RLock()
	changed := false
	for key, stamp := range sess.Watched {
		if !d.KS.Unchanged(key, stamp) {
			changed = true
			break
		}
	}
	d.KS.RUnlock()
	if changed {
		return resp.NullArray()
	}

	if len(sess.Queued) == 0 {
		return resp.Array(nil)
	}

	batch := commands.Batch{Entries: make([]commands.Entry, len(sess.Queued))}
	for i, q := range sess.Queued {
		batch.Entries[i] = commands.Entry{Verb: q.Verb, Args: q.Args}
	}

	var replies []resp.Value
	if d.Node == nil {
		replies = commands.ExecuteBatch(d.KS, batch)
	} else if d.Node.IsLeader() {
		var err error
		timer := metrics.NewTimer()
		replies, err = d.Node.Submit(batch, d.ApplyTimeout)
		timer.ObserveDuration(metrics.RaftApplyDuration)
		if err != nil {
			return resp.Err("ERR " + err.Error())
		}
	} else {
		return d.movedReply()
	}
	return resp.Array(replies)
}

func (d *Dispatcher) dispatchPubSub(sess *session.Session, sub pubsub.Subscriber, verb string, args [][]byte) Result {
	switch verb {
	case "SUBSCRIBE":
		replies := make([]resp.Value, 0, len(args))
		for _, ch := range args {
			channel := string(ch)
			sess.Channels[channel] = struct{}{}
			if d.PubSub != nil && sub != nil {
				d.PubSub.Subscribe(sub, channel)
			}
			replies = append(replies, subAck("subscribe", channel, sess))
		}
		return Result{Replies: replies}
	case "UNSUBSCRIBE":
		channels := args
		if len(channels) == 0 {
			for ch := range sess.Channels {
				channels = append(channels, []byte(ch))
			}
		}
		replies := make([]resp.Value, 0, len(channels))
		for _, ch := range channels {
			channel := string(ch)
			delete(sess.Channels, channel)
			if d.PubSub != nil && sub != nil {
				d.PubSub.Unsubscribe(sub, channel)
			}
			replies = append(replies, subAck("unsubscribe", channel, sess))
		}
		if len(replies) == 0 {
			replies = append(replies, subAck("unsubscribe", "", sess))
		}
		return Result{Replies: replies}
	case "PSUBSCRIBE":
		replies := make([]resp.Value, 0, len(args))
		for _, pat := range args {
			pattern := string(pat)
			sess.Patterns[pattern] = struct{}{}
			if d.PubSub != nil && sub != nil {
				d.PubSub.PSubscribe(sub, pattern)
			}
			replies = append(replies, subAck("psubscribe", pattern, sess))
		}
		return Result{Replies: replies}
	case "PUNSUBSCRIBE":
		patterns := args
		if len(patterns) == 0 {
			for p := range sess.Patterns {
				patterns = append(patterns, []byte(p))
			}
		}
		replies := make([]resp.Value, 0, len(patterns))
		for _, pat := range patterns {
			pattern := string(pat)
			delete(sess.Patterns, pattern)
			if d.PubSub != nil && sub != nil {
				d.PubSub.PUnsubscribe(sub, pattern)
			}
			replies = append(replies, subAck("punsubscribe", pattern, sess))
		}
		if len(replies) == 0 {
			replies = append(replies, subAck("punsubscribe", "", sess))
		}
		return Result{Replies: replies}
	case "PUBLISH":
		n := 0
		if d.PubSub != nil {
			n = d.PubSub.Publish(string(args[0]), args[1])
		}
		return single(resp.Int(int64(n)))
	default:
		return single(resp.Err(fmt.Sprintf("ERR unknown command '%s'", verb)))
	}
}

func subAck(kind, channel string, sess *session.Session) resp.Value {
	count := len(sess.Channels) + len(sess.Patterns)
	item := resp.NullBulk()
	if channel != "" {
		item = resp.BulkString(channel)
	}
	return resp.Array([]resp.Value{resp.BulkString(kind), item, resp.Int(int64(count))})
}
