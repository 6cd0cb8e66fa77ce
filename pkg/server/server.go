// Package server runs the RESP connection handler: an accept loop that
// spawns one goroutine per connection, each running a framed request/reply
// loop over pkg/resp, gated by subscription mode and handed off to the
// dispatcher for classification and routing.
package server

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuemby/zakros/pkg/dispatcher"
	"github.com/cuemby/zakros/pkg/log"
	"github.com/cuemby/zakros/pkg/metrics"
	"github.com/cuemby/zakros/pkg/resp"
	"github.com/cuemby/zakros/pkg/session"
)

// Server accepts RESP connections on a single TCP listener and serves them
// against a shared Dispatcher. Per-connection work runs on the default Go
// scheduler, which multiplexes goroutines over GOMAXPROCS OS threads the
// same way the worker pool named in the concurrency model does — no
// connection goroutine ever blocks a thread while idle, since every wait
// (socket read, Raft apply) is a channel/syscall suspension point.
type Server struct {
	Addr       string
	MaxClients int
	Dispatch   *dispatcher.Dispatcher

	listener net.Listener
	wg       sync.WaitGroup
	clients  int64
	quit     chan struct{}
}

// New creates a Server bound to addr (not yet listening).
func New(addr string, maxClients int, d *dispatcher.Dispatcher) *Server {
	return &Server{
		Addr:       addr,
		MaxClients: maxClients,
		Dispatch:   d,
		quit:       make(chan struct{}),
	}
}

// Listen opens the TCP listener without serving yet, so a caller can
// detect a bind failure (port in use, permission denied) synchronously
// before committing to a background accept loop.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Addr, err)
	}
	s.listener = ln
	return nil
}

// ListenAndServe opens the listener, if not already open via Listen, and
// blocks accepting connections until Close is called; it then waits for
// the open connections to end and returns nil.
func (s *Server) ListenAndServe() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	log.WithComponent("server").Info().Str("addr", s.listener.Addr().String()).Msg("listening")

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				s.wg.Wait()
				return nil
			default:
				return err
			}
		}
		if s.MaxClients > 0 && atomic.LoadInt64(&s.clients) >= int64(s.MaxClients) {
			writeErrAndClose(conn, "ERR max number of clients reached")
			continue
		}
		atomic.AddInt64(&s.clients, 1)
		metrics.ConnectionsActive.Inc()
		metrics.ConnectionsTotal.Inc()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer atomic.AddInt64(&s.clients, -1)
			defer metrics.ConnectionsActive.Dec()
			s.serve(conn)
		}()
	}
}

// ListenAddr reports the listener's bound address; useful when configured
// with an ephemeral port (0).
func (s *Server) ListenAddr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops accepting new connections and returns at once. It neither
// closes nor waits for open connections; ListenAndServe returns only after
// every open connection's serve loop has ended.
func (s *Server) Close() error {
	close(s.quit)
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func writeErrAndClose(conn net.Conn, msg string) {
	conn.Write([]byte("-" + msg + "\r\n"))
	conn.Close()
}

// conn adapts one TCP connection to pubsub.Subscriber, delivering
// published messages asynchronously through an outbound queue so a slow
// subscriber never blocks the publisher (spec section 5). A message that
// finds the queue full is dropped for this connection.
type conn struct {
	nc       net.Conn
	w        *resp.Writer
	writeMu  sync.Mutex
	outbound chan resp.Value
	closed   chan struct{}
}

func newConn(nc net.Conn, w *resp.Writer) *conn {
	c := &conn{nc: nc, w: w, outbound: make(chan resp.Value, 256), closed: make(chan struct{})}
	go c.pump()
	return c
}

func (c *conn) pump() {
	for {
		select {
		case v := <-c.outbound:
			c.writeMu.Lock()
			_ = c.w.WriteValue(v)
			c.writeMu.Unlock()
		case <-c.closed:
			return
		}
	}
}

// Deliver implements pubsub.Subscriber.
func (c *conn) Deliver(kind, channel string, payload []byte) {
	v := resp.Array([]resp.Value{resp.BulkString(kind), resp.BulkString(channel), resp.Bulk(payload)})
	select {
	case c.outbound <- v:
	case <-c.closed:
	default:
	}
}

func (c *conn) writeSync(v resp.Value) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.w.WriteValue(v)
}

func (c *conn) stop() {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
}

func (s *Server) serve(nc net.Conn) {
	remote := nc.RemoteAddr().String()
	clog := log.WithConn(remote)
	clog.Debug().Msg("connection accepted")
	defer clog.Debug().Msg("connection closed")
	defer nc.Close()

	r := resp.NewReader(bufio.NewReader(nc))
	w := resp.NewWriter(bufio.NewWriter(nc))
	c := newConn(nc, w)
	defer c.stop()

	sess := session.New()

	for {
		fields, err := r.ReadCommand()
		if err != nil {
			return
		}
		if len(fields) == 0 {
			continue
		}
		verb := string(fields[0])
		args := fields[1:]

		start := time.Now()
		result := s.Dispatch.Dispatch(sess, c, verb, args)
		metrics.CommandsTotal.WithLabelValues(verb, outcome(result)).Inc()
		metrics.CommandDuration.WithLabelValues(verb).Observe(time.Since(start).Seconds())

		for _, reply := range result.Replies {
			if err := c.writeSync(reply); err != nil {
				return
			}
		}
		if result.Close {
			return
		}
	}
}

func outcome(r dispatcher.Result) string {
	for _, v := range r.Replies {
		if v.Type == resp.TypeError {
			return "error"
		}
	}
	return "ok"
}
