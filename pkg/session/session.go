// Package session holds the per-connection state a RESP client
// accumulates: subscriptions, an in-flight MULTI queue, WATCHed keys, and
// the READONLY flag. It is owned exclusively by the connection goroutine
// that created it and is never shared across connections.
package session

import "github.com/cuemby/zakros/pkg/keyspace"

// QueuedCommand is one command queued while a MULTI transaction is open.
type QueuedCommand struct {
	Verb string
	Args [][]byte
}

// Session is the mutable state carried by one client connection.
type Session struct {
	// Pub/Sub.
	Channels map[string]struct{}
	Patterns map[string]struct{}

	// MULTI/EXEC.
	InMulti    bool
	Queued     []QueuedCommand
	MultiDirty bool

	// WATCH.
	Watched map[string]keyspace.WatchStamp

	// READONLY lets a follower serve reads locally instead of
	// redirecting/forwarding to the leader.
	Readonly bool
}

// New returns a fresh session for a newly accepted connection.
func New() *Session {
	return &Session{
		Channels: make(map[string]struct{}),
		Patterns: make(map[string]struct{}),
		Watched:  make(map[string]keyspace.WatchStamp),
	}
}

// Subscribed reports whether the session has any active channel or pattern
// subscriptions, i.e. is in "subscribed mode".
func (s *Session) Subscribed() bool {
	return len(s.Channels) > 0 || len(s.Patterns) > 0
}

// BeginMulti opens a transaction; queued commands accumulate until
// EXEC/DISCARD.
func (s *Session) BeginMulti() {
	s.InMulti = true
	s.Queued = nil
	s.MultiDirty = false
}

// EnqueueMulti appends cmd to the queue.
func (s *Session) EnqueueMulti(verb string, args [][]byte) {
	s.Queued = append(s.Queued, QueuedCommand{Verb: verb, Args: args})
}

// EndMulti clears the transaction (on EXEC or DISCARD).
func (s *Session) EndMulti() {
	s.InMulti = false
	s.Queued = nil
	s.MultiDirty = false
}

// Watch records the current stamp of key so a later EXEC can detect
// intervening mutation.
func (s *Session) Watch(key string, stamp keyspace.WatchStamp) {
	s.Watched[key] = stamp
}

// Unwatch clears all watched keys (WATCH is cumulative within a connection
// until UNWATCH, EXEC, or DISCARD).
func (s *Session) Unwatch() {
	s.Watched = make(map[string]keyspace.WatchStamp)
}
