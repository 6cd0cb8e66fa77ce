/*
Package keyspace implements zakros's in-memory dictionary: the typed
string/list/hash/set values a client manipulates, plus the bookkeeping that
lets WATCH detect whether a key changed between being watched and an EXEC.

A Keyspace is a single logical database (database index 0; zakros does not
implement SELECT beyond that). Every exported command method (Set, LPush,
HSet, SAdd, ...) takes already-parsed arguments and returns a Go value or a
sentinel error — it does not know about RESP encoding, which is the
dispatcher's job.

Single-writer discipline: when Raft replication is enabled, only the FSM
adapter's apply goroutine calls the mutating methods; everything else takes
the read lock. When Raft is disabled the dispatcher calls mutating methods
directly. Lock/RLock are exported so a caller can group several commands
(e.g. a MULTI/EXEC batch) into one atomic critical section.
*/
package keyspace
