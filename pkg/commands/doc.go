/*
Package commands holds the static command table and the pure command
executor that the dispatcher and the Raft state machine adapter both call.

Execute implements the contracts from spec section 4.4 for the string,
list, hash, set, bit, and generic-keyspace command families: it is a pure
function of (keyspace, verb, args) with no knowledge of sessions, Raft, or
RESP framing, which is exactly what makes committed log entries replay
identically on every node. Connection-, Cluster-, and Pub/Sub-class
commands are NOT implemented here — they never cross Raft and are handled
directly by the dispatcher, which has the session and cluster context they
need.
*/
package commands
