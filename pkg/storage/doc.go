/*
Package storage provides the two pluggable Raft log storage backends
zakros can run with: Volatile and Durable.

Both satisfy hashicorp/raft's raft.LogStore and raft.StableStore
interfaces, so cluster.Node can hand either one straight to raft.NewRaft
without caring which it got.

Volatile keeps the log, term/vote state, and snapshots entirely in memory.
A node configured with it loses everything on restart and must rejoin the
cluster as a fresh member; it exists for development and tests where
durability only slows things down.

Durable wraps github.com/hashicorp/raft-boltdb for the log and stable
store and raft.NewFileSnapshotStore for snapshots, each backed by a file
under the node's data directory. A restarted node with a Durable backend
resumes from exactly the log position it had committed.
*/
package storage
