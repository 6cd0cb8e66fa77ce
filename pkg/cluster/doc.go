/*
Package cluster wires a zakros node's Keyspace to github.com/hashicorp/raft.

Node bootstraps a fixed-membership Raft cluster from the node id and
cluster-addrs list given in Config, and exposes Submit for replicating a
commands.Batch through Raft's leader-ordered log. FSM is the raft.FSM
adapter: it applies committed batches to the Keyspace under a single write
lock and produces/restores snapshots using the Keyspace's own gob
encoding (pkg/keyspace/snapshot.go).

Peer transport, leader election, log replication, and snapshot install are
entirely hashicorp/raft's; this package only supplies the three
storage-backend interfaces (pkg/storage) and the FSM, matching what the
library's own godoc calls "the parts only your application knows about".
*/
package cluster
