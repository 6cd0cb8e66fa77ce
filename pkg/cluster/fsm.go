package cluster

import (
	"fmt"
	"io"

	"github.com/cuemby/zakros/pkg/commands"
	"github.com/cuemby/zakros/pkg/keyspace"
	"github.com/hashicorp/raft"
)

// FSM implements raft.FSM over a Keyspace: every committed log entry is a
// gob-encoded commands.Batch, applied atomically under the keyspace's
// write lock so a replicated MULTI/EXEC transaction commits as one unit on
// every node. Grounded on pkg/cluster's prior WarrenFSM, which did the
// same Apply/Snapshot/Restore dance over a BoltDB-backed Store instead of
// a Keyspace.
type FSM struct {
	ks *keyspace.Keyspace
}

// NewFSM returns an FSM applying committed entries to ks.
func NewFSM(ks *keyspace.Keyspace) *FSM {
	return &FSM{ks: ks}
}

// Apply decodes log.Data as a commands.Batch and executes it, returning the
// slice of resp.Value replies (one per entry) as the raft.ApplyFuture
// response available to Node.Submit.
func (f *FSM) Apply(log *raft.Log) interface{} {
	batch, err := commands.DecodeBatch(log.Data)
	if err != nil {
		return fmt.Errorf("decode batch at index %d: %w", log.Index, err)
	}
	return commands.ExecuteBatch(f.ks, batch)
}

// Snapshot captures the keyspace content for Raft's log compaction.
func (f *FSM) Snapshot() (raft.FSMSnapshot, error) {
	f.ks.RLock()
	defer f.ks.RUnlock()
	return &fsmSnapshot{snap: f.ks.Dump()}, nil
}

// Restore replaces the keyspace content with a previously persisted
// snapshot, called when a node restarts or falls far enough behind the
// leader's log to need a full state transfer.
func (f *FSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := keyspace.DecodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	f.ks.Lock()
	defer f.ks.Unlock()
	f.ks.Load(snap)
	return nil
}

type fsmSnapshot struct {
	snap keyspace.Snapshot
}

// Persist writes the snapshot to sink, the way WarrenSnapshot.Persist
// wrote its JSON-encoded cluster state.
func (s *fsmSnapshot) Persist(sink raft.SnapshotSink) error {
	err := func() error {
		data, err := keyspace.EncodeSnapshot(s.snap)
		if err != nil {
			return err
		}
		if _, err := sink.Write(data); err != nil {
			return err
		}
		return sink.Close()
	}()
	if err != nil {
		sink.Cancel()
	}
	return err
}

func (s *fsmSnapshot) Release() {}
