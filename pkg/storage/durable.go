package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"
)

// Durable bundles the three on-disk stores a Raft node needs: a BoltDB log
// store, a BoltDB stable store, and a file-based snapshot store. Grounded
// on the Bootstrap/Join wiring in pkg/cluster, which opened exactly these
// three stores under dataDir.
type Durable struct {
	Log      *raftboltdb.BoltStore
	Stable   *raftboltdb.BoltStore
	Snapshot raft.SnapshotStore
}

// NewDurable opens (or creates) the BoltDB-backed log and stable stores and
// the file snapshot store under dataDir, retaining up to snapshotRetain
// snapshots on disk.
func NewDurable(dataDir string, snapshotRetain int, logOutput io.Writer) (*Durable, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(dataDir, "raft-log.db"))
	if err != nil {
		return nil, fmt.Errorf("open raft log store: %w", err)
	}

	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(dataDir, "raft-stable.db"))
	if err != nil {
		return nil, fmt.Errorf("open raft stable store: %w", err)
	}

	snapStore, err := raft.NewFileSnapshotStore(dataDir, snapshotRetain, logOutput)
	if err != nil {
		return nil, fmt.Errorf("open raft snapshot store: %w", err)
	}

	return &Durable{Log: logStore, Stable: stableStore, Snapshot: snapStore}, nil
}

// Close releases the underlying BoltDB handles. The snapshot store has no
// handle to release.
func (d *Durable) Close() error {
	if err := d.Log.Close(); err != nil {
		return err
	}
	return d.Stable.Close()
}
