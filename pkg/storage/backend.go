package storage

import (
	"fmt"
	"io"

	"github.com/hashicorp/raft"
)

// Kind selects which storage backend a node runs with.
type Kind string

const (
	KindVolatile Kind = "volatile"
	KindDurable  Kind = "durable"
)

// Backend bundles the three stores raft.NewRaft needs, plus a Close hook
// for the durable case.
type Backend struct {
	LogStore      raft.LogStore
	StableStore   raft.StableStore
	SnapshotStore raft.SnapshotStore
	closer        func() error
}

// Close releases any open file handles. Safe to call on a Volatile-backed
// Backend, which has nothing to release.
func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}

// Open constructs the Backend named by kind. dataDir and logOutput are
// ignored for KindVolatile.
func Open(kind Kind, dataDir string, snapshotRetain int, logOutput io.Writer) (*Backend, error) {
	switch kind {
	case KindVolatile:
		v := NewVolatile()
		snap := raft.NewInmemSnapshotStore()
		return &Backend{LogStore: v, StableStore: v, SnapshotStore: snap}, nil
	case KindDurable:
		d, err := NewDurable(dataDir, snapshotRetain, logOutput)
		if err != nil {
			return nil, err
		}
		return &Backend{
			LogStore:      d.Log,
			StableStore:   d.Stable,
			SnapshotStore: d.Snapshot,
			closer:        d.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}
