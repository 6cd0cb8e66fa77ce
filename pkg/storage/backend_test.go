package storage

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenVolatileBackend(t *testing.T) {
	b, err := Open(KindVolatile, "", 0, io.Discard)
	require.NoError(t, err)
	require.NotNil(t, b.LogStore)
	require.NotNil(t, b.StableStore)
	require.NotNil(t, b.SnapshotStore)
	assert.NoError(t, b.Close())
}

func TestOpenDurableBackend(t *testing.T) {
	b, err := Open(KindDurable, t.TempDir(), 2, io.Discard)
	require.NoError(t, err)
	require.NotNil(t, b.LogStore)
	require.NotNil(t, b.StableStore)
	require.NotNil(t, b.SnapshotStore)
	assert.NoError(t, b.Close())
}

func TestOpenRejectsUnknownKind(t *testing.T) {
	_, err := Open(Kind("nonsense"), "", 0, io.Discard)
	require.Error(t, err)
}
