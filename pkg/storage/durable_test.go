package storage

import (
	"io"
	"testing"

	"github.com/hashicorp/raft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurableLogStoreRoundTrip(t *testing.T) {
	d, err := NewDurable(t.TempDir(), 2, io.Discard)
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Log.StoreLog(&raft.Log{Index: 1, Term: 1, Data: []byte("hello")}))

	var got raft.Log
	require.NoError(t, d.Log.GetLog(1, &got))
	assert.Equal(t, []byte("hello"), got.Data)
}

func TestDurableStableStoreRoundTrip(t *testing.T) {
	d, err := NewDurable(t.TempDir(), 2, io.Discard)
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Stable.SetUint64([]byte("current_term"), 7))
	n, err := d.Stable.GetUint64([]byte("current_term"))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), n)
}

func TestDurableSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	d1, err := NewDurable(dir, 2, io.Discard)
	require.NoError(t, err)
	require.NoError(t, d1.Log.StoreLog(&raft.Log{Index: 1, Term: 1, Data: []byte("persisted")}))
	require.NoError(t, d1.Close())

	d2, err := NewDurable(dir, 2, io.Discard)
	require.NoError(t, err)
	defer d2.Close()

	var got raft.Log
	require.NoError(t, d2.Log.GetLog(1, &got))
	assert.Equal(t, []byte("persisted"), got.Data)
}
