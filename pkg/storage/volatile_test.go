package storage

import (
	"testing"

	"github.com/hashicorp/raft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolatileLogRoundTrip(t *testing.T) {
	v := NewVolatile()
	require.NoError(t, v.StoreLogs([]*raft.Log{
		{Index: 1, Term: 1, Data: []byte("a")},
		{Index: 2, Term: 1, Data: []byte("b")},
	}))

	first, err := v.FirstIndex()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first)

	last, err := v.LastIndex()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), last)

	var got raft.Log
	require.NoError(t, v.GetLog(2, &got))
	assert.Equal(t, []byte("b"), got.Data)
}

func TestVolatileDeleteRange(t *testing.T) {
	v := NewVolatile()
	require.NoError(t, v.StoreLogs([]*raft.Log{
		{Index: 1}, {Index: 2}, {Index: 3},
	}))
	require.NoError(t, v.DeleteRange(1, 2))

	var log raft.Log
	assert.ErrorIs(t, v.GetLog(1, &log), raft.ErrLogNotFound)
	assert.NoError(t, v.GetLog(3, &log))
}

func TestVolatileStableStore(t *testing.T) {
	v := NewVolatile()
	require.NoError(t, v.Set([]byte("k"), []byte("v")))
	got, err := v.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, v.SetUint64([]byte("n"), 42))
	n, err := v.GetUint64([]byte("n"))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), n)
}
