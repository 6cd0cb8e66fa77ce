package keyspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringRoundTrip(t *testing.T) {
	k := New()
	k.Lock()
	defer k.Unlock()

	ok, err := k.Set("foo", []byte("bar"), SetOpts{})
	require.NoError(t, err)
	assert.True(t, ok)

	val, found, err := k.Get("foo")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("bar"), val)

	n, err := k.Append("foo", []byte("baz"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	val, _, _ = k.Get("foo")
	assert.Equal(t, []byte("barbaz"), val)
}

func TestIncrOverflow(t *testing.T) {
	k := New()
	k.Lock()
	defer k.Unlock()

	_, err := k.Set("n", []byte("9223372036854775806"), SetOpts{})
	require.NoError(t, err)

	v, err := k.IncrBy("n", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(9223372036854775807), v)

	_, err = k.IncrBy("n", 1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestWrongType(t *testing.T) {
	k := New()
	k.Lock()
	defer k.Unlock()

	_, err := k.LPush("s")
	require.NoError(t, err)
	_, _, err = k.Get("s")
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestEmptyContainersAreDeleted(t *testing.T) {
	k := New()
	k.Lock()
	defer k.Unlock()

	_, err := k.LPush("l", []byte("a"))
	require.NoError(t, err)
	_, err = k.LPop("l", 1)
	require.NoError(t, err)
	assert.Equal(t, 0, k.Exists("l"))

	_, err = k.HSet("h", [][2][]byte{{[]byte("f"), []byte("v")}})
	require.NoError(t, err)
	_, err = k.HDel("h", "f")
	require.NoError(t, err)
	assert.Equal(t, 0, k.Exists("h"))

	_, err = k.SAdd("st", []byte("m"))
	require.NoError(t, err)
	_, err = k.SRem("st", []byte("m"))
	require.NoError(t, err)
	assert.Equal(t, 0, k.Exists("st"))
}

func TestHashBasics(t *testing.T) {
	k := New()
	k.Lock()
	defer k.Unlock()

	created, err := k.HSet("h", [][2][]byte{{[]byte("a"), []byte("1")}, {[]byte("b"), []byte("2")}})
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	v, ok, err := k.HGet("h", "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	n, err := k.HDel("h", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, k.Exists("h"))
}

func TestWatchStampInvalidatedByFlush(t *testing.T) {
	k := New()
	k.Lock()
	k.Set("k", []byte("v"), SetOpts{})
	stamp := k.Stamp("k")
	k.Unlock()

	k.RLock()
	assert.True(t, k.Unchanged("k", stamp))
	k.RUnlock()

	k.Lock()
	k.FlushAll()
	k.Unlock()

	k.RLock()
	defer k.RUnlock()
	assert.False(t, k.Unchanged("k", stamp))
}

func TestListRangeNegativeIndices(t *testing.T) {
	k := New()
	k.Lock()
	defer k.Unlock()

	_, err := k.RPush("l", []byte("a"), []byte("b"), []byte("c"))
	require.NoError(t, err)

	vals, err := k.LRange("l", -2, -1)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("b"), []byte("c")}, vals)
}

func TestKeysGlob(t *testing.T) {
	k := New()
	k.Lock()
	defer k.Unlock()

	k.Set("foo1", []byte("a"), SetOpts{})
	k.Set("foo2", []byte("b"), SetOpts{})
	k.Set("bar", []byte("c"), SetOpts{})

	matched := k.Keys("foo*")
	assert.Len(t, matched, 2)
}
