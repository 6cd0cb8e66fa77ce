package commands

import (
	"testing"

	"github.com/cuemby/zakros/pkg/keyspace"
	"github.com/cuemby/zakros/pkg/resp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKS(t *testing.T) *keyspace.Keyspace {
	t.Helper()
	return keyspace.New()
}

func TestExecuteSetGet(t *testing.T) {
	ks := newKS(t)
	reply := Execute(ks, "SET", [][]byte{[]byte("k"), []byte("v")})
	assert.Equal(t, resp.OK(), reply)

	reply = Execute(ks, "GET", [][]byte{[]byte("k")})
	require.Equal(t, resp.TypeBulkString, reply.Type)
	assert.Equal(t, "v", string(reply.Bulk))
}

func TestExecuteGetMissingIsNullBulk(t *testing.T) {
	ks := newKS(t)
	reply := Execute(ks, "GET", [][]byte{[]byte("missing")})
	assert.Equal(t, resp.NullBulk(), reply)
}

func TestExecuteIncrBy(t *testing.T) {
	ks := newKS(t)
	reply := Execute(ks, "INCRBY", [][]byte{[]byte("counter"), []byte("5")})
	assert.Equal(t, resp.Int(5), reply)

	reply = Execute(ks, "DECRBY", [][]byte{[]byte("counter"), []byte("2")})
	assert.Equal(t, resp.Int(3), reply)
}

func TestExecuteWrongTypeError(t *testing.T) {
	ks := newKS(t)
	Execute(ks, "LPUSH", [][]byte{[]byte("l"), []byte("a")})
	reply := Execute(ks, "GET", [][]byte{[]byte("l")})
	require.Equal(t, resp.TypeError, reply.Type)
	assert.Contains(t, reply.Str, "WRONGTYPE")
}

func TestExecuteHashRoundTrip(t *testing.T) {
	ks := newKS(t)
	Execute(ks, "HSET", [][]byte{[]byte("h"), []byte("f1"), []byte("v1")})
	reply := Execute(ks, "HGET", [][]byte{[]byte("h"), []byte("f1")})
	assert.Equal(t, "v1", string(reply.Bulk))
}

func TestExecuteListPushPop(t *testing.T) {
	ks := newKS(t)
	Execute(ks, "RPUSH", [][]byte{[]byte("list"), []byte("a"), []byte("b")})
	reply := Execute(ks, "LPOP", [][]byte{[]byte("list")})
	assert.Equal(t, "a", string(reply.Bulk))
}

func TestExecuteUnknownCommand(t *testing.T) {
	ks := newKS(t)
	reply := Execute(ks, "NOPE", nil)
	require.Equal(t, resp.TypeError, reply.Type)
	assert.Contains(t, reply.Str, "unknown command")
}

func TestExecuteBatchAppliesInOrder(t *testing.T) {
	ks := newKS(t)
	b := Batch{Entries: []Entry{
		{Verb: "SET", Args: [][]byte{[]byte("x"), []byte("1")}},
		{Verb: "INCR", Args: [][]byte{[]byte("x")}},
	}}
	replies := ExecuteBatch(ks, b)
	require.Len(t, replies, 2)
	assert.Equal(t, resp.Int(2), replies[1])
}

func TestEncodeDecodeBatch(t *testing.T) {
	b := Batch{Entries: []Entry{{Verb: "SET", Args: [][]byte{[]byte("k"), []byte("v")}}}}
	data, err := EncodeBatch(b)
	require.NoError(t, err)
	got, err := DecodeBatch(data)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}
