package commands

import (
	"bytes"
	"encoding/gob"

	"github.com/cuemby/zakros/pkg/keyspace"
	"github.com/cuemby/zakros/pkg/resp"
)

// Entry is one command within a replicated batch.
type Entry struct {
	Verb string
	Args [][]byte
}

// Batch is the payload carried by a single Raft log entry (spec sections
// 3.2/4.3). A MULTI/EXEC transaction submits every queued write as one
// Batch so the FSM applies it under a single Keyspace.Lock, matching the
// atomicity EXEC promises to the client that issued it. A lone write
// command submits as a one-Entry Batch.
type Batch struct {
	Entries []Entry
}

// EncodeBatch serializes b for Raft's log store.
func EncodeBatch(b Batch) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeBatch deserializes a Batch previously produced by EncodeBatch, as
// read back out of a committed Raft log entry.
func DecodeBatch(data []byte) (Batch, error) {
	var b Batch
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&b); err != nil {
		return Batch{}, err
	}
	return b, nil
}

// ExecuteBatch applies every entry in b to ks under a single write lock,
// returning one reply per entry in order. This is the entry point the FSM
// adapter calls for a committed Raft log entry, and the dispatcher calls
// directly for a MULTI/EXEC transaction applied without Raft.
func ExecuteBatch(ks *keyspace.Keyspace, b Batch) []resp.Value {
	ks.Lock()
	defer ks.Unlock()
	out := make([]resp.Value, len(b.Entries))
	for i, e := range b.Entries {
		out[i] = Execute(ks, e.Verb, e.Args)
	}
	return out
}
