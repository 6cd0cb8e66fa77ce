package keyspace

import (
	"bytes"
	"container/list"
	"encoding/gob"
)

// snapshotEntry is the gob-friendly representation of one entry; exactly
// one of its payload fields is populated, selected by Kind.
type snapshotEntry struct {
	Kind Kind
	Str  []byte
	List [][]byte
	Hash map[string][]byte
	Set  []string
}

// Snapshot is the full keyspace content used by the Raft FSM's
// Snapshot/Restore cycle (spec sections 3.3/4.1). It intentionally omits
// keyVersions/flushEpoch: a restored node resumes WATCH bookkeeping from
// scratch, which is safe because every client reconnects to a fresh
// session when a node restarts or installs a snapshot.
type Snapshot struct {
	Entries map[string]snapshotEntry
}

// Dump captures the current keyspace content. Callers must hold at least
// RLock.
func (k *Keyspace) Dump() Snapshot {
	out := make(map[string]snapshotEntry, len(k.dict))
	for key, e := range k.dict {
		se := snapshotEntry{Kind: e.kind}
		switch e.kind {
		case KindString:
			se.Str = append([]byte(nil), e.str...)
		case KindList:
			se.List = make([][]byte, 0, e.list.Len())
			for el := e.list.Front(); el != nil; el = el.Next() {
				se.List = append(se.List, append([]byte(nil), el.Value.([]byte)...))
			}
		case KindHash:
			se.Hash = make(map[string][]byte, len(e.hash))
			for f, v := range e.hash {
				se.Hash[f] = append([]byte(nil), v...)
			}
		case KindSet:
			se.Set = make([]string, 0, len(e.set))
			for m := range e.set {
				se.Set = append(se.Set, m)
			}
		}
		out[key] = se
	}
	return Snapshot{Entries: out}
}

// Load replaces the keyspace content with s, bumping the flush epoch so any
// outstanding WATCH is invalidated. Callers must hold Lock.
func (k *Keyspace) Load(s Snapshot) {
	dict := make(map[string]*entry, len(s.Entries))
	for key, se := range s.Entries {
		e := &entry{kind: se.Kind}
		switch se.Kind {
		case KindString:
			e.str = se.Str
		case KindList:
			e.list = list.New()
			for _, v := range se.List {
				e.list.PushBack(v)
			}
		case KindHash:
			e.hash = se.Hash
		case KindSet:
			e.set = make(map[string]struct{}, len(se.Set))
			for _, m := range se.Set {
				e.set[m] = struct{}{}
			}
		}
		dict[key] = e
	}
	k.dict = dict
	k.keyVersions = make(map[string]uint64)
	k.version++
	k.flushEpoch++
}

// EncodeSnapshot serializes s for a Raft snapshot sink.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot deserializes a Snapshot previously produced by
// EncodeSnapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}
