package keyspace

import (
	"container/list"
	"errors"
	"sync"
)

// Kind tags the type of value stored under a key.
type Kind int

const (
	KindNone Kind = iota
	KindString
	KindList
	KindHash
	KindSet
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindHash:
		return "hash"
	case KindSet:
		return "set"
	default:
		return "none"
	}
}

// Sentinel errors returned by command methods. The dispatcher maps these to
// the appropriate RESP error prefix (-WRONGTYPE vs -ERR).
var (
	ErrWrongType  = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	ErrNotInteger = errors.New("value is not an integer or out of range")
	ErrOverflow   = errors.New("increment or decrement would overflow")
	ErrSyntax     = errors.New("syntax error")
	ErrNoSuchKey  = errors.New("no such key")
	ErrIndexRange = errors.New("index out of range")
)

// entry is the value stored for one key. Only one of the payload fields is
// meaningful, selected by kind. Entries are never stored empty: a list,
// hash, or set entry that becomes empty is deleted from the dict instead.
type entry struct {
	kind Kind
	str  []byte
	list *list.List
	hash map[string][]byte
	set  map[string]struct{}
}

// Keyspace is the in-memory dictionary backing a single zakros database.
type Keyspace struct {
	mu sync.RWMutex

	dict map[string]*entry

	// version is bumped on every mutation; used for INFO/DBSIZE style
	// introspection and as a cheap overall activity counter.
	version uint64

	// keyVersions tracks the last-mutation version per key, consulted by
	// WATCH/EXEC to decide whether a watched key changed.
	keyVersions map[string]uint64

	// flushEpoch is bumped on FLUSHALL/FLUSHDB, invalidating every
	// outstanding WATCH regardless of which keys they named.
	flushEpoch uint64
}

// New creates an empty keyspace.
func New() *Keyspace {
	return &Keyspace{
		dict:        make(map[string]*entry),
		keyVersions: make(map[string]uint64),
	}
}

// Lock/Unlock/RLock/RUnlock expose the keyspace's single-writer discipline so
// a caller (the FSM apply loop, or the dispatcher when Raft is disabled) can
// group a whole command batch into one atomic critical section.
func (k *Keyspace) Lock()    { k.mu.Lock() }
func (k *Keyspace) Unlock()  { k.mu.Unlock() }
func (k *Keyspace) RLock()   { k.mu.RLock() }
func (k *Keyspace) RUnlock() { k.mu.RUnlock() }

// Version returns the global mutation counter. Callers must hold at least
// RLock.
func (k *Keyspace) Version() uint64 { return k.version }

// touch bumps the global and per-key version counters. Must be called with
// the write lock held, after the mutation has already been applied.
func (k *Keyspace) touch(key string) {
	k.version++
	k.keyVersions[key] = k.version
}

// WatchStamp captures enough state to later decide whether key changed.
type WatchStamp struct {
	Version    uint64
	FlushEpoch uint64
}

// Stamp returns the current watch stamp for key. Callers must hold at least
// RLock.
func (k *Keyspace) Stamp(key string) WatchStamp {
	return WatchStamp{Version: k.keyVersions[key], FlushEpoch: k.flushEpoch}
}

// Unchanged reports whether key's stamp is still what it was when s was
// captured. Callers must hold at least RLock.
func (k *Keyspace) Unchanged(key string, s WatchStamp) bool {
	return s.FlushEpoch == k.flushEpoch && k.keyVersions[key] == s.Version
}

func (k *Keyspace) get(key string) (*entry, bool) {
	e, ok := k.dict[key]
	return e, ok
}

// deleteIfEmpty removes list/hash/set entries once they become empty,
// enforcing the no-empty-containers invariant. Must be called with the
// write lock held.
func (k *Keyspace) deleteIfEmpty(key string, e *entry) {
	empty := false
	switch e.kind {
	case KindList:
		empty = e.list.Len() == 0
	case KindHash:
		empty = len(e.hash) == 0
	case KindSet:
		empty = len(e.set) == 0
	}
	if empty {
		delete(k.dict, key)
	}
}

// Type returns the kind stored at key, or KindNone if the key is absent.
// Callers must hold at least RLock.
func (k *Keyspace) Type(key string) Kind {
	e, ok := k.dict[key]
	if !ok {
		return KindNone
	}
	return e.kind
}

// Exists reports how many of the given keys are present, counting
// duplicates in the argument list as Redis does.
func (k *Keyspace) Exists(keys ...string) int {
	n := 0
	for _, key := range keys {
		if _, ok := k.dict[key]; ok {
			n++
		}
	}
	return n
}

// Del removes keys, returning the number actually removed.
func (k *Keyspace) Del(keys ...string) int {
	n := 0
	for _, key := range keys {
		if _, ok := k.dict[key]; ok {
			delete(k.dict, key)
			k.touch(key)
			n++
		}
	}
	return n
}

// Keys returns all keys matching a glob pattern ('*', '?' and '[...]'
// classes, as implemented by matchGlob).
func (k *Keyspace) Keys(pattern string) []string {
	out := make([]string, 0, len(k.dict))
	for key := range k.dict {
		if matchGlob(pattern, key) {
			out = append(out, key)
		}
	}
	return out
}

// DBSize returns the number of keys currently stored.
func (k *Keyspace) DBSize() int { return len(k.dict) }

// FlushDB and FlushAll are identical in zakros: there is exactly one
// database (index 0). Both wipe all keys and bump the flush epoch so every
// outstanding WATCH is invalidated.
func (k *Keyspace) FlushDB() {
	k.dict = make(map[string]*entry)
	k.keyVersions = make(map[string]uint64)
	k.version++
	k.flushEpoch++
}

func (k *Keyspace) FlushAll() { k.FlushDB() }

// Rename moves the value at src to dst, overwriting dst. It errors if src
// does not exist.
func (k *Keyspace) Rename(src, dst string) error {
	e, ok := k.dict[src]
	if !ok {
		return ErrNoSuchKey
	}
	if src != dst {
		delete(k.dict, src)
		k.dict[dst] = e
		k.touch(src)
		k.touch(dst)
	}
	return nil
}

// RenameNX renames src to dst only if dst does not already exist. Returns
// true if the rename happened.
func (k *Keyspace) RenameNX(src, dst string) (bool, error) {
	if _, ok := k.dict[src]; !ok {
		return false, ErrNoSuchKey
	}
	if _, ok := k.dict[dst]; ok {
		return false, nil
	}
	if err := k.Rename(src, dst); err != nil {
		return false, err
	}
	return true, nil
}

// matchGlob implements the subset of glob syntax KEYS relies on: '*', '?'
// and single-character classes '[...]'. It is hand-rolled because path.Match
// treats '/' specially in a way that is wrong for Redis key globbing.
func matchGlob(pattern, s string) bool {
	return globMatch([]rune(pattern), []rune(s))
}

func globMatch(pattern, s []rune) bool {
	if len(pattern) == 0 {
		return len(s) == 0
	}
	switch pattern[0] {
	case '*':
		if globMatch(pattern[1:], s) {
			return true
		}
		for i := 0; i < len(s); i++ {
			if globMatch(pattern[1:], s[i+1:]) {
				return true
			}
		}
		return false
	case '?':
		if len(s) == 0 {
			return false
		}
		return globMatch(pattern[1:], s[1:])
	case '[':
		if len(s) == 0 {
			return false
		}
		end := indexRune(pattern[1:], ']')
		if end < 0 {
			return pattern[0] == s[0] && globMatch(pattern[1:], s[1:])
		}
		class := pattern[1 : end+1]
		neg := len(class) > 0 && class[0] == '^'
		if neg {
			class = class[1:]
		}
		matched := runeInClass(class, s[0])
		if matched == neg {
			return false
		}
		return globMatch(pattern[end+2:], s[1:])
	default:
		if len(s) == 0 || s[0] != pattern[0] {
			return false
		}
		return globMatch(pattern[1:], s[1:])
	}
}

func indexRune(r []rune, target rune) int {
	for i, c := range r {
		if c == target {
			return i
		}
	}
	return -1
}

func runeInClass(class []rune, target rune) bool {
	for i := 0; i < len(class); i++ {
		if i+2 < len(class) && class[i+1] == '-' {
			if target >= class[i] && target <= class[i+2] {
				return true
			}
			i += 2
			continue
		}
		if class[i] == target {
			return true
		}
	}
	return false
}
