package keyspace

import (
	"strconv"
)

func (k *Keyspace) stringEntry(key string) (*entry, bool, error) {
	e, ok := k.dict[key]
	if !ok {
		return nil, false, nil
	}
	if e.kind != KindString {
		return nil, true, ErrWrongType
	}
	return e, true, nil
}

// Get returns the string at key. ok is false if the key does not exist.
func (k *Keyspace) Get(key string) (val []byte, ok bool, err error) {
	e, found, err := k.stringEntry(key)
	if err != nil || !found {
		return nil, false, err
	}
	return e.str, true, nil
}

// SetOpts controls the optional NX/XX condition on SET.
type SetOpts struct {
	NX bool // only set if key does not exist
	XX bool // only set if key already exists
}

// Set stores val at key (unconditionally, or per opts). ok reports whether
// the condition was satisfied and the write happened.
func (k *Keyspace) Set(key string, val []byte, opts SetOpts) (ok bool, err error) {
	_, exists := k.dict[key]
	if opts.NX && exists {
		return false, nil
	}
	if opts.XX && !exists {
		return false, nil
	}
	k.dict[key] = &entry{kind: KindString, str: append([]byte(nil), val...)}
	k.touch(key)
	return true, nil
}

// SetNX is Set with NX semantics, returning whether the key was created.
func (k *Keyspace) SetNX(key string, val []byte) (bool, error) {
	return k.Set(key, val, SetOpts{NX: true})
}

// GetSet atomically sets key to val and returns the previous value.
func (k *Keyspace) GetSet(key string, val []byte) (old []byte, hadOld bool, err error) {
	old, hadOld, err = k.Get(key)
	if err != nil {
		return nil, false, err
	}
	k.dict[key] = &entry{kind: KindString, str: append([]byte(nil), val...)}
	k.touch(key)
	return old, hadOld, nil
}

// GetDel atomically returns key's value and deletes it.
func (k *Keyspace) GetDel(key string) (val []byte, ok bool, err error) {
	val, ok, err = k.Get(key)
	if err != nil || !ok {
		return val, ok, err
	}
	delete(k.dict, key)
	k.touch(key)
	return val, true, nil
}

// Append appends val to the string at key (creating it if absent), returning
// the new length.
func (k *Keyspace) Append(key string, val []byte) (int, error) {
	e, found, err := k.stringEntry(key)
	if err != nil {
		return 0, err
	}
	if !found {
		k.dict[key] = &entry{kind: KindString, str: append([]byte(nil), val...)}
		k.touch(key)
		return len(val), nil
	}
	e.str = append(e.str, val...)
	k.touch(key)
	return len(e.str), nil
}

// StrLen returns the length of the string at key (0 if absent).
func (k *Keyspace) StrLen(key string) (int, error) {
	e, found, err := k.stringEntry(key)
	if err != nil || !found {
		return 0, err
	}
	return len(e.str), nil
}

// GetRange returns the substring of key from start to end inclusive,
// supporting negative indices counted from the end, Redis style.
func (k *Keyspace) GetRange(key string, start, end int) ([]byte, error) {
	e, found, err := k.stringEntry(key)
	if err != nil || !found {
		return []byte{}, err
	}
	s := normalizeRange(len(e.str), start, end)
	if s == nil {
		return []byte{}, nil
	}
	return append([]byte(nil), e.str[s[0]:s[1]+1]...), nil
}

// normalizeRange converts Redis-style possibly-negative start/end into a
// clamped [lo, hi] inclusive pair, or nil if the range is empty.
func normalizeRange(length, start, end int) []int {
	if length == 0 {
		return nil
	}
	if start < 0 {
		start += length
	}
	if end < 0 {
		end += length
	}
	if start < 0 {
		start = 0
	}
	if end >= length {
		end = length - 1
	}
	if start > end || start >= length {
		return nil
	}
	return []int{start, end}
}

// SetRange overwrites key starting at offset with val, zero-padding the
// string if offset is beyond the current length. Returns the new length.
func (k *Keyspace) SetRange(key string, offset int, val []byte) (int, error) {
	e, found, err := k.stringEntry(key)
	if err != nil {
		return 0, err
	}
	if !found {
		e = &entry{kind: KindString}
		k.dict[key] = e
	}
	needed := offset + len(val)
	if needed > len(e.str) {
		padded := make([]byte, needed)
		copy(padded, e.str)
		e.str = padded
	}
	copy(e.str[offset:], val)
	k.touch(key)
	return len(e.str), nil
}

// MGet returns the string value (or nil) for each requested key, including
// a WRONGTYPE-safe nil for non-string keys.
func (k *Keyspace) MGet(keys ...string) [][]byte {
	out := make([][]byte, len(keys))
	for i, key := range keys {
		if e, ok := k.dict[key]; ok && e.kind == KindString {
			out[i] = e.str
		}
	}
	return out
}

// MSet atomically sets every key/value pair.
func (k *Keyspace) MSet(pairs [][2][]byte) {
	for _, p := range pairs {
		key := string(p[0])
		k.dict[key] = &entry{kind: KindString, str: append([]byte(nil), p[1]...)}
		k.touch(key)
	}
}

// MSetNX sets every pair only if none of the keys already exist. Returns
// whether the write happened; the keyspace is left unchanged on false.
func (k *Keyspace) MSetNX(pairs [][2][]byte) bool {
	for _, p := range pairs {
		if _, ok := k.dict[string(p[0])]; ok {
			return false
		}
	}
	k.MSet(pairs)
	return true
}

// parseInt64 enforces strict integer parsing: no leading/trailing
// whitespace, no partial parse.
func parseInt64(b []byte) (int64, error) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	return n, nil
}

// IncrBy adds delta to the integer stored at key (default 0), erroring on
// overflow or if the existing value is not an integer.
func (k *Keyspace) IncrBy(key string, delta int64) (int64, error) {
	e, found, err := k.stringEntry(key)
	if err != nil {
		return 0, err
	}
	var cur int64
	if found {
		cur, err = parseInt64(e.str)
		if err != nil {
			return 0, err
		}
	}
	if (delta > 0 && cur > int64Max-delta) || (delta < 0 && cur < int64Min-delta) {
		return 0, ErrOverflow
	}
	next := cur + delta
	if !found {
		e = &entry{kind: KindString}
		k.dict[key] = e
	}
	e.str = []byte(strconv.FormatInt(next, 10))
	k.touch(key)
	return next, nil
}

const (
	int64Max = 1<<63 - 1
	int64Min = -int64Max - 1
)
