package keyspace

import "strconv"

func (k *Keyspace) hashEntry(key string, create bool) (*entry, bool, error) {
	e, ok := k.dict[key]
	if !ok {
		if !create {
			return nil, false, nil
		}
		e = &entry{kind: KindHash, hash: make(map[string][]byte)}
		k.dict[key] = e
		return e, true, nil
	}
	if e.kind != KindHash {
		return nil, true, ErrWrongType
	}
	return e, true, nil
}

// HSet sets the given field/value pairs, returning the number of fields
// that were newly created (not merely updated).
func (k *Keyspace) HSet(key string, pairs [][2][]byte) (int, error) {
	e, _, err := k.hashEntry(key, true)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, p := range pairs {
		field := string(p[0])
		if _, exists := e.hash[field]; !exists {
			created++
		}
		e.hash[field] = append([]byte(nil), p[1]...)
	}
	k.touch(key)
	return created, nil
}

// HSetNX sets field only if it does not already exist, returning whether it
// was set.
func (k *Keyspace) HSetNX(key string, field string, val []byte) (bool, error) {
	e, _, err := k.hashEntry(key, true)
	if err != nil {
		return false, err
	}
	if _, exists := e.hash[field]; exists {
		return false, nil
	}
	e.hash[field] = append([]byte(nil), val...)
	k.touch(key)
	return true, nil
}

// HGet returns the value of field in the hash at key.
func (k *Keyspace) HGet(key, field string) ([]byte, bool, error) {
	e, found, err := k.hashEntry(key, false)
	if err != nil || !found {
		return nil, false, err
	}
	v, ok := e.hash[field]
	return v, ok, nil
}

// HMGet returns the value of each requested field, nil for missing ones.
func (k *Keyspace) HMGet(key string, fields ...string) ([][]byte, error) {
	e, found, err := k.hashEntry(key, false)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(fields))
	if !found {
		return out, nil
	}
	for i, f := range fields {
		out[i] = e.hash[f]
	}
	return out, nil
}

// HDel removes fields from the hash, deleting the key entirely if it
// becomes empty. Returns the number of fields actually removed.
func (k *Keyspace) HDel(key string, fields ...string) (int, error) {
	e, found, err := k.hashEntry(key, false)
	if err != nil || !found {
		return 0, err
	}
	n := 0
	for _, f := range fields {
		if _, ok := e.hash[f]; ok {
			delete(e.hash, f)
			n++
		}
	}
	if n > 0 {
		k.touch(key)
	}
	k.deleteIfEmpty(key, e)
	return n, nil
}

// HExists reports whether field is present in the hash at key.
func (k *Keyspace) HExists(key, field string) (bool, error) {
	e, found, err := k.hashEntry(key, false)
	if err != nil || !found {
		return false, err
	}
	_, ok := e.hash[field]
	return ok, nil
}

// HLen returns the number of fields in the hash at key.
func (k *Keyspace) HLen(key string) (int, error) {
	e, found, err := k.hashEntry(key, false)
	if err != nil || !found {
		return 0, err
	}
	return len(e.hash), nil
}

// HKeys returns all field names in the hash at key.
func (k *Keyspace) HKeys(key string) ([]string, error) {
	e, found, err := k.hashEntry(key, false)
	if err != nil || !found {
		return nil, err
	}
	out := make([]string, 0, len(e.hash))
	for f := range e.hash {
		out = append(out, f)
	}
	return out, nil
}

// HVals returns all values in the hash at key.
func (k *Keyspace) HVals(key string) ([][]byte, error) {
	e, found, err := k.hashEntry(key, false)
	if err != nil || !found {
		return nil, err
	}
	out := make([][]byte, 0, len(e.hash))
	for _, v := range e.hash {
		out = append(out, v)
	}
	return out, nil
}

// HGetAll returns field/value pairs for the hash at key. Insertion order is
// not preserved, per the spec.
func (k *Keyspace) HGetAll(key string) ([][2][]byte, error) {
	e, found, err := k.hashEntry(key, false)
	if err != nil || !found {
		return nil, err
	}
	out := make([][2][]byte, 0, len(e.hash))
	for f, v := range e.hash {
		out = append(out, [2][]byte{[]byte(f), v})
	}
	return out, nil
}

// HStrLen returns the byte length of field's value (0 if absent).
func (k *Keyspace) HStrLen(key, field string) (int, error) {
	v, ok, err := k.HGet(key, field)
	if err != nil || !ok {
		return 0, err
	}
	return len(v), nil
}

// HIncrBy adds delta to the integer value of field, erroring on overflow or
// a non-integer existing value.
func (k *Keyspace) HIncrBy(key, field string, delta int64) (int64, error) {
	e, _, err := k.hashEntry(key, true)
	if err != nil {
		return 0, err
	}
	var cur int64
	if v, ok := e.hash[field]; ok {
		cur, err = parseInt64(v)
		if err != nil {
			return 0, err
		}
	}
	if (delta > 0 && cur > int64Max-delta) || (delta < 0 && cur < int64Min-delta) {
		return 0, ErrOverflow
	}
	next := cur + delta
	e.hash[field] = []byte(strconv.FormatInt(next, 10))
	k.touch(key)
	return next, nil
}
