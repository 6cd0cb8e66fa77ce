package keyspace

func (k *Keyspace) setEntry(key string, create bool) (*entry, bool, error) {
	e, ok := k.dict[key]
	if !ok {
		if !create {
			return nil, false, nil
		}
		e = &entry{kind: KindSet, set: make(map[string]struct{})}
		k.dict[key] = e
		return e, true, nil
	}
	if e.kind != KindSet {
		return nil, true, ErrWrongType
	}
	return e, true, nil
}

// setMembers returns the member map for key, treating a missing key as an
// empty set (used by SINTER/SUNION/SDIFF operands).
func (k *Keyspace) setMembers(key string) (map[string]struct{}, error) {
	e, found, err := k.setEntry(key, false)
	if err != nil {
		return nil, err
	}
	if !found {
		return map[string]struct{}{}, nil
	}
	return e.set, nil
}

// SAdd adds members to the set at key, returning the number newly added.
func (k *Keyspace) SAdd(key string, members ...[]byte) (int, error) {
	e, _, err := k.setEntry(key, true)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range members {
		s := string(m)
		if _, exists := e.set[s]; !exists {
			e.set[s] = struct{}{}
			n++
		}
	}
	if n > 0 {
		k.touch(key)
	}
	return n, nil
}

// SRem removes members from the set at key, deleting the key if it becomes
// empty. Returns the number actually removed.
func (k *Keyspace) SRem(key string, members ...[]byte) (int, error) {
	e, found, err := k.setEntry(key, false)
	if err != nil || !found {
		return 0, err
	}
	n := 0
	for _, m := range members {
		s := string(m)
		if _, exists := e.set[s]; exists {
			delete(e.set, s)
			n++
		}
	}
	if n > 0 {
		k.touch(key)
	}
	k.deleteIfEmpty(key, e)
	return n, nil
}

// SIsMember reports whether member is in the set at key.
func (k *Keyspace) SIsMember(key string, member []byte) (bool, error) {
	e, found, err := k.setEntry(key, false)
	if err != nil || !found {
		return false, err
	}
	_, ok := e.set[string(member)]
	return ok, nil
}

// SMIsMember reports membership for each of members in one call.
func (k *Keyspace) SMIsMember(key string, members ...[]byte) ([]bool, error) {
	e, found, err := k.setEntry(key, false)
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(members))
	if !found {
		return out, nil
	}
	for i, m := range members {
		_, out[i] = e.set[string(m)]
	}
	return out, nil
}

// SMembers returns all members of the set at key.
func (k *Keyspace) SMembers(key string) ([][]byte, error) {
	e, found, err := k.setEntry(key, false)
	if err != nil || !found {
		return nil, err
	}
	out := make([][]byte, 0, len(e.set))
	for m := range e.set {
		out = append(out, []byte(m))
	}
	return out, nil
}

// SCard returns the number of members in the set at key.
func (k *Keyspace) SCard(key string) (int, error) {
	e, found, err := k.setEntry(key, false)
	if err != nil || !found {
		return 0, err
	}
	return len(e.set), nil
}

// SetOp selects the combining operator for SINTER/SUNION/SDIFF.
type SetOp int

const (
	SetInter SetOp = iota
	SetUnion
	SetDiff
)

// SCombine computes op over the sets named by keys (missing keys act as
// empty sets).
func (k *Keyspace) SCombine(op SetOp, keys ...string) ([][]byte, error) {
	if len(keys) == 0 {
		return [][]byte{}, nil
	}
	first, err := k.setMembers(keys[0])
	if err != nil {
		return nil, err
	}
	result := make(map[string]struct{}, len(first))
	for m := range first {
		result[m] = struct{}{}
	}
	for _, key := range keys[1:] {
		other, err := k.setMembers(key)
		if err != nil {
			return nil, err
		}
		switch op {
		case SetInter:
			for m := range result {
				if _, ok := other[m]; !ok {
					delete(result, m)
				}
			}
		case SetUnion:
			for m := range other {
				result[m] = struct{}{}
			}
		case SetDiff:
			for m := range other {
				delete(result, m)
			}
		}
	}
	out := make([][]byte, 0, len(result))
	for m := range result {
		out = append(out, []byte(m))
	}
	return out, nil
}

// SCombineStore computes SCombine and stores the result at dest, returning
// its cardinality.
func (k *Keyspace) SCombineStore(op SetOp, dest string, keys ...string) (int, error) {
	members, err := k.SCombine(op, keys...)
	if err != nil {
		return 0, err
	}
	if len(members) == 0 {
		k.Del(dest)
		return 0, nil
	}
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[string(m)] = struct{}{}
	}
	k.dict[dest] = &entry{kind: KindSet, set: set}
	k.touch(dest)
	return len(set), nil
}

// SMove atomically moves member from src to dst, returning whether it was
// present in src.
func (k *Keyspace) SMove(src, dst string, member []byte) (bool, error) {
	srcEntry, found, err := k.setEntry(src, false)
	if err != nil || !found {
		return false, err
	}
	m := string(member)
	if _, ok := srcEntry.set[m]; !ok {
		return false, nil
	}
	if d, ok := k.dict[dst]; ok && d.kind != KindSet {
		return false, ErrWrongType
	}
	delete(srcEntry.set, m)
	k.touch(src)
	k.deleteIfEmpty(src, srcEntry)

	dstEntry, _, err := k.setEntry(dst, true)
	if err != nil {
		return false, err
	}
	dstEntry.set[m] = struct{}{}
	k.touch(dst)
	return true, nil
}
