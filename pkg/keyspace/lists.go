package keyspace

import "container/list"

func (k *Keyspace) listEntry(key string, create bool) (*entry, bool, error) {
	e, ok := k.dict[key]
	if !ok {
		if !create {
			return nil, false, nil
		}
		e = &entry{kind: KindList, list: list.New()}
		k.dict[key] = e
		return e, true, nil
	}
	if e.kind != KindList {
		return nil, true, ErrWrongType
	}
	return e, true, nil
}

// push is shared by LPUSH/RPUSH/LPUSHX/RPUSHX.
func (k *Keyspace) push(key string, front bool, onlyIfExists bool, values [][]byte) (int, error) {
	if onlyIfExists {
		if _, ok := k.dict[key]; !ok {
			return 0, nil
		}
	}
	e, _, err := k.listEntry(key, true)
	if err != nil {
		return 0, err
	}
	for _, v := range values {
		cp := append([]byte(nil), v...)
		if front {
			e.list.PushFront(cp)
		} else {
			e.list.PushBack(cp)
		}
	}
	k.touch(key)
	return e.list.Len(), nil
}

func (k *Keyspace) LPush(key string, values ...[]byte) (int, error) {
	return k.push(key, true, false, values)
}

func (k *Keyspace) RPush(key string, values ...[]byte) (int, error) {
	return k.push(key, false, false, values)
}

func (k *Keyspace) LPushX(key string, values ...[]byte) (int, error) {
	return k.push(key, true, true, values)
}

func (k *Keyspace) RPushX(key string, values ...[]byte) (int, error) {
	return k.push(key, false, true, values)
}

// pop removes up to count elements from the front or back, returning them
// in the order they were popped.
func (k *Keyspace) pop(key string, front bool, count int) ([][]byte, error) {
	e, found, err := k.listEntry(key, false)
	if err != nil || !found {
		return nil, err
	}
	out := make([][]byte, 0, count)
	for i := 0; i < count && e.list.Len() > 0; i++ {
		var el *list.Element
		if front {
			el = e.list.Front()
		} else {
			el = e.list.Back()
		}
		out = append(out, el.Value.([]byte))
		e.list.Remove(el)
	}
	if len(out) > 0 {
		k.touch(key)
	}
	k.deleteIfEmpty(key, e)
	return out, nil
}

func (k *Keyspace) LPop(key string, count int) ([][]byte, error) { return k.pop(key, true, count) }
func (k *Keyspace) RPop(key string, count int) ([][]byte, error) { return k.pop(key, false, count) }

// LRange returns the elements from start to stop inclusive (Redis-style
// negative indices counted from the tail).
func (k *Keyspace) LRange(key string, start, stop int) ([][]byte, error) {
	e, found, err := k.listEntry(key, false)
	if err != nil || !found {
		return nil, err
	}
	r := normalizeRange(e.list.Len(), start, stop)
	if r == nil {
		return [][]byte{}, nil
	}
	out := make([][]byte, 0, r[1]-r[0]+1)
	i := 0
	for el := e.list.Front(); el != nil; el = el.Next() {
		if i >= r[0] && i <= r[1] {
			out = append(out, el.Value.([]byte))
		}
		i++
	}
	return out, nil
}

// LIndex returns the element at index, or (nil, false) if out of range.
func (k *Keyspace) LIndex(key string, index int) ([]byte, bool, error) {
	e, found, err := k.listEntry(key, false)
	if err != nil || !found {
		return nil, false, err
	}
	n := e.list.Len()
	if index < 0 {
		index += n
	}
	if index < 0 || index >= n {
		return nil, false, nil
	}
	el := e.list.Front()
	for i := 0; i < index; i++ {
		el = el.Next()
	}
	return el.Value.([]byte), true, nil
}

// LLen returns the length of the list at key (0 if absent).
func (k *Keyspace) LLen(key string) (int, error) {
	e, found, err := k.listEntry(key, false)
	if err != nil || !found {
		return 0, err
	}
	return e.list.Len(), nil
}

// LSet replaces the element at index. Out-of-range is an error.
func (k *Keyspace) LSet(key string, index int, val []byte) error {
	e, found, err := k.listEntry(key, false)
	if err != nil {
		return err
	}
	if !found {
		return ErrNoSuchKey
	}
	n := e.list.Len()
	if index < 0 {
		index += n
	}
	if index < 0 || index >= n {
		return ErrIndexRange
	}
	el := e.list.Front()
	for i := 0; i < index; i++ {
		el = el.Next()
	}
	el.Value = append([]byte(nil), val...)
	k.touch(key)
	return nil
}

// LTrim keeps only the elements from start to stop inclusive, deleting the
// key entirely if the result is empty.
func (k *Keyspace) LTrim(key string, start, stop int) error {
	e, found, err := k.listEntry(key, false)
	if err != nil || !found {
		return err
	}
	r := normalizeRange(e.list.Len(), start, stop)
	newList := list.New()
	if r != nil {
		i := 0
		for el := e.list.Front(); el != nil; el = el.Next() {
			if i >= r[0] && i <= r[1] {
				newList.PushBack(el.Value)
			}
			i++
		}
	}
	e.list = newList
	k.touch(key)
	k.deleteIfEmpty(key, e)
	return nil
}

// RPopLPush atomically moves the tail of src onto the head of dst, returning
// the moved element.
func (k *Keyspace) RPopLPush(src, dst string) ([]byte, bool, error) {
	srcEntry, found, err := k.listEntry(src, false)
	if err != nil || !found || srcEntry.list.Len() == 0 {
		return nil, false, err
	}
	if d, ok := k.dict[dst]; ok && d.kind != KindList {
		return nil, false, ErrWrongType
	}
	el := srcEntry.list.Back()
	val := el.Value.([]byte)
	srcEntry.list.Remove(el)
	k.touch(src)
	k.deleteIfEmpty(src, srcEntry)

	dstEntry, _, err := k.listEntry(dst, true)
	if err != nil {
		return nil, false, err
	}
	dstEntry.list.PushFront(val)
	k.touch(dst)
	return val, true, nil
}
