package storage

import (
	"fmt"
	"sync"

	"github.com/hashicorp/raft"
)

// Volatile is an in-memory raft.LogStore and raft.StableStore. It is
// grounded on hashicorp/raft's own raft.InmemStore but kept as a distinct
// type here so zakros's storage selection logic (see cluster.Node) treats
// Volatile and Durable as two instances of the same local interface
// rather than reaching into the raft package directly.
type Volatile struct {
	mu sync.RWMutex

	logs      map[uint64]*raft.Log
	lowIndex  uint64
	highIndex uint64

	kv     map[string][]byte
	kvUint map[string]uint64
}

// NewVolatile returns an empty Volatile store.
func NewVolatile() *Volatile {
	return &Volatile{
		logs:   make(map[uint64]*raft.Log),
		kv:     make(map[string][]byte),
		kvUint: make(map[string]uint64),
	}
}

func (v *Volatile) FirstIndex() (uint64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lowIndex, nil
}

func (v *Volatile) LastIndex() (uint64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.highIndex, nil
}

func (v *Volatile) GetLog(index uint64, log *raft.Log) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	l, ok := v.logs[index]
	if !ok {
		return raft.ErrLogNotFound
	}
	*log = *l
	return nil
}

func (v *Volatile) StoreLog(log *raft.Log) error {
	return v.StoreLogs([]*raft.Log{log})
}

func (v *Volatile) StoreLogs(logs []*raft.Log) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, l := range logs {
		v.logs[l.Index] = l
		if v.lowIndex == 0 || l.Index < v.lowIndex {
			v.lowIndex = l.Index
		}
		if l.Index > v.highIndex {
			v.highIndex = l.Index
		}
	}
	return nil
}

func (v *Volatile) DeleteRange(min, max uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := min; i <= max; i++ {
		delete(v.logs, i)
	}
	if min <= v.lowIndex && max >= v.lowIndex {
		v.lowIndex = max + 1
	}
	if min <= v.highIndex && max >= v.highIndex {
		v.highIndex = min - 1
	}
	return nil
}

func (v *Volatile) Set(key []byte, val []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.kv[string(key)] = append([]byte(nil), val...)
	return nil
}

func (v *Volatile) Get(key []byte) ([]byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.kv[string(key)]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return val, nil
}

func (v *Volatile) SetUint64(key []byte, val uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.kvUint[string(key)] = val
	return nil
}

func (v *Volatile) GetUint64(key []byte) (uint64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.kvUint[string(key)], nil
}
