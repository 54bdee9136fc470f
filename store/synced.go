package store

import (
	"sync"

	"github.com/iov-one/bounty/errors"
)

// Synced guards a KVStore with a read write mutex. Many readers may access
// the store at the same time, while writes are serialized. A batch created
// by this store is written under a single exclusive lock, so readers never
// observe a partially written batch.
//
// Use it as the base layer shared by transactions that are executed in
// parallel, each within its own cache wrap.
type Synced struct {
	mu sync.RWMutex
	kv KVStore
}

var _ CacheableKVStore = (*Synced)(nil)

// NewSynced returns a store that is safe for concurrent use.
func NewSynced(kv KVStore) *Synced {
	return &Synced{kv: kv}
}

// Get returns nil iff key doesn't exist.
func (s *Synced) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kv.Get(key)
}

// Has checks if a key exists.
func (s *Synced) Has(key []byte) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kv.Has(key)
}

// Set sets the key.
func (s *Synced) Set(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Set(key, value)
}

// Delete deletes the key.
func (s *Synced) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Delete(key)
}

// Iterator returns a snapshot of the requested range. The lock is released
// before the iterator is returned.
func (s *Synced) Iterator(start, end []byte) (Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, err := s.kv.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	return snapshot(it)
}

// ReverseIterator returns a snapshot of the requested range in descending
// order.
func (s *Synced) ReverseIterator(start, end []byte) (Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, err := s.kv.ReverseIterator(start, end)
	if err != nil {
		return nil, err
	}
	return snapshot(it)
}

func snapshot(it Iterator) (Iterator, error) {
	defer it.Release()
	var res []Model
	for {
		key, value, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return NewSliceIterator(res), nil
		}
		if err != nil {
			return nil, err
		}
		res = append(res, Pair(key, value))
	}
}

// NewBatch returns a batch that is written under the exclusive lock.
func (s *Synced) NewBatch() Batch {
	return &syncedBatch{parent: s}
}

// CacheWrap returns a cache that on Write applies all changes to this store
// atomically.
func (s *Synced) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(s, s.NewBatch(), nil)
}

// Update runs given function while holding the exclusive lock. Use it to
// perform operations that must not interleave with any write, for example
// committing the underlying store.
func (s *Synced) Update(fn func(KVStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.kv)
}

type syncedBatch struct {
	parent *Synced
	ops    []Op
}

func (b *syncedBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, SetOp(key, value))
	return nil
}

func (b *syncedBatch) Delete(key []byte) error {
	b.ops = append(b.ops, DelOp(key))
	return nil
}

func (b *syncedBatch) Write() error {
	b.parent.mu.Lock()
	defer b.parent.mu.Unlock()

	out := b.parent.kv.NewBatch()
	for _, op := range b.ops {
		if err := op.Apply(out); err != nil {
			return err
		}
	}
	b.ops = nil
	return out.Write()
}
