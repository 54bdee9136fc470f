package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/iov-one/bounty/weavetest/assert"
)

func syncedSuite() *TestSuite {
	return NewTestSuite(func() (CacheableKVStore, func()) {
		return NewSynced(MemStore()), func() {}
	})
}

func TestSyncedGetSet(t *testing.T)    { syncedSuite().GetSet(t) }
func TestSyncedConflicts(t *testing.T) { syncedSuite().CacheConflicts(t) }
func TestSyncedIteration(t *testing.T) { syncedSuite().Iteration(t) }

func TestSyncedParallelCacheWrites(t *testing.T) {
	base := NewSynced(MemStore())

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			cache := base.CacheWrap()
			key := []byte(fmt.Sprintf("vault/%02d", n))
			if err := cache.Set(key, []byte{byte(n)}); err != nil {
				t.Errorf("set: %s", err)
				return
			}
			if _, err := cache.Get([]byte("vault/00")); err != nil {
				t.Errorf("get: %s", err)
				return
			}
			if err := cache.Write(); err != nil {
				t.Errorf("write: %s", err)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		got, err := base.Get([]byte(fmt.Sprintf("vault/%02d", i)))
		assert.Nil(t, err)
		assert.Equal(t, []byte{byte(i)}, got)
	}

	var count int
	err := base.Update(func(kv KVStore) error {
		it, err := kv.Iterator(nil, nil)
		if err != nil {
			return err
		}
		defer it.Release()
		for {
			if _, _, err := it.Next(); err != nil {
				return nil
			}
			count++
		}
	})
	assert.Nil(t, err)
	assert.Equal(t, workers, count)
}
