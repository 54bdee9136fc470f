package app

import (
	"context"
	"sync"

	"github.com/iov-one/bounty"
)

// globalLockKey guards the whole state. It sorts before any record key, so
// it is always acquired first. Scoped transactions hold it shared, unscoped
// ones exclusively.
const globalLockKey = ""

// lockTable grants shared and exclusive locks on record keys.
//
// Locks of a single transaction must be acquired in key order. Because every
// transaction follows the same order, no cycle of waiting transactions can
// form.
type lockTable struct {
	mu   sync.Mutex
	keys map[string]*keyLock
}

type keyLock struct {
	readers int
	writer  bool
	// queued counts exclusive requests waiting for the key. New shared
	// requests wait while it is non zero, so writers do not starve.
	queued int
	// wake is closed and replaced whenever the lock is released.
	wake chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{keys: make(map[string]*keyLock)}
}

// acquireAll takes all given locks in order. Locks must be normalized. On
// failure, nothing is held.
func (t *lockTable) acquireAll(ctx context.Context, locks []bounty.Lock) error {
	for i, l := range locks {
		if err := t.acquire(ctx, l); err != nil {
			t.releaseAll(locks[:i])
			return err
		}
	}
	return nil
}

func (t *lockTable) acquire(ctx context.Context, l bounty.Lock) error {
	queued := false
	for {
		t.mu.Lock()
		k, ok := t.keys[l.Key]
		if !ok {
			k = &keyLock{}
			t.keys[l.Key] = k
		}
		if k.grant(l.Exclusive) {
			if queued {
				k.queued--
			}
			t.mu.Unlock()
			return nil
		}
		if l.Exclusive && !queued {
			queued = true
			k.queued++
		}
		if k.wake == nil {
			k.wake = make(chan struct{})
		}
		wake := k.wake
		t.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			if queued {
				t.dequeue(l.Key)
			}
			return ctx.Err()
		}
	}
}

// grant takes the lock if it is free for the request. A shared request is
// refused while an exclusive one is queued.
func (k *keyLock) grant(exclusive bool) bool {
	switch {
	case k.writer:
		return false
	case exclusive:
		if k.readers != 0 {
			return false
		}
		k.writer = true
		return true
	case k.queued != 0:
		return false
	default:
		k.readers++
		return true
	}
}

// dequeue withdraws a cancelled exclusive request and lets the shared
// requests it was holding back retry.
func (t *lockTable) dequeue(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := t.keys[key]
	k.queued--
	k.notify()
	if k.idle() {
		delete(t.keys, key)
	}
}

func (k *keyLock) notify() {
	if k.wake != nil {
		close(k.wake)
		k.wake = nil
	}
}

func (k *keyLock) idle() bool {
	return !k.writer && k.readers == 0 && k.queued == 0
}

func (t *lockTable) releaseAll(locks []bounty.Lock) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, l := range locks {
		k, ok := t.keys[l.Key]
		if !ok {
			panic("releasing a lock that is not held: " + l.Key)
		}
		if l.Exclusive {
			k.writer = false
		} else {
			k.readers--
		}
		k.notify()
		if k.idle() {
			delete(t.keys, l.Key)
		}
	}
}
