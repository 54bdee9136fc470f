package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/bounty"
)

func TestLockTableShared(t *testing.T) {
	lt := newLockTable()
	ctx := context.Background()
	shared := []bounty.Lock{bounty.SharedLock(globalLockKey), bounty.SharedLock("escrow/state")}

	require.NoError(t, lt.acquireAll(ctx, shared))
	require.NoError(t, lt.acquireAll(ctx, shared))
	lt.releaseAll(shared)
	lt.releaseAll(shared)
	assert.Equal(t, 0, len(lt.keys))
}

func TestLockTableExclusive(t *testing.T) {
	lt := newLockTable()
	excl := []bounty.Lock{bounty.ExclusiveLock("escrow/vault/01")}
	require.NoError(t, lt.acquireAll(context.Background(), excl))

	acquired := make(chan struct{})
	go func() {
		if err := lt.acquireAll(context.Background(), excl); err == nil {
			close(acquired)
		}
	}()

	select {
	case <-acquired:
		t.Fatal("exclusive lock granted twice")
	case <-time.After(50 * time.Millisecond):
	}

	lt.releaseAll(excl)
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiting transaction was not woken up")
	}
	lt.releaseAll(excl)
}

func TestLockTableCancel(t *testing.T) {
	lt := newLockTable()
	a := bounty.ExclusiveLock("cash/AA")
	b := bounty.ExclusiveLock("cash/BB")
	require.NoError(t, lt.acquireAll(context.Background(), []bounty.Lock{b}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := lt.acquireAll(ctx, []bounty.Lock{a, b})
	assert.Equal(t, context.DeadlineExceeded, err)

	// The first lock was given back on failure.
	require.NoError(t, lt.acquireAll(context.Background(), []bounty.Lock{a}))
	lt.releaseAll([]bounty.Lock{a, b})
	assert.Equal(t, 0, len(lt.keys))
}

func TestLockTableReleaseUnknown(t *testing.T) {
	lt := newLockTable()
	assert.Panics(t, func() {
		lt.releaseAll([]bounty.Lock{bounty.SharedLock("nope")})
	})
}

func TestLockTableQueuedWriterGoesFirst(t *testing.T) {
	lt := newLockTable()
	ctx := context.Background()
	state := []bounty.Lock{bounty.SharedLock("escrow/state")}
	admin := []bounty.Lock{bounty.ExclusiveLock("escrow/state")}
	require.NoError(t, lt.acquireAll(ctx, state))

	order := make(chan string, 2)
	writerIn := make(chan struct{})
	go func() {
		if err := lt.acquireAll(ctx, admin); err != nil {
			return
		}
		order <- "writer"
		<-writerIn
		lt.releaseAll(admin)
	}()
	waitQueued(t, lt, "escrow/state")

	readerIn := make(chan struct{})
	go func() {
		if err := lt.acquireAll(ctx, state); err != nil {
			return
		}
		order <- "reader"
		close(readerIn)
	}()

	select {
	case <-readerIn:
		t.Fatal("shared lock granted ahead of a queued writer")
	case <-time.After(50 * time.Millisecond):
	}

	lt.releaseAll(state)
	assert.Equal(t, "writer", <-order)
	close(writerIn)
	select {
	case <-readerIn:
	case <-time.After(time.Second):
		t.Fatal("reader was not woken up after the writer")
	}
	assert.Equal(t, "reader", <-order)
	lt.releaseAll(state)
	assert.Equal(t, 0, len(lt.keys))
}

func TestLockTableCancelledWriterReleasesReaders(t *testing.T) {
	lt := newLockTable()
	state := []bounty.Lock{bounty.SharedLock("escrow/state")}
	require.NoError(t, lt.acquireAll(context.Background(), state))

	ctx, cancel := context.WithCancel(context.Background())
	failed := make(chan error, 1)
	go func() {
		failed <- lt.acquireAll(ctx, []bounty.Lock{bounty.ExclusiveLock("escrow/state")})
	}()
	waitQueued(t, lt, "escrow/state")

	readerIn := make(chan struct{})
	go func() {
		if err := lt.acquireAll(context.Background(), state); err == nil {
			close(readerIn)
		}
	}()

	cancel()
	assert.Equal(t, context.Canceled, <-failed)
	select {
	case <-readerIn:
	case <-time.After(time.Second):
		t.Fatal("reader still blocked by a cancelled writer")
	}
	lt.releaseAll(state)
	lt.releaseAll(state)
	assert.Equal(t, 0, len(lt.keys))
}

// waitQueued blocks until an exclusive request is queued for the key.
func waitQueued(t *testing.T, lt *lockTable, key string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		lt.mu.Lock()
		k, ok := lt.keys[key]
		queued := ok && k.queued > 0
		lt.mu.Unlock()
		if queued {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("no exclusive request queued for %q", key)
}
