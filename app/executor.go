package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tendermint/tendermint/libs/log"

	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/orm"
	"github.com/iov-one/bounty/store"
)

// maxScopeAttempts limits how many times the scope of a transaction is
// extended before it falls back to running alone.
const maxScopeAttempts = 4

// heightSeq persists the greatest committed height.
var heightSeq = orm.NewSequence("_bn", "height")

// Config holds the dependencies of an Executor.
type Config struct {
	// Handler is the full handler stack, usually decorators chained
	// with a router. If it implements bounty.Scoper, transactions are
	// executed in parallel.
	Handler bounty.Handler
	// Initializer sets up the state from the genesis.
	Initializer bounty.Initializer
	// Queries is used to serve Query calls.
	Queries bounty.QueryRouter
	// Clock defaults to the SystemClock.
	Clock Clock
	// Logger defaults to a no-op logger.
	Logger log.Logger
	// Sinks receive the events of every committed transaction.
	Sinks []EventSink
}

// Executor runs transactions against a shared store. It is safe for
// concurrent use.
type Executor struct {
	// height is the last height handed out to a transaction. Accessed
	// atomically, kept first for 64-bit alignment.
	height int64

	db      *store.Synced
	handler bounty.Handler
	init    bounty.Initializer
	queries bounty.QueryRouter
	clock   Clock
	logger  log.Logger
	sinks   []EventSink

	locks *lockTable

	mu      sync.RWMutex
	chainID string

	commitMu  sync.Mutex
	committed int64
}

// Result is returned for every successfully delivered transaction.
type Result struct {
	Height int64
	Data   []byte
	Log    string
	Events []bounty.Event
}

// NewExecutor loads the chain id and the last height from given store.
func NewExecutor(db *store.Synced, conf Config) (*Executor, error) {
	if conf.Handler == nil {
		return nil, errors.Wrap(errors.ErrHuman, "handler is required")
	}
	e := &Executor{
		db:      db,
		handler: conf.Handler,
		init:    conf.Initializer,
		queries: conf.Queries,
		clock:   conf.Clock,
		logger:  conf.Logger,
		sinks:   conf.Sinks,
		locks:   newLockTable(),
	}
	if e.clock == nil {
		e.clock = SystemClock{}
	}
	if e.logger == nil {
		e.logger = log.NewNopLogger()
	}

	chainID, err := loadChainID(db)
	if err != nil {
		return nil, err
	}
	e.chainID = chainID

	height, err := heightSeq.Latest(db)
	if err != nil {
		return nil, errors.Wrap(err, "load height")
	}
	e.height = height
	e.committed = height
	return e, nil
}

// ChainID returns the chain id, or an empty string if the chain was not
// initialized yet.
func (e *Executor) ChainID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.chainID
}

// Height returns the greatest height of a committed transaction.
func (e *Executor) Height() int64 {
	e.commitMu.Lock()
	defer e.commitMu.Unlock()
	return e.committed
}

// InitChain stores the chain id and runs the initializer with the
// application state of the genesis. Nothing is stored on failure.
func (e *Executor) InitChain(ctx context.Context, gen Genesis) error {
	global := []bounty.Lock{bounty.ExclusiveLock(globalLockKey)}
	if err := e.locks.acquireAll(ctx, global); err != nil {
		return err
	}
	defer e.locks.releaseAll(global)

	cache := e.db.CacheWrap()
	if err := saveChainID(cache, gen.ChainID); err != nil {
		cache.Discard()
		return err
	}
	if e.init != nil {
		if err := e.init.FromGenesis(gen.AppState, cache); err != nil {
			cache.Discard()
			return errors.Wrap(err, "genesis")
		}
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "write genesis")
	}

	e.mu.Lock()
	e.chainID = gen.ChainID
	e.mu.Unlock()
	e.logger.Info("chain initialized", "chainID", gen.ChainID)
	return nil
}

// Check runs the check phase of the transaction. Nothing is persisted.
func (e *Executor) Check(ctx context.Context, tx bounty.Tx) (*bounty.CheckResult, error) {
	var res *bounty.CheckResult
	_, err := e.run(ctx, tx, false, func(ctx bounty.Context, cache bounty.KVCacheWrap, height int64) error {
		defer cache.Discard()
		var err error
		res, err = e.handler.Check(ctx, cache, tx)
		return err
	})
	return res, err
}

// Deliver executes the transaction and persists its changes. On error
// nothing is persisted.
func (e *Executor) Deliver(ctx context.Context, tx bounty.Tx) (*Result, error) {
	var res *bounty.DeliverResult
	height, err := e.run(ctx, tx, true, func(ctx bounty.Context, cache bounty.KVCacheWrap, height int64) error {
		var err error
		res, err = e.handler.Deliver(ctx, cache, tx)
		if err != nil {
			cache.Discard()
			return err
		}
		return e.commit(cache, height)
	})
	if err != nil {
		return nil, err
	}

	for _, s := range e.sinks {
		s.Publish(height, res.Events)
	}
	return &Result{
		Height: height,
		Data:   res.Data,
		Log:    res.Log,
		Events: res.Events,
	}, nil
}

// run acquires the locks of the transaction, prepares the context and
// calls fn with a fresh cache wrap. Locks are released when fn returns.
// Only delivered transactions get a new height, checked ones see the last
// height handed out.
func (e *Executor) run(ctx context.Context, tx bounty.Tx, deliver bool, fn func(bounty.Context, bounty.KVCacheWrap, int64) error) (int64, error) {
	chainID := e.ChainID()
	if chainID == "" {
		return 0, errors.Wrap(errors.ErrInvalidState, "chain not initialized")
	}

	held, err := e.lock(ctx, tx)
	if err != nil {
		return 0, err
	}
	defer e.locks.releaseAll(held)

	call, height := "check_tx", atomic.LoadInt64(&e.height)
	if deliver {
		call, height = "deliver_tx", atomic.AddInt64(&e.height, 1)
	}
	txCtx := bounty.WithChainID(ctx, chainID)
	txCtx = bounty.WithHeight(txCtx, height)
	txCtx = bounty.WithBlockTime(txCtx, e.clock.Now())
	txCtx = bounty.WithLogger(txCtx, e.logger.With("call", call, "height", height))

	return height, fn(txCtx, e.db.CacheWrap(), height)
}

// lock acquires all locks declared by the transaction scope. The scope is
// evaluated again once the locks are held, because the records it was
// derived from could change in the meantime. If the scope grew, the locks
// are released and acquisition is repeated for the bigger set.
func (e *Executor) lock(ctx context.Context, tx bounty.Tx) ([]bounty.Lock, error) {
	want := e.scope(ctx, tx)
	for attempt := 1; ; attempt++ {
		if attempt > maxScopeAttempts {
			want = []bounty.Lock{bounty.ExclusiveLock(globalLockKey)}
		}
		if err := e.locks.acquireAll(ctx, want); err != nil {
			return nil, errors.Wrap(err, "acquire locks")
		}
		if want[0].Exclusive {
			// Global lock excludes everything else.
			return want, nil
		}
		again := e.scope(ctx, tx)
		if bounty.Covers(want, again) {
			return want, nil
		}
		e.locks.releaseAll(want)
		if again[0].Exclusive {
			want = again
		} else {
			want = bounty.NormalizeLocks(append(append([]bounty.Lock{}, want...), again...))
		}
	}
}

// scope returns the normalized locks of the transaction, always starting
// with the global lock. A transaction without a declared scope, or whose
// scope cannot be computed, takes the global lock exclusively.
func (e *Executor) scope(ctx context.Context, tx bounty.Tx) []bounty.Lock {
	s, ok := e.handler.(bounty.Scoper)
	if !ok {
		return []bounty.Lock{bounty.ExclusiveLock(globalLockKey)}
	}
	locks, err := s.Scope(ctx, e.db, tx)
	if err != nil || locks == nil {
		if err != nil {
			e.logger.Debug("cannot compute scope", "path", bounty.GetPath(tx), "err", err)
		}
		return []bounty.Lock{bounty.ExclusiveLock(globalLockKey)}
	}
	all := make([]bounty.Lock, 0, len(locks)+1)
	all = append(all, bounty.SharedLock(globalLockKey))
	return bounty.NormalizeLocks(append(all, locks...))
}

// commit writes the cache to the shared store. The height record holds the
// greatest committed height, so heights of transactions that failed or
// committed out of order leave gaps.
func (e *Executor) commit(cache bounty.KVCacheWrap, height int64) error {
	e.commitMu.Lock()
	defer e.commitMu.Unlock()

	if height > e.committed {
		if err := cache.Set(heightSeq.Key(), orm.EncodeSequence(height)); err != nil {
			cache.Discard()
			return errors.Wrap(err, "store height")
		}
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if height > e.committed {
		e.committed = height
	}
	return nil
}

// Query runs a query against the committed state.
func (e *Executor) Query(path, mod string, data []byte) ([]bounty.Model, error) {
	return e.queries.Query(e.db, path, mod, data)
}
