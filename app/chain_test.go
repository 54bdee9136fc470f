package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/weavetest"
	"github.com/iov-one/bounty/x/utils"
)

func TestChain(t *testing.T) {
	c1 := &weavetest.Decorator{}
	c2 := &weavetest.Decorator{}
	c3 := &weavetest.Decorator{}
	h := &weavetest.Handler{}

	stack := ChainDecorators(
		c1,
		utils.NewLogging(),
		utils.NewRecovery(),
		c2,
		nil,
		c3,
	).WithHandler(h)

	bg := context.Background()
	tx := &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "escrow/approve"}}

	_, err := stack.Check(bg, nil, tx)
	assert.NoError(t, err)
	_, err = stack.Deliver(bg, nil, tx)
	assert.NoError(t, err)

	assert.Equal(t, 2, c1.CallCount())
	assert.Equal(t, 2, c2.CallCount())
	assert.Equal(t, 2, c3.CallCount())
	assert.Equal(t, 2, h.CallCount())

	// An error stops the chain.
	c2.DeliverErr = errors.ErrUnauthorized
	_, err = stack.Deliver(bg, nil, tx)
	assert.True(t, errors.ErrUnauthorized.Is(err))
	assert.Equal(t, 3, c1.CallCount())
	assert.Equal(t, 3, c2.CallCount())
	assert.Equal(t, 2, c3.CallCount())
	assert.Equal(t, 2, h.CallCount())
}

func TestChainRecoversPanic(t *testing.T) {
	stack := ChainDecorators(utils.NewRecovery()).WithHandler(panicHandler{})
	_, err := stack.Deliver(context.Background(), nil, &weavetest.Tx{})
	assert.True(t, errors.ErrPanic.Is(err))
}

type panicHandler struct{}

func (panicHandler) Check(bounty.Context, bounty.KVStore, bounty.Tx) (*bounty.CheckResult, error) {
	panic("check")
}

func (panicHandler) Deliver(bounty.Context, bounty.KVStore, bounty.Tx) (*bounty.DeliverResult, error) {
	panic("deliver")
}

func TestChainScope(t *testing.T) {
	handlerLocks := []bounty.Lock{bounty.ExclusiveLock("escrow/vault/01")}
	decoratorLocks := []bounty.Lock{bounty.ExclusiveLock("sigs/AA")}

	cases := map[string]struct {
		handler bounty.Handler
		chain   []bounty.Decorator
		want    []bounty.Lock
	}{
		"handler without a scope is unscoped": {
			handler: panicHandler{},
			chain:   []bounty.Decorator{scopedDecorator{locks: decoratorLocks}},
			want:    nil,
		},
		"handler returning nil is unscoped": {
			handler: &weavetest.Handler{},
			chain:   []bounty.Decorator{scopedDecorator{locks: decoratorLocks}},
			want:    nil,
		},
		"decorator locks are added": {
			handler: &weavetest.Handler{Locks: handlerLocks},
			chain:   []bounty.Decorator{utils.NewLogging(), scopedDecorator{locks: decoratorLocks}},
			want:    append(append([]bounty.Lock{}, handlerLocks...), decoratorLocks...),
		},
		"decorators without scope add nothing": {
			handler: &weavetest.Handler{Locks: handlerLocks},
			chain:   []bounty.Decorator{utils.NewLogging(), utils.NewRecovery()},
			want:    handlerLocks,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			stack := ChainDecorators(tc.chain...).WithHandler(tc.handler)
			s, ok := stack.(bounty.Scoper)
			require.True(t, ok)
			locks, err := s.Scope(context.Background(), nil, &weavetest.Tx{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, locks)
		})
	}
}

// scopedDecorator declares given locks and passes everything through.
type scopedDecorator struct {
	locks []bounty.Lock
}

func (d scopedDecorator) Scope(bounty.Context, bounty.ReadOnlyKVStore, bounty.Tx) ([]bounty.Lock, error) {
	return d.locks, nil
}

func (d scopedDecorator) Check(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx, next bounty.Checker) (*bounty.CheckResult, error) {
	return next.Check(ctx, db, tx)
}

func (d scopedDecorator) Deliver(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx, next bounty.Deliverer) (*bounty.DeliverResult, error) {
	return next.Deliver(ctx, db, tx)
}
