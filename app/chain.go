package app

import (
	"reflect"

	"github.com/iov-one/bounty"
)

// Decorators holds a chain of decorators, not yet resolved by a Handler
type Decorators struct {
	chain []bounty.Decorator
}

/*
ChainDecorators takes a chain of decorators,
and upon adding a final Handler (often a Router),
returns a Handler that will execute this whole stack.

	app.ChainDecorators(
	  utils.NewLogging(),
	  utils.NewRecovery(),
	  sigs.NewDecorator(),
	  utils.NewActionTagger(),
	).WithHandler(
	  router,
	)

The returned handler also implements bounty.Scoper. Its scope is the
scope of the final handler extended by the locks of every decorator that
declares a scope. If the final handler is unscoped, so is the stack.
*/
func ChainDecorators(chain ...bounty.Decorator) Decorators {
	chain = cutoffNil(chain)
	return Decorators{}.Chain(chain...)
}

// Chain allows us to keep adding more Decorators to the chain
func (d Decorators) Chain(chain ...bounty.Decorator) Decorators {
	chain = cutoffNil(chain)
	newChain := make([]bounty.Decorator, 0, len(d.chain)+len(chain))
	newChain = append(newChain, d.chain...)
	newChain = append(newChain, chain...)
	return Decorators{newChain}
}

// cutoffNil will in-place remove all all nil values from given slice.
func cutoffNil(ds []bounty.Decorator) []bounty.Decorator {
	var cutoff int
	for i := 0; i < len(ds); i++ {
		ds[i-cutoff] = ds[i]
		if ds[i] == nil || (reflect.ValueOf(ds[i]).Kind() == reflect.Ptr && reflect.ValueOf(ds[i]).IsNil()) {
			cutoff++
		}
	}
	return ds[:len(ds)-cutoff]
}

// WithHandler resolves the stack and returns a concrete Handler
// that will pass through the chain of decorators before calling
// the final Handler.
func (d Decorators) WithHandler(h bounty.Handler) bounty.Handler {
	// start wrapping the handler from last decorator to first one
	// as the top of the chain is understood to be executed first
	for i := len(d.chain) - 1; i >= 0; i-- {
		h = step{d: d.chain[i], next: h}
	}
	return h
}

//------------------ internal types to build chain ---------------

// step captures one step executing a decorator around a
// specific Handler. Simplified version of a closure.
//
// Heavily inspired by negroni's design
type step struct {
	d    bounty.Decorator
	next bounty.Handler
}

var _ bounty.Handler = step{}
var _ bounty.Scoper = step{}

// Check passes the handler into the decorator, implements Handler
func (s step) Check(ctx bounty.Context, store bounty.KVStore, tx bounty.Tx) (*bounty.CheckResult, error) {
	return s.d.Check(ctx, store, tx, s.next)
}

// Deliver passes the handler into the decorator, implements Handler
func (s step) Deliver(ctx bounty.Context, store bounty.KVStore, tx bounty.Tx) (*bounty.DeliverResult, error) {
	return s.d.Deliver(ctx, store, tx, s.next)
}

// Scope joins the locks of the decorator with those of the rest of the
// stack.
func (s step) Scope(ctx bounty.Context, db bounty.ReadOnlyKVStore, tx bounty.Tx) ([]bounty.Lock, error) {
	inner, ok := s.next.(bounty.Scoper)
	if !ok {
		return nil, nil
	}
	locks, err := inner.Scope(ctx, db, tx)
	if err != nil || locks == nil {
		return nil, err
	}
	own, ok := s.d.(bounty.Scoper)
	if !ok {
		return locks, nil
	}
	extra, err := own.Scope(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	res := make([]bounty.Lock, 0, len(locks)+len(extra))
	res = append(res, locks...)
	return append(res, extra...), nil
}
