package utils

import (
	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
)

// Recovery turns a panic raised further down the stack into an ErrPanic
// failure of the transaction. The executor discards the changes of a failed
// transaction, so a panicking handler never leaves a partial state behind.
type Recovery struct{}

var _ bounty.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator
func NewRecovery() Recovery {
	return Recovery{}
}

func (r Recovery) Check(ctx bounty.Context, store bounty.KVStore, tx bounty.Tx, next bounty.Checker) (_ *bounty.CheckResult, err error) {
	defer recovered(ctx, tx, &err)
	return next.Check(ctx, store, tx)
}

func (r Recovery) Deliver(ctx bounty.Context, store bounty.KVStore, tx bounty.Tx, next bounty.Deliverer) (_ *bounty.DeliverResult, err error) {
	defer recovered(ctx, tx, &err)
	return next.Deliver(ctx, store, tx)
}

// recovered must be deferred directly so that recover can stop the panic.
func recovered(ctx bounty.Context, tx bounty.Tx, err *error) {
	p := recover()
	if p == nil {
		return
	}
	path := "(missing)"
	if tx != nil {
		path = bounty.GetPath(tx)
	}
	bounty.GetLogger(ctx).Error("transaction panic", "path", path, "panic", p)
	*err = errors.Wrapf(errors.ErrPanic, "%s: %v", path, p)
}
