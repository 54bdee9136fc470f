package weavetest

import "github.com/iov-one/bounty"

// Decorator is a mock implementation of the bounty.Decorator interface.
//
// Set CheckErr or DeliverErr to force error response for corresponding method.
// If error attributes are not set then wrapped handler method is called and
// its result returned.
// Each method call is counted. Regardless of the method call result the
// counter is incremented.
type Decorator struct {
	checkCall int
	// CheckErr if set is returned by the Check method before calling
	// the wrapped handler.
	CheckErr error

	deliverCall int
	// DeliverErr if set is returned by the Deliver method before calling
	// the wrapped handler.
	DeliverErr error
}

var _ bounty.Decorator = (*Decorator)(nil)

func (d *Decorator) Check(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx, next bounty.Checker) (*bounty.CheckResult, error) {
	d.checkCall++

	if d.CheckErr != nil {
		return nil, d.CheckErr
	}
	return next.Check(ctx, db, tx)
}

func (d *Decorator) Deliver(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx, next bounty.Deliverer) (*bounty.DeliverResult, error) {
	d.deliverCall++

	if d.DeliverErr != nil {
		return nil, d.DeliverErr
	}
	return next.Deliver(ctx, db, tx)
}

func (d *Decorator) CheckCallCount() int {
	return d.checkCall
}

func (d *Decorator) DeliverCallCount() int {
	return d.deliverCall
}

func (d *Decorator) CallCount() int {
	return d.checkCall + d.deliverCall
}

// Decorate returns a handler that is calling given decorator before passing
// the request to the handler.
func Decorate(h bounty.Handler, d bounty.Decorator) bounty.Handler {
	return &decoratedHandler{hn: h, dc: d}
}

type decoratedHandler struct {
	hn bounty.Handler
	dc bounty.Decorator
}

var _ bounty.Handler = (*decoratedHandler)(nil)

func (d *decoratedHandler) Check(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.CheckResult, error) {
	return d.dc.Check(ctx, db, tx, d.hn)
}

func (d *decoratedHandler) Deliver(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.DeliverResult, error) {
	return d.dc.Deliver(ctx, db, tx, d.hn)
}
