package weavetest

import "github.com/iov-one/bounty"

// Handler is a mock implementation of the bounty.Handler interface.
//
// Each method call is counted. Set CheckErr or DeliverErr to force an error
// response.
type Handler struct {
	checkCall   int
	CheckResult bounty.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult bounty.DeliverResult
	DeliverErr    error

	// Locks if set are declared by the Scope method.
	Locks []bounty.Lock
}

var _ bounty.Handler = (*Handler)(nil)
var _ bounty.Scoper = (*Handler)(nil)

func (h *Handler) Check(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.CheckResult, error) {
	h.checkCall++
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.DeliverResult, error) {
	h.deliverCall++
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) Scope(bounty.Context, bounty.ReadOnlyKVStore, bounty.Tx) ([]bounty.Lock, error) {
	return h.Locks, nil
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}
