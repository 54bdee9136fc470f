package cash

import (
	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/x"
)

// RegisterRoutes will instantiate and register
// all handlers in this package. Every guard is consulted before funds are
// sent to a wallet.
func RegisterRoutes(r bounty.Registry, auth x.Authenticator, control Controller, guards ...DestinationGuard) {
	r.Handle(&SendMsg{}, NewSendHandler(auth, control, guards...))
}

// DestinationGuard is implemented by extensions owning wallets that must
// only be funded through their own handlers.
type DestinationGuard interface {
	// AcceptDestination returns an error if given wallet cannot receive
	// funds through a plain send.
	AcceptDestination(db bounty.ReadOnlyKVStore, dest bounty.Address) error
}

// RegisterQuery will register this bucket as "/wallets"
func RegisterQuery(qr bounty.QueryRouter) {
	NewBucket().Register("wallets", qr)
}

// SendHandler will handle sending coins
type SendHandler struct {
	auth    x.Authenticator
	control Controller
	guards  []DestinationGuard
}

var _ bounty.Handler = SendHandler{}
var _ bounty.Scoper = SendHandler{}

// NewSendHandler creates a handler for SendMsg
func NewSendHandler(auth x.Authenticator, control Controller, guards ...DestinationGuard) SendHandler {
	return SendHandler{
		auth:    auth,
		control: control,
		guards:  guards,
	}
}

// Scope locks both wallets exclusively.
func (h SendHandler) Scope(ctx bounty.Context, db bounty.ReadOnlyKVStore, tx bounty.Tx) ([]bounty.Lock, error) {
	var msg SendMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return []bounty.Lock{
		bounty.ExclusiveLock(LockKey(msg.Source)),
		bounty.ExclusiveLock(LockKey(msg.Destination)),
	}, nil
}

// Check just verifies it is properly formed and that the funds are there.
func (h SendHandler) Check(ctx bounty.Context, store bounty.KVStore, tx bounty.Tx) (*bounty.CheckResult, error) {
	msg, err := h.validate(ctx, store, tx)
	if err != nil {
		return nil, err
	}
	balance, err := h.control.Balance(store, msg.Source)
	if err != nil {
		return nil, err
	}
	if balance < msg.Amount {
		return nil, errors.Wrapf(errors.ErrInsufficientAmount, "balance %d, want %d", balance, msg.Amount)
	}
	return &bounty.CheckResult{}, nil
}

// Deliver moves the tokens from source to receiver if
// all preconditions are met
func (h SendHandler) Deliver(ctx bounty.Context, store bounty.KVStore, tx bounty.Tx) (*bounty.DeliverResult, error) {
	msg, err := h.validate(ctx, store, tx)
	if err != nil {
		return nil, err
	}
	if err := h.control.MoveCoins(store, msg.Source, msg.Destination, msg.Amount); err != nil {
		return nil, err
	}
	return &bounty.DeliverResult{}, nil
}

func (h SendHandler) validate(ctx bounty.Context, store bounty.ReadOnlyKVStore, tx bounty.Tx) (*SendMsg, error) {
	var msg SendMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	// Make sure we have permission from the source.
	if !h.auth.HasAddress(ctx, msg.Source) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "account owner signature missing")
	}
	for _, g := range h.guards {
		if err := g.AcceptDestination(store, msg.Destination); err != nil {
			return nil, errors.Wrap(err, "destination")
		}
	}
	return &msg, nil
}
