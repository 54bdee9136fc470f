package sigs

import (
	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
)

// RegisterQuery will register this bucket as "/auth"
func RegisterQuery(qr bounty.QueryRouter) {
	NewBucket().Register("auth", qr)
}

// LockKey returns the name of the record lock that protects the nonce of
// given signer.
func LockKey(signer bounty.Address) string {
	return "sigs/" + signer.String()
}

// Decorator verifies the signatures and adds them to the context
type Decorator struct {
	allowMissingSigs bool
}

var _ bounty.Decorator = Decorator{}
var _ bounty.Scoper = Decorator{}

// NewDecorator returns a default authentication decorator,
// which appends the chainID before checking the signature,
// and requires at least one signature to be present
func NewDecorator() Decorator {
	return Decorator{
		allowMissingSigs: false,
	}
}

// AllowMissingSigs allows us to pass along items with no signatures
func (d Decorator) AllowMissingSigs() Decorator {
	d.allowMissingSigs = true
	return d
}

// Scope declares an exclusive lock on the nonce of every signer.
func (d Decorator) Scope(ctx bounty.Context, db bounty.ReadOnlyKVStore, tx bounty.Tx) ([]bounty.Lock, error) {
	stx, ok := tx.(SignedTx)
	if !ok {
		return nil, nil
	}
	var locks []bounty.Lock
	for _, sig := range stx.GetSignatures() {
		if sig == nil || sig.Pubkey == nil || len(sig.Pubkey.Ed25519) == 0 {
			continue
		}
		locks = append(locks, bounty.ExclusiveLock(LockKey(sig.Pubkey.Address())))
	}
	return locks, nil
}

// Check verifies signatures before calling down the stack.
func (d Decorator) Check(ctx bounty.Context, store bounty.KVStore, tx bounty.Tx, next bounty.Checker) (*bounty.CheckResult, error) {
	ctx, err := d.authenticate(ctx, store, tx)
	if err != nil {
		return nil, err
	}
	return next.Check(ctx, store, tx)
}

// Deliver verifies signatures before calling down the stack.
func (d Decorator) Deliver(ctx bounty.Context, store bounty.KVStore, tx bounty.Tx, next bounty.Deliverer) (*bounty.DeliverResult, error) {
	ctx, err := d.authenticate(ctx, store, tx)
	if err != nil {
		return nil, err
	}
	return next.Deliver(ctx, store, tx)
}

func (d Decorator) authenticate(ctx bounty.Context, store bounty.KVStore, tx bounty.Tx) (bounty.Context, error) {
	stx, ok := tx.(SignedTx)
	if !ok {
		// Nothing to verify. Handlers see no signers.
		return ctx, nil
	}

	chainID := bounty.GetChainID(ctx)
	signers, err := VerifyTxSignatures(store, stx, chainID)
	if err != nil {
		return nil, errors.Wrap(err, "cannot verify signatures")
	}
	if len(signers) == 0 && !d.allowMissingSigs {
		return nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return withSigners(ctx, signers), nil
}
