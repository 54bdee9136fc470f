package cash

import (
	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
)

// LockKey returns the name of the record lock that protects the wallet of
// given address.
func LockKey(addr bounty.Address) string {
	return "cash/" + addr.String()
}

// Controller is the functionality needed by other extensions to
// manipulate balances.
type Controller interface {
	// Balance returns the amount held by given address.
	Balance(store bounty.ReadOnlyKVStore, addr bounty.Address) (uint64, error)

	// MoveCoins removes the funds from the source wallet and adds them to
	// the destination wallet.
	MoveCoins(store bounty.KVStore, src, dest bounty.Address, amount uint64) error

	// IssueCoins creates funds out of nothing and credits them to given
	// wallet. Only genesis and tests should need it.
	IssueCoins(store bounty.KVStore, dest bounty.Address, amount uint64) error
}

// BaseController is a simple implementation of Controller
type BaseController struct {
	bucket Bucket
}

var _ Controller = BaseController{}

// NewController returns a base controller
func NewController(bucket Bucket) BaseController {
	return BaseController{bucket: bucket}
}

// Balance returns the amount held by given address.
func (c BaseController) Balance(store bounty.ReadOnlyKVStore, addr bounty.Address) (uint64, error) {
	w, err := c.bucket.Get(store, addr)
	if err != nil {
		return 0, err
	}
	return w.Balance, nil
}

// MoveCoins moves the given amount from src to dest.
// If src doesn't exist, or doesn't have sufficient
// coins, it fails.
func (c BaseController) MoveCoins(store bounty.KVStore, src, dest bounty.Address, amount uint64) error {
	if amount == 0 {
		return errors.Wrap(errors.ErrInvalidAmount, "zero value")
	}
	sender, err := c.bucket.Get(store, src)
	if err != nil {
		return errors.Wrap(err, "sender")
	}
	if err := sender.Subtract(amount); err != nil {
		return err
	}
	if src.Equals(dest) {
		return nil
	}
	recipient, err := c.bucket.Get(store, dest)
	if err != nil {
		return errors.Wrap(err, "recipient")
	}
	if err := recipient.Add(amount); err != nil {
		return err
	}

	if err := c.bucket.Save(store, src, sender); err != nil {
		return errors.Wrap(err, "save sender")
	}
	if err := c.bucket.Save(store, dest, recipient); err != nil {
		return errors.Wrap(err, "save recipient")
	}
	return nil
}

// IssueCoins attempts to add the given amount of coins to
// the destination address. Fails if it overflows the wallet.
func (c BaseController) IssueCoins(store bounty.KVStore, dest bounty.Address, amount uint64) error {
	recipient, err := c.bucket.Get(store, dest)
	if err != nil {
		return err
	}
	if err := recipient.Add(amount); err != nil {
		return err
	}
	return c.bucket.Save(store, dest, recipient)
}
