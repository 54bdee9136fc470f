package cash

import (
	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/orm"
)

// BucketName is where we store the balances
const BucketName = "cash"

// Wallet holds the balance of a single address.
type Wallet struct {
	Balance uint64 `json:"balance"`
}

var _ orm.Model = (*Wallet)(nil)

// Validate is a no-op, any balance is valid.
func (w *Wallet) Validate() error {
	return nil
}

func (w *Wallet) Copy() orm.Model {
	cpy := *w
	return &cpy
}

// Add increases the balance, failing on overflow.
func (w *Wallet) Add(amount uint64) error {
	next := w.Balance + amount
	if next < w.Balance {
		return errors.Wrap(errors.ErrOverflow, "balance")
	}
	w.Balance = next
	return nil
}

// Subtract decreases the balance, failing if funds are insufficient.
func (w *Wallet) Subtract(amount uint64) error {
	if w.Balance < amount {
		return errors.Wrapf(errors.ErrInsufficientAmount, "balance %d, want %d", w.Balance, amount)
	}
	w.Balance -= amount
	return nil
}

// Bucket is a type-safe wrapper around orm.ModelBucket
type Bucket struct {
	orm.ModelBucket
}

// NewBucket initializes a cash.Bucket with default name
func NewBucket() Bucket {
	return Bucket{
		ModelBucket: orm.NewModelBucket(BucketName, &Wallet{}),
	}
}

// Get returns the wallet of given address. Addresses that never received
// funds have an empty wallet.
func (b Bucket) Get(db bounty.ReadOnlyKVStore, addr bounty.Address) (*Wallet, error) {
	var w Wallet
	switch err := b.One(db, addr, &w); {
	case err == nil:
		return &w, nil
	case errors.ErrNotFound.Is(err):
		return &Wallet{}, nil
	default:
		return nil, err
	}
}

// Save stores the wallet. Empty wallets are removed from the store.
func (b Bucket) Save(db bounty.KVStore, addr bounty.Address, w *Wallet) error {
	if err := addr.Validate(); err != nil {
		return errors.Wrap(err, "wallet address")
	}
	if w.Balance == 0 {
		switch err := b.Delete(db, addr); {
		case err == nil, errors.ErrNotFound.Is(err):
			return nil
		default:
			return err
		}
	}
	return b.Put(db, addr, w)
}
