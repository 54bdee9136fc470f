package escrow

import (
	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/x/cash"
)

// VaultGuard refuses plain cash transfers into vault wallets. A vault must
// hold exactly the deposited amount, so only the deposit handler funds it.
type VaultGuard struct {
	index VaultAddressIndex
}

var _ cash.DestinationGuard = VaultGuard{}

// NewVaultGuard returns a guard to be passed to cash.RegisterRoutes.
func NewVaultGuard() VaultGuard {
	return VaultGuard{index: NewVaultAddressIndex()}
}

// AcceptDestination fails with ErrUnauthorized for the wallet of any vault.
func (g VaultGuard) AcceptDestination(db bounty.ReadOnlyKVStore, dest bounty.Address) error {
	switch vulnID, err := g.index.VulnID(db, dest); {
	case err == nil:
		return errors.Wrapf(errors.ErrUnauthorized, "wallet of vault %d", vulnID)
	case errors.ErrNotFound.Is(err):
		return nil
	default:
		return err
	}
}
