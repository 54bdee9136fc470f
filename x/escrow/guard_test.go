package escrow

import (
	"testing"

	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/weavetest/assert"
	"github.com/iov-one/bounty/x/cash"
)

func TestVaultWalletRejectsSends(t *testing.T) {
	f := newFixture(t)
	assert.Nil(t, f.bank.IssueCoins(f.kv, f.stranger.Address(), 50))
	f.deposit(t, 20, 100)

	send := &cash.SendMsg{Source: f.stranger.Address(), Destination: VaultAddress(20), Amount: 50}
	assert.IsErr(t, errors.ErrUnauthorized, f.check(0, send, f.stranger))
	_, err := f.deliver(0, send, f.stranger)
	assert.IsErr(t, errors.ErrUnauthorized, err)
	assert.Equal(t, uint64(100), f.balance(t, VaultAddress(20)))

	f.mustDeliver(t, 0, &ReleaseMsg{VulnID: 20}, f.registry)
	assert.Equal(t, uint64(0), f.balance(t, VaultAddress(20)))
	assert.Equal(t, uint64(100), f.balance(t, f.researcher.Address()))

	// A terminal vault stays closed.
	_, err = f.deliver(0, send, f.stranger)
	assert.IsErr(t, errors.ErrUnauthorized, err)
	assert.Equal(t, uint64(50), f.balance(t, f.stranger.Address()))

	// Other wallets are not affected.
	f.mustDeliver(t, 0, &cash.SendMsg{Source: f.stranger.Address(), Destination: f.payer.Address(), Amount: 10}, f.stranger)
	assert.Equal(t, uint64(40), f.balance(t, f.stranger.Address()))
}

func TestDepositIntoFundedWallet(t *testing.T) {
	f := newFixture(t)
	assert.Nil(t, f.bank.IssueCoins(f.kv, f.stranger.Address(), 50))

	// Nothing is deposited for vulnerability 21 yet, so its wallet is not
	// known to the guard.
	f.mustDeliver(t, 0, &cash.SendMsg{Source: f.stranger.Address(), Destination: VaultAddress(21), Amount: 50}, f.stranger)

	deposit := &DepositMsg{VulnID: 21, Amount: 100, Researcher: f.researcher.Address()}
	assert.IsErr(t, errors.ErrInvalidState, f.check(0, deposit, f.payer))
	_, err := f.deliver(0, deposit, f.payer)
	assert.IsErr(t, errors.ErrInvalidState, err)
	assert.Equal(t, uint64(payerFunds), f.balance(t, f.payer.Address()))

	// The admin recovers the stray funds, after which the deposit succeeds.
	f.mustDeliver(t, 0, &PauseMsg{Paused: true}, f.admin)
	f.mustDeliver(t, 0, &EmergencyWithdrawMsg{VulnID: 21}, f.admin)
	assert.Equal(t, uint64(50), f.balance(t, f.admin.Address()))
	assert.Equal(t, uint64(0), f.balance(t, VaultAddress(21)))
	f.mustDeliver(t, 0, &PauseMsg{Paused: false}, f.admin)

	f.deposit(t, 21, 100)
	assert.Equal(t, uint64(100), f.balance(t, VaultAddress(21)))
	f.mustDeliver(t, 0, &ReleaseMsg{VulnID: 21}, f.registry)
	assert.Equal(t, uint64(0), f.balance(t, VaultAddress(21)))
	assert.Equal(t, StatusReleased, f.vault(t, 21).Status)
}

func TestVaultAddressIndex(t *testing.T) {
	f := newFixture(t)
	index := NewVaultAddressIndex()

	_, err := index.VulnID(f.kv, VaultAddress(5))
	assert.IsErr(t, errors.ErrNotFound, err)

	f.deposit(t, 5, 10)
	id, err := index.VulnID(f.kv, VaultAddress(5))
	assert.Nil(t, err)
	assert.Equal(t, uint64(5), id)

	assert.IsErr(t, errors.ErrUnauthorized, NewVaultGuard().AcceptDestination(f.kv, VaultAddress(5)))
	assert.Nil(t, NewVaultGuard().AcceptDestination(f.kv, f.researcher.Address()))
}
