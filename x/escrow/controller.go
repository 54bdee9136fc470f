package escrow

import (
	"fmt"
	"time"

	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/x/cash"
)

// EmergencyRefundTimeout is how long after the deposit anyone can return
// the funds of a vault to the researcher.
const EmergencyRefundTimeout = 180 * 24 * time.Hour

// Event kinds emitted by this extension.
const (
	EventDeposited       = "Deposited"
	EventReleased        = "Released"
	EventRefunded        = "Refunded"
	EventDisputeResolved = "DisputeResolved"
	EventApproverAdded   = "ApproverAdded"
	EventApproverRemoved = "ApproverRemoved"
)

// StateLockKey is the record lock of the governance state.
const StateLockKey = "escrow/state"

// VaultLockKey returns the record lock of a vault. The vault lock also
// protects all approvals of that vault.
func VaultLockKey(vulnID uint64) string {
	return fmt.Sprintf("escrow/vault/%016x", vulnID)
}

// Controller performs the state transitions shared by the handlers. All
// methods expect preconditions to be checked by the caller.
type Controller struct {
	bank      cash.Controller
	vaults    VaultBucket
	approvals ApprovalBucket
	addrs     VaultAddressIndex
}

// NewController returns a controller moving funds with given bank.
func NewController(bank cash.Controller) Controller {
	return Controller{
		bank:      bank,
		vaults:    NewVaultBucket(),
		approvals: NewApprovalBucket(),
		addrs:     NewVaultAddressIndex(),
	}
}

// Deposit creates a vault and moves the funds from the payer into it.
func (c Controller) Deposit(db bounty.KVStore, now time.Time, msg *DepositMsg, payer bounty.Address) (*Vault, bounty.Event, error) {
	v := &Vault{
		VulnID:      msg.VulnID,
		Researcher:  msg.Researcher,
		Payer:       payer,
		Amount:      msg.Amount,
		DepositTime: bounty.AsUnixTime(now),
		Status:      StatusDeposited,
		Address:     VaultAddress(msg.VulnID),
	}
	if err := c.vaults.Save(db, v); err != nil {
		return nil, bounty.Event{}, errors.Wrap(err, "cannot store vault")
	}
	if err := c.addrs.Add(db, v); err != nil {
		return nil, bounty.Event{}, errors.Wrap(err, "cannot index vault")
	}
	if err := c.bank.MoveCoins(db, payer, v.Address, v.Amount); err != nil {
		return nil, bounty.Event{}, errors.Wrap(err, "deposit")
	}
	ev := bounty.NewEvent(EventDeposited,
		"vulnId", v.VulnID,
		"researcher", v.Researcher,
		"amount", v.Amount)
	return v, ev, nil
}

// Disburse pays the bounty to the researcher and marks the vault
// released.
func (c Controller) Disburse(db bounty.KVStore, now time.Time, v *Vault) (bounty.Event, error) {
	v.Status = StatusReleased
	v.ReleaseTime = bounty.AsUnixTime(now)
	v.Disputed = false
	if err := c.bank.MoveCoins(db, v.Address, v.Researcher, v.Amount); err != nil {
		return bounty.Event{}, errors.Wrap(err, "release")
	}
	if err := c.vaults.Save(db, v); err != nil {
		return bounty.Event{}, errors.Wrap(err, "cannot store vault")
	}
	return bounty.NewEvent(EventReleased,
		"vulnId", v.VulnID,
		"researcher", v.Researcher,
		"amount", v.Amount), nil
}

// Refund returns the bounty to given recipient and marks the vault
// refunded.
func (c Controller) Refund(db bounty.KVStore, v *Vault, recipient bounty.Address) (bounty.Event, error) {
	v.Status = StatusRefunded
	v.ReleaseTime = 0
	v.Disputed = false
	if err := c.bank.MoveCoins(db, v.Address, recipient, v.Amount); err != nil {
		return bounty.Event{}, errors.Wrap(err, "refund")
	}
	if err := c.vaults.Save(db, v); err != nil {
		return bounty.Event{}, errors.Wrap(err, "cannot store vault")
	}
	return bounty.NewEvent(EventRefunded,
		"vulnId", v.VulnID,
		"researcher", v.Researcher,
		"recipient", recipient,
		"amount", v.Amount), nil
}

// Approve records the vote and increments the approval counter. The vault
// is released when the threshold is reached, in which case the Released
// event is returned.
func (c Controller) Approve(db bounty.KVStore, now time.Time, v *Vault, approver bounty.Address, threshold uint32) ([]bounty.Event, error) {
	a := &Approval{
		VulnID:    v.VulnID,
		Approver:  approver,
		Timestamp: bounty.AsUnixTime(now),
	}
	if err := c.approvals.Put(db, ApprovalKey(v.VulnID, approver), a); err != nil {
		return nil, errors.Wrap(err, "cannot store approval")
	}
	v.ApprovalCount++
	if v.ApprovalCount < threshold {
		if err := c.vaults.Save(db, v); err != nil {
			return nil, errors.Wrap(err, "cannot store vault")
		}
		return nil, nil
	}
	ev, err := c.Disburse(db, now, v)
	if err != nil {
		return nil, err
	}
	return []bounty.Event{ev}, nil
}

// Sweep moves whatever the wallet of a vault holds to given recipient. A
// deposited vault becomes refunded so that it never claims funds it does not
// hold. Funds sent to the wallet of a vault that was never created are swept
// as well, in which case v is nil.
func (c Controller) Sweep(db bounty.KVStore, vulnID uint64, v *Vault, recipient bounty.Address) (uint64, error) {
	wallet := VaultAddress(vulnID)
	balance, err := c.bank.Balance(db, wallet)
	if err != nil {
		return 0, err
	}
	if balance == 0 {
		return 0, errors.Wrapf(errors.ErrEmpty, "vault %d holds no funds", vulnID)
	}
	if err := c.bank.MoveCoins(db, wallet, recipient, balance); err != nil {
		return 0, errors.Wrap(err, "withdraw")
	}
	if v != nil && v.Status == StatusDeposited {
		v.Status = StatusRefunded
		v.Disputed = false
		if err := c.vaults.Save(db, v); err != nil {
			return 0, errors.Wrap(err, "cannot store vault")
		}
	}
	return balance, nil
}
