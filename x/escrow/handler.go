package escrow

import (
	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/gconf"
	"github.com/iov-one/bounty/x"
	"github.com/iov-one/bounty/x/cash"
)

// RegisterRoutes will instantiate and register all handlers in this
// package. Administration is granted to the admin only.
func RegisterRoutes(r bounty.Registry, auth x.Authenticator, bank cash.Controller) {
	RegisterRoutesWithPolicy(r, auth, bank, AdminPolicy{})
}

// RegisterRoutesWithPolicy registers all handlers using given policy to
// authorize privileged operations.
func RegisterRoutesWithPolicy(r bounty.Registry, auth x.Authenticator, bank cash.Controller, policy Policy) {
	b := base{
		auth:   auth,
		policy: policy,
		ctrl:   NewController(bank),
	}
	r.Handle(&DepositMsg{}, DepositHandler{b})
	r.Handle(&ReleaseMsg{}, ReleaseHandler{b})
	r.Handle(&ApproveMsg{}, ApproveHandler{b})
	r.Handle(&RaiseDisputeMsg{}, RaiseDisputeHandler{b})
	r.Handle(&ResolveDisputeMsg{}, ResolveDisputeHandler{b})
	r.Handle(&EmergencyRefundMsg{}, EmergencyRefundHandler{b})
	r.Handle(&AddApproverMsg{}, AddApproverHandler{b})
	r.Handle(&RemoveApproverMsg{}, RemoveApproverHandler{b})
	r.Handle(&SetRegistryMsg{}, SetRegistryHandler{b})
	r.Handle(&SetThresholdMsg{}, SetThresholdHandler{b})
	r.Handle(&PauseMsg{}, PauseHandler{b})
	r.Handle(&EmergencyWithdrawMsg{}, EmergencyWithdrawHandler{b})
}

// RegisterQuery registers vaults as "/vaults", approvals as "/approvals"
// and the governance state as "/escrowstate".
func RegisterQuery(qr bounty.QueryRouter) {
	NewVaultBucket().Register("vaults", qr)
	NewApprovalBucket().Register("approvals", qr)
	qr.Register("/escrowstate", stateQuery{})
}

type stateQuery struct{}

func (stateQuery) Query(db bounty.ReadOnlyKVStore, mod string, data []byte) ([]bounty.Model, error) {
	if mod != bounty.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown query mod: %q", mod)
	}
	key := gconf.Key(stateKey)
	raw, err := db.Get(key)
	if err != nil || raw == nil {
		return nil, err
	}
	return []bounty.Model{bounty.Pair(key, raw)}, nil
}

// base groups what every handler of this package needs.
type base struct {
	auth   x.Authenticator
	policy Policy
	ctrl   Controller
}

func (b base) loadVault(db bounty.ReadOnlyKVStore, vulnID uint64) (*Vault, error) {
	return b.ctrl.vaults.GetVault(db, vulnID)
}

// signedOrMain returns given address if it signed the transaction, or the
// main signer when no address was given.
func (b base) signedOrMain(ctx bounty.Context, addr bounty.Address, who string) (bounty.Address, error) {
	if len(addr) == 0 {
		addr = x.MainSignerAddress(ctx, b.auth)
		if addr == nil {
			return nil, errors.Wrapf(errors.ErrUnauthorized, "%s signature required", who)
		}
		return addr, nil
	}
	if !b.auth.HasAddress(ctx, addr) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "%s signature missing", who)
	}
	return addr, nil
}

// payoutLocks returns the locks of a transaction that can move the funds
// of a vault to its researcher. Additional recipients are locked as well.
func (b base) payoutLocks(db bounty.ReadOnlyKVStore, vulnID uint64, recipients ...bounty.Address) ([]bounty.Lock, error) {
	locks := []bounty.Lock{
		bounty.ExclusiveLock(VaultLockKey(vulnID)),
		bounty.SharedLock(StateLockKey),
		bounty.ExclusiveLock(cash.LockKey(VaultAddress(vulnID))),
	}
	switch v, err := b.loadVault(db, vulnID); {
	case err == nil:
		locks = append(locks, bounty.ExclusiveLock(cash.LockKey(v.Researcher)))
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}
	for _, r := range recipients {
		if len(r) != 0 {
			locks = append(locks, bounty.ExclusiveLock(cash.LockKey(r)))
		}
	}
	return locks, nil
}

func adminLocks() []bounty.Lock {
	return []bounty.Lock{bounty.ExclusiveLock(StateLockKey)}
}

// DepositHandler creates vaults.
type DepositHandler struct {
	base
}

var _ bounty.Handler = DepositHandler{}
var _ bounty.Scoper = DepositHandler{}

// Scope returns no locks when the payer is implicit, because the main signer
// is known only after authentication. Such deposit is executed alone.
func (h DepositHandler) Scope(ctx bounty.Context, db bounty.ReadOnlyKVStore, tx bounty.Tx) ([]bounty.Lock, error) {
	var msg DepositMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if len(msg.Payer) == 0 {
		return nil, nil
	}
	return []bounty.Lock{
		bounty.ExclusiveLock(VaultLockKey(msg.VulnID)),
		bounty.ExclusiveLock(StateLockKey),
		bounty.ExclusiveLock(cash.LockKey(msg.Payer)),
		bounty.ExclusiveLock(cash.LockKey(VaultAddress(msg.VulnID))),
	}, nil
}

func (h DepositHandler) Check(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bounty.CheckResult{}, nil
}

func (h DepositHandler) Deliver(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.DeliverResult, error) {
	msg, payer, state, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	now, err := bounty.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	v, ev, err := h.ctrl.Deposit(db, now, msg, payer)
	if err != nil {
		return nil, err
	}
	state.TotalEscrowed += v.Amount
	if err := SaveState(db, state); err != nil {
		return nil, errors.Wrap(err, "cannot store state")
	}
	res := bounty.NewDeliverResult(ev)
	res.Data = VaultKey(v.VulnID)
	return res, nil
}

func (h DepositHandler) validate(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*DepositMsg, bounty.Address, *State, error) {
	var msg DepositMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	payer, err := h.signedOrMain(ctx, msg.Payer, "payer")
	if err != nil {
		return nil, nil, nil, err
	}
	state, err := LoadState(db)
	if err != nil {
		return nil, nil, nil, err
	}
	switch exists, err := h.ctrl.vaults.Has(db, VaultKey(msg.VulnID)); {
	case err != nil:
		return nil, nil, nil, err
	case exists:
		return nil, nil, nil, errors.Wrapf(ErrEscrowAlreadyExists, "vault %d", msg.VulnID)
	}
	switch held, err := h.ctrl.bank.Balance(db, VaultAddress(msg.VulnID)); {
	case err != nil:
		return nil, nil, nil, err
	case held != 0:
		return nil, nil, nil, errors.Wrapf(errors.ErrInvalidState, "wallet of vault %d already holds %d", msg.VulnID, held)
	}
	balance, err := h.ctrl.bank.Balance(db, payer)
	if err != nil {
		return nil, nil, nil, err
	}
	if balance < msg.Amount {
		return nil, nil, nil, errors.Wrapf(errors.ErrInsufficientAmount, "balance %d, want %d", balance, msg.Amount)
	}
	if state.TotalEscrowed+msg.Amount < state.TotalEscrowed {
		return nil, nil, nil, errors.Wrap(errors.ErrOverflow, "total escrowed")
	}
	return &msg, payer, state, nil
}

// ReleaseHandler pays out a bounty on request of the registry.
type ReleaseHandler struct {
	base
}

var _ bounty.Handler = ReleaseHandler{}
var _ bounty.Scoper = ReleaseHandler{}

func (h ReleaseHandler) Scope(ctx bounty.Context, db bounty.ReadOnlyKVStore, tx bounty.Tx) ([]bounty.Lock, error) {
	var msg ReleaseMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return h.payoutLocks(db, msg.VulnID)
}

func (h ReleaseHandler) Check(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bounty.CheckResult{}, nil
}

func (h ReleaseHandler) Deliver(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.DeliverResult, error) {
	v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	now, err := bounty.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	ev, err := h.ctrl.Disburse(db, now, v)
	if err != nil {
		return nil, err
	}
	return bounty.NewDeliverResult(ev), nil
}

func (h ReleaseHandler) validate(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*Vault, error) {
	var msg ReleaseMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	state, err := LoadState(db)
	if err != nil {
		return nil, err
	}
	if len(state.Registry) == 0 {
		return nil, errors.Wrap(ErrUnauthorizedRegistry, "registry not set")
	}
	if !h.auth.HasAddress(ctx, state.Registry) {
		return nil, errors.Wrap(ErrUnauthorizedRegistry, "registry signature missing")
	}
	v, err := h.loadVault(db, msg.VulnID)
	if err != nil {
		return nil, err
	}
	if v.Status != StatusDeposited {
		return nil, errors.Wrapf(ErrInvalidStatus, "vault is %s", v.Status)
	}
	if v.Disputed {
		return nil, errors.Wrapf(ErrDisputed, "vault %d", v.VulnID)
	}
	return v, nil
}

// ApproveHandler records approver votes and releases the bounty once the
// threshold is reached.
type ApproveHandler struct {
	base
}

var _ bounty.Handler = ApproveHandler{}
var _ bounty.Scoper = ApproveHandler{}

func (h ApproveHandler) Scope(ctx bounty.Context, db bounty.ReadOnlyKVStore, tx bounty.Tx) ([]bounty.Lock, error) {
	var msg ApproveMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return h.payoutLocks(db, msg.VulnID)
}

func (h ApproveHandler) Check(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bounty.CheckResult{}, nil
}

func (h ApproveHandler) Deliver(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.DeliverResult, error) {
	v, approver, state, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	now, err := bounty.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	events, err := h.ctrl.Approve(db, now, v, approver, state.ApprovalThreshold)
	if err != nil {
		return nil, err
	}
	return bounty.NewDeliverResult(events...), nil
}

func (h ApproveHandler) validate(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*Vault, bounty.Address, *State, error) {
	var msg ApproveMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	approver, err := h.signedOrMain(ctx, msg.Approver, "approver")
	if err != nil {
		return nil, nil, nil, err
	}
	state, err := LoadState(db)
	if err != nil {
		return nil, nil, nil, err
	}
	if !state.IsApprover(approver) {
		return nil, nil, nil, errors.Wrapf(ErrNotApprover, "%s", approver)
	}
	v, err := h.loadVault(db, msg.VulnID)
	if err != nil {
		return nil, nil, nil, err
	}
	if v.Status != StatusDeposited {
		return nil, nil, nil, errors.Wrapf(ErrInvalidStatus, "vault is %s", v.Status)
	}
	if v.Disputed {
		return nil, nil, nil, errors.Wrapf(ErrDisputed, "vault %d", v.VulnID)
	}
	switch ok, err := h.ctrl.approvals.HasApproved(db, v.VulnID, approver); {
	case err != nil:
		return nil, nil, nil, err
	case ok:
		return nil, nil, nil, errors.Wrapf(ErrAlreadyApproved, "%s", approver)
	}
	return v, approver, state, nil
}

// RaiseDisputeHandler freezes a vault.
type RaiseDisputeHandler struct {
	base
}

var _ bounty.Handler = RaiseDisputeHandler{}
var _ bounty.Scoper = RaiseDisputeHandler{}

func (h RaiseDisputeHandler) Scope(ctx bounty.Context, db bounty.ReadOnlyKVStore, tx bounty.Tx) ([]bounty.Lock, error) {
	var msg RaiseDisputeMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return []bounty.Lock{
		bounty.ExclusiveLock(VaultLockKey(msg.VulnID)),
		bounty.SharedLock(StateLockKey),
	}, nil
}

func (h RaiseDisputeHandler) Check(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bounty.CheckResult{}, nil
}

func (h RaiseDisputeHandler) Deliver(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.DeliverResult, error) {
	v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	v.Disputed = true
	if err := h.ctrl.vaults.Save(db, v); err != nil {
		return nil, errors.Wrap(err, "cannot store vault")
	}
	return &bounty.DeliverResult{}, nil
}

func (h RaiseDisputeHandler) validate(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*Vault, error) {
	var msg RaiseDisputeMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	approver, err := h.signedOrMain(ctx, msg.Approver, "approver")
	if err != nil {
		return nil, err
	}
	state, err := LoadState(db)
	if err != nil {
		return nil, err
	}
	if !state.IsApprover(approver) {
		return nil, errors.Wrapf(ErrNotApprover, "%s", approver)
	}
	v, err := h.loadVault(db, msg.VulnID)
	if err != nil {
		return nil, err
	}
	if v.Status != StatusDeposited {
		return nil, errors.Wrapf(ErrInvalidStatus, "vault is %s", v.Status)
	}
	if v.Disputed {
		return nil, errors.Wrapf(ErrAlreadyDisputed, "vault %d", v.VulnID)
	}
	return v, nil
}

// ResolveDisputeHandler ends a dispute by paying the researcher or by
// refunding the registry.
type ResolveDisputeHandler struct {
	base
}

var _ bounty.Handler = ResolveDisputeHandler{}
var _ bounty.Scoper = ResolveDisputeHandler{}

func (h ResolveDisputeHandler) Scope(ctx bounty.Context, db bounty.ReadOnlyKVStore, tx bounty.Tx) ([]bounty.Lock, error) {
	var msg ResolveDisputeMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	var registry bounty.Address
	switch state, err := LoadState(db); {
	case err == nil:
		registry = state.Registry
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}
	return h.payoutLocks(db, msg.VulnID, registry)
}

func (h ResolveDisputeHandler) Check(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bounty.CheckResult{}, nil
}

func (h ResolveDisputeHandler) Deliver(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.DeliverResult, error) {
	msg, v, state, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	now, err := bounty.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	var ev bounty.Event
	if msg.Approve {
		ev, err = h.ctrl.Disburse(db, now, v)
	} else {
		ev, err = h.ctrl.Refund(db, v, state.Registry)
	}
	if err != nil {
		return nil, err
	}
	resolved := bounty.NewEvent(EventDisputeResolved,
		"vulnId", v.VulnID,
		"approved", msg.Approve)
	return bounty.NewDeliverResult(ev, resolved), nil
}

func (h ResolveDisputeHandler) validate(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*ResolveDisputeMsg, *Vault, *State, error) {
	var msg ResolveDisputeMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	state, err := LoadState(db)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := h.policy.AuthorizeResolver(ctx, h.auth, state); err != nil {
		return nil, nil, nil, err
	}
	v, err := h.loadVault(db, msg.VulnID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !v.Disputed {
		return nil, nil, nil, errors.Wrapf(ErrNoActiveDispute, "vault %d", v.VulnID)
	}
	if !msg.Approve && len(state.Registry) == 0 {
		return nil, nil, nil, errors.Wrap(ErrRegistryNotSet, "no refund recipient")
	}
	return &msg, v, state, nil
}

// EmergencyRefundHandler returns the funds of a stale vault to the
// researcher. Anyone can call it.
type EmergencyRefundHandler struct {
	base
}

var _ bounty.Handler = EmergencyRefundHandler{}
var _ bounty.Scoper = EmergencyRefundHandler{}

func (h EmergencyRefundHandler) Scope(ctx bounty.Context, db bounty.ReadOnlyKVStore, tx bounty.Tx) ([]bounty.Lock, error) {
	var msg EmergencyRefundMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return h.payoutLocks(db, msg.VulnID)
}

func (h EmergencyRefundHandler) Check(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bounty.CheckResult{}, nil
}

func (h EmergencyRefundHandler) Deliver(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.DeliverResult, error) {
	v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	ev, err := h.ctrl.Refund(db, v, v.Researcher)
	if err != nil {
		return nil, err
	}
	return bounty.NewDeliverResult(ev), nil
}

func (h EmergencyRefundHandler) validate(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*Vault, error) {
	var msg EmergencyRefundMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	v, err := h.loadVault(db, msg.VulnID)
	if err != nil {
		return nil, err
	}
	if v.Status != StatusDeposited {
		return nil, errors.Wrapf(ErrInvalidStatus, "vault is %s", v.Status)
	}
	now, err := bounty.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	if deadline := v.DepositTime.Add(EmergencyRefundTimeout); bounty.AsUnixTime(now) < deadline {
		return nil, errors.Wrapf(ErrTimeoutNotReached, "refund possible at %s", deadline)
	}
	return v, nil
}

// AddApproverHandler extends the approver roster.
type AddApproverHandler struct {
	base
}

var _ bounty.Handler = AddApproverHandler{}
var _ bounty.Scoper = AddApproverHandler{}

func (h AddApproverHandler) Scope(bounty.Context, bounty.ReadOnlyKVStore, bounty.Tx) ([]bounty.Lock, error) {
	return adminLocks(), nil
}

func (h AddApproverHandler) Check(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bounty.CheckResult{}, nil
}

func (h AddApproverHandler) Deliver(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.DeliverResult, error) {
	msg, state, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	state.Approvers = append(state.Approvers, msg.Approver)
	if err := SaveState(db, state); err != nil {
		return nil, errors.Wrap(err, "cannot store state")
	}
	return bounty.NewDeliverResult(bounty.NewEvent(EventApproverAdded, "approver", msg.Approver)), nil
}

func (h AddApproverHandler) validate(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*AddApproverMsg, *State, error) {
	var msg AddApproverMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	state, err := LoadState(db)
	if err != nil {
		return nil, nil, err
	}
	if err := h.policy.AuthorizeAdmin(ctx, h.auth, state); err != nil {
		return nil, nil, err
	}
	if state.IsApprover(msg.Approver) {
		return nil, nil, errors.Wrapf(ErrAlreadyApprover, "%s", msg.Approver)
	}
	return &msg, state, nil
}

// RemoveApproverHandler shrinks the approver roster.
type RemoveApproverHandler struct {
	base
}

var _ bounty.Handler = RemoveApproverHandler{}
var _ bounty.Scoper = RemoveApproverHandler{}

func (h RemoveApproverHandler) Scope(bounty.Context, bounty.ReadOnlyKVStore, bounty.Tx) ([]bounty.Lock, error) {
	return adminLocks(), nil
}

func (h RemoveApproverHandler) Check(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bounty.CheckResult{}, nil
}

func (h RemoveApproverHandler) Deliver(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.DeliverResult, error) {
	msg, state, idx, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	approvers := make([]bounty.Address, 0, len(state.Approvers)-1)
	approvers = append(approvers, state.Approvers[:idx]...)
	state.Approvers = append(approvers, state.Approvers[idx+1:]...)
	if err := SaveState(db, state); err != nil {
		return nil, errors.Wrap(err, "cannot store state")
	}
	return bounty.NewDeliverResult(bounty.NewEvent(EventApproverRemoved, "approver", msg.Approver)), nil
}

func (h RemoveApproverHandler) validate(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*RemoveApproverMsg, *State, int, error) {
	var msg RemoveApproverMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, nil, 0, errors.Wrap(err, "load msg")
	}
	state, err := LoadState(db)
	if err != nil {
		return nil, nil, 0, err
	}
	if err := h.policy.AuthorizeAdmin(ctx, h.auth, state); err != nil {
		return nil, nil, 0, err
	}
	idx := state.approverIndex(msg.Approver)
	if idx < 0 {
		return nil, nil, 0, errors.Wrapf(ErrNotApprover, "%s", msg.Approver)
	}
	if left := len(state.Approvers) - 1; left < int(state.ApprovalThreshold) {
		return nil, nil, 0, errors.Wrapf(errors.ErrInvalidState, "%d approvers cannot reach threshold %d", left, state.ApprovalThreshold)
	}
	return &msg, state, idx, nil
}

// SetRegistryHandler replaces the registry identity.
type SetRegistryHandler struct {
	base
}

var _ bounty.Handler = SetRegistryHandler{}
var _ bounty.Scoper = SetRegistryHandler{}

func (h SetRegistryHandler) Scope(bounty.Context, bounty.ReadOnlyKVStore, bounty.Tx) ([]bounty.Lock, error) {
	return adminLocks(), nil
}

func (h SetRegistryHandler) Check(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bounty.CheckResult{}, nil
}

func (h SetRegistryHandler) Deliver(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.DeliverResult, error) {
	msg, state, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	state.Registry = msg.Registry
	if err := SaveState(db, state); err != nil {
		return nil, errors.Wrap(err, "cannot store state")
	}
	return &bounty.DeliverResult{}, nil
}

func (h SetRegistryHandler) validate(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*SetRegistryMsg, *State, error) {
	var msg SetRegistryMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	state, err := LoadState(db)
	if err != nil {
		return nil, nil, err
	}
	if err := h.policy.AuthorizeAdmin(ctx, h.auth, state); err != nil {
		return nil, nil, err
	}
	return &msg, state, nil
}

// SetThresholdHandler changes the number of approvals required to release
// a vault.
type SetThresholdHandler struct {
	base
}

var _ bounty.Handler = SetThresholdHandler{}
var _ bounty.Scoper = SetThresholdHandler{}

func (h SetThresholdHandler) Scope(bounty.Context, bounty.ReadOnlyKVStore, bounty.Tx) ([]bounty.Lock, error) {
	return adminLocks(), nil
}

func (h SetThresholdHandler) Check(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bounty.CheckResult{}, nil
}

func (h SetThresholdHandler) Deliver(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.DeliverResult, error) {
	msg, state, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	state.ApprovalThreshold = msg.Threshold
	if err := SaveState(db, state); err != nil {
		return nil, errors.Wrap(err, "cannot store state")
	}
	return &bounty.DeliverResult{}, nil
}

func (h SetThresholdHandler) validate(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*SetThresholdMsg, *State, error) {
	var msg SetThresholdMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	state, err := LoadState(db)
	if err != nil {
		return nil, nil, err
	}
	if err := h.policy.AuthorizeAdmin(ctx, h.auth, state); err != nil {
		return nil, nil, err
	}
	if n := len(state.Approvers); int(msg.Threshold) > n {
		return nil, nil, errors.Wrapf(errors.ErrInvalidState, "threshold %d greater than %d approvers", msg.Threshold, n)
	}
	return &msg, state, nil
}

// PauseHandler toggles the pause switch.
type PauseHandler struct {
	base
}

var _ bounty.Handler = PauseHandler{}
var _ bounty.Scoper = PauseHandler{}

func (h PauseHandler) Scope(bounty.Context, bounty.ReadOnlyKVStore, bounty.Tx) ([]bounty.Lock, error) {
	return adminLocks(), nil
}

func (h PauseHandler) Check(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bounty.CheckResult{}, nil
}

func (h PauseHandler) Deliver(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.DeliverResult, error) {
	msg, state, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	state.Paused = msg.Paused
	if err := SaveState(db, state); err != nil {
		return nil, errors.Wrap(err, "cannot store state")
	}
	return &bounty.DeliverResult{}, nil
}

func (h PauseHandler) validate(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*PauseMsg, *State, error) {
	var msg PauseMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	state, err := LoadState(db)
	if err != nil {
		return nil, nil, err
	}
	if err := h.policy.AuthorizeAdmin(ctx, h.auth, state); err != nil {
		return nil, nil, err
	}
	return &msg, state, nil
}

// EmergencyWithdrawHandler sweeps the funds of a vault to the admin while
// the escrow is paused.
type EmergencyWithdrawHandler struct {
	base
}

var _ bounty.Handler = EmergencyWithdrawHandler{}
var _ bounty.Scoper = EmergencyWithdrawHandler{}

func (h EmergencyWithdrawHandler) Scope(ctx bounty.Context, db bounty.ReadOnlyKVStore, tx bounty.Tx) ([]bounty.Lock, error) {
	var msg EmergencyWithdrawMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	var admin bounty.Address
	switch state, err := LoadState(db); {
	case err == nil:
		admin = state.Admin
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}
	return h.payoutLocks(db, msg.VulnID, admin)
}

func (h EmergencyWithdrawHandler) Check(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &bounty.CheckResult{}, nil
}

func (h EmergencyWithdrawHandler) Deliver(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*bounty.DeliverResult, error) {
	msg, v, state, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	amount, err := h.ctrl.Sweep(db, msg.VulnID, v, state.Admin)
	if err != nil {
		return nil, err
	}
	bounty.GetLogger(ctx).Info("emergency withdraw", "vulnId", msg.VulnID, "amount", amount)
	return &bounty.DeliverResult{}, nil
}

// validate returns a nil vault when nothing was deposited for the
// vulnerability but its wallet received funds anyway.
func (h EmergencyWithdrawHandler) validate(ctx bounty.Context, db bounty.KVStore, tx bounty.Tx) (*EmergencyWithdrawMsg, *Vault, *State, error) {
	var msg EmergencyWithdrawMsg
	if err := bounty.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	state, err := LoadState(db)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := h.policy.AuthorizeAdmin(ctx, h.auth, state); err != nil {
		return nil, nil, nil, err
	}
	if !state.Paused {
		return nil, nil, nil, errors.Wrap(ErrNotPaused, "emergency withdraw")
	}
	balance, err := h.ctrl.bank.Balance(db, VaultAddress(msg.VulnID))
	if err != nil {
		return nil, nil, nil, err
	}
	v, err := h.loadVault(db, msg.VulnID)
	switch {
	case err == nil:
	case errors.ErrNotFound.Is(err) && balance != 0:
		v = nil
	default:
		return nil, nil, nil, err
	}
	if balance == 0 {
		return nil, nil, nil, errors.Wrapf(errors.ErrEmpty, "vault %d holds no funds", msg.VulnID)
	}
	return &msg, v, state, nil
}
