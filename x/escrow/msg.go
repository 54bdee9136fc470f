package escrow

import (
	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
)

const (
	pathDeposit           = "escrow/deposit"
	pathRelease           = "escrow/release"
	pathApprove           = "escrow/approve"
	pathRaiseDispute      = "escrow/raise_dispute"
	pathResolveDispute    = "escrow/resolve_dispute"
	pathEmergencyRefund   = "escrow/emergency_refund"
	pathAddApprover       = "escrow/add_approver"
	pathRemoveApprover    = "escrow/remove_approver"
	pathSetRegistry       = "escrow/set_registry"
	pathSetThreshold      = "escrow/set_threshold"
	pathPause             = "escrow/pause"
	pathEmergencyWithdraw = "escrow/emergency_withdraw"
)

var (
	_ bounty.Msg = (*DepositMsg)(nil)
	_ bounty.Msg = (*ReleaseMsg)(nil)
	_ bounty.Msg = (*ApproveMsg)(nil)
	_ bounty.Msg = (*RaiseDisputeMsg)(nil)
	_ bounty.Msg = (*ResolveDisputeMsg)(nil)
	_ bounty.Msg = (*EmergencyRefundMsg)(nil)
	_ bounty.Msg = (*AddApproverMsg)(nil)
	_ bounty.Msg = (*RemoveApproverMsg)(nil)
	_ bounty.Msg = (*SetRegistryMsg)(nil)
	_ bounty.Msg = (*SetThresholdMsg)(nil)
	_ bounty.Msg = (*PauseMsg)(nil)
	_ bounty.Msg = (*EmergencyWithdrawMsg)(nil)
)

// DepositMsg funds a new vault. When Payer is not set, the main signer pays.
type DepositMsg struct {
	VulnID     uint64         `json:"vuln_id"`
	Amount     uint64         `json:"amount"`
	Researcher bounty.Address `json:"researcher"`
	Payer      bounty.Address `json:"payer,omitempty"`
}

func (DepositMsg) Path() string {
	return pathDeposit
}

func (m *DepositMsg) Validate() error {
	var errs error
	if m.Amount == 0 {
		errs = errors.Append(errs, errors.Field("Amount", ErrInvalidAmount, "must be positive"))
	}
	errs = errors.AppendField(errs, "Researcher", m.Researcher.Validate())
	if len(m.Payer) != 0 {
		errs = errors.AppendField(errs, "Payer", m.Payer.Validate())
	}
	return errs
}

// ReleaseMsg is sent by the registry to pay out the bounty.
type ReleaseMsg struct {
	VulnID uint64 `json:"vuln_id"`
}

func (ReleaseMsg) Path() string {
	return pathRelease
}

func (m *ReleaseMsg) Validate() error {
	return nil
}

// ApproveMsg is a vote of an approver for releasing the bounty. When
// Approver is not set, the main signer votes.
type ApproveMsg struct {
	VulnID   uint64         `json:"vuln_id"`
	Approver bounty.Address `json:"approver,omitempty"`
}

func (ApproveMsg) Path() string {
	return pathApprove
}

func (m *ApproveMsg) Validate() error {
	return validateOptionalAddress("Approver", m.Approver)
}

// RaiseDisputeMsg freezes a vault until the dispute is resolved. When
// Approver is not set, the main signer raises the dispute.
type RaiseDisputeMsg struct {
	VulnID   uint64         `json:"vuln_id"`
	Approver bounty.Address `json:"approver,omitempty"`
}

func (RaiseDisputeMsg) Path() string {
	return pathRaiseDispute
}

func (m *RaiseDisputeMsg) Validate() error {
	return validateOptionalAddress("Approver", m.Approver)
}

// ResolveDisputeMsg ends a dispute either by paying the researcher
// (Approve) or by refunding the registry.
type ResolveDisputeMsg struct {
	VulnID  uint64 `json:"vuln_id"`
	Approve bool   `json:"approve"`
}

func (ResolveDisputeMsg) Path() string {
	return pathResolveDispute
}

func (m *ResolveDisputeMsg) Validate() error {
	return nil
}

// EmergencyRefundMsg returns the funds of a stale vault to the researcher.
type EmergencyRefundMsg struct {
	VulnID uint64 `json:"vuln_id"`
}

func (EmergencyRefundMsg) Path() string {
	return pathEmergencyRefund
}

func (m *EmergencyRefundMsg) Validate() error {
	return nil
}

// AddApproverMsg appends an identity to the approver roster.
type AddApproverMsg struct {
	Approver bounty.Address `json:"approver"`
}

func (AddApproverMsg) Path() string {
	return pathAddApprover
}

func (m *AddApproverMsg) Validate() error {
	return errors.Field("Approver", m.Approver.Validate(), "")
}

// RemoveApproverMsg removes an identity from the approver roster.
type RemoveApproverMsg struct {
	Approver bounty.Address `json:"approver"`
}

func (RemoveApproverMsg) Path() string {
	return pathRemoveApprover
}

func (m *RemoveApproverMsg) Validate() error {
	return errors.Field("Approver", m.Approver.Validate(), "")
}

// SetRegistryMsg replaces the registry identity. An empty Registry unsets
// it.
type SetRegistryMsg struct {
	Registry bounty.Address `json:"registry,omitempty"`
}

func (SetRegistryMsg) Path() string {
	return pathSetRegistry
}

func (m *SetRegistryMsg) Validate() error {
	return validateOptionalAddress("Registry", m.Registry)
}

// SetThresholdMsg changes how many approvals release a vault.
type SetThresholdMsg struct {
	Threshold uint32 `json:"threshold"`
}

func (SetThresholdMsg) Path() string {
	return pathSetThreshold
}

func (m *SetThresholdMsg) Validate() error {
	if m.Threshold == 0 {
		return errors.Field("Threshold", errors.ErrInvalidInput, "must be at least 1")
	}
	return nil
}

// PauseMsg toggles the pause switch.
type PauseMsg struct {
	Paused bool `json:"paused"`
}

func (PauseMsg) Path() string {
	return pathPause
}

func (m *PauseMsg) Validate() error {
	return nil
}

// EmergencyWithdrawMsg sweeps the funds of a vault to the admin. Allowed
// only while paused.
type EmergencyWithdrawMsg struct {
	VulnID uint64 `json:"vuln_id"`
}

func (EmergencyWithdrawMsg) Path() string {
	return pathEmergencyWithdraw
}

func (m *EmergencyWithdrawMsg) Validate() error {
	return nil
}

func validateOptionalAddress(field string, a bounty.Address) error {
	if len(a) == 0 {
		return nil
	}
	return errors.Field(field, a.Validate(), "")
}
