package escrow

import (
	"encoding/binary"
	"fmt"

	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/gconf"
	"github.com/iov-one/bounty/orm"
)

// Status is the lifecycle stage of a vault. Deposited is the only
// non-terminal status.
type Status int32

const (
	StatusDeposited Status = 1
	StatusReleased  Status = 2
	StatusRefunded  Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusDeposited:
		return "Deposited"
	case StatusReleased:
		return "Released"
	case StatusRefunded:
		return "Refunded"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// Validate returns an error if the status is not one of the known values.
func (s Status) Validate() error {
	switch s {
	case StatusDeposited, StatusReleased, StatusRefunded:
		return nil
	}
	return errors.Wrapf(errors.ErrInvalidState, "unknown status %d", int32(s))
}

// Vault holds the bounty deposited for a single vulnerability. The funds
// are kept in the cash wallet at Address.
type Vault struct {
	VulnID        uint64          `json:"vuln_id"`
	Researcher    bounty.Address  `json:"researcher"`
	Payer         bounty.Address  `json:"payer"`
	Amount        uint64          `json:"amount"`
	DepositTime   bounty.UnixTime `json:"deposit_time"`
	ReleaseTime   bounty.UnixTime `json:"release_time"`
	Status        Status          `json:"status"`
	ApprovalCount uint32          `json:"approval_count"`
	Disputed      bool            `json:"disputed"`
	Address       bounty.Address  `json:"address"`
}

var _ orm.Model = (*Vault)(nil)

// Validate ensures the vault is consistent.
func (v *Vault) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Researcher", v.Researcher.Validate())
	errs = errors.AppendField(errs, "Payer", v.Payer.Validate())
	if v.Amount == 0 {
		errs = errors.AppendField(errs, "Amount", ErrInvalidAmount)
	}
	errs = errors.AppendField(errs, "DepositTime", v.DepositTime.Validate())
	errs = errors.AppendField(errs, "ReleaseTime", v.ReleaseTime.Validate())
	errs = errors.AppendField(errs, "Status", v.Status.Validate())
	if v.Disputed && v.Status != StatusDeposited {
		errs = errors.Append(errs, errors.Field("Disputed", errors.ErrInvalidState, "only a deposited vault can be disputed"))
	}
	if v.Status == StatusReleased && v.ReleaseTime.IsZero() {
		errs = errors.Append(errs, errors.Field("ReleaseTime", errors.ErrEmpty, "required when released"))
	}
	if !v.Address.Equals(VaultAddress(v.VulnID)) {
		errs = errors.Append(errs, errors.Field("Address", errors.ErrInvalidState, "not derived from the vulnerability id"))
	}
	return errs
}

func (v *Vault) Copy() orm.Model {
	return &Vault{
		VulnID:        v.VulnID,
		Researcher:    v.Researcher.Clone(),
		Payer:         v.Payer.Clone(),
		Amount:        v.Amount,
		DepositTime:   v.DepositTime,
		ReleaseTime:   v.ReleaseTime,
		Status:        v.Status,
		ApprovalCount: v.ApprovalCount,
		Disputed:      v.Disputed,
		Address:       v.Address.Clone(),
	}
}

// Approval is the vote of a single approver for releasing a vault.
type Approval struct {
	VulnID    uint64          `json:"vuln_id"`
	Approver  bounty.Address  `json:"approver"`
	Timestamp bounty.UnixTime `json:"timestamp"`
}

var _ orm.Model = (*Approval)(nil)

func (a *Approval) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Approver", a.Approver.Validate())
	errs = errors.AppendField(errs, "Timestamp", a.Timestamp.Validate())
	return errs
}

func (a *Approval) Copy() orm.Model {
	return &Approval{
		VulnID:    a.VulnID,
		Approver:  a.Approver.Clone(),
		Timestamp: a.Timestamp,
	}
}

// State is the governance configuration of the escrow extension.
type State struct {
	Admin             bounty.Address   `json:"admin"`
	Registry          bounty.Address   `json:"registry"`
	Approvers         []bounty.Address `json:"approvers"`
	ApprovalThreshold uint32           `json:"approval_threshold"`
	Paused            bool             `json:"paused"`
	TotalEscrowed     uint64           `json:"total_escrowed"`
}

var _ gconf.Configuration = (*State)(nil)

// Validate ensures the governance state is consistent.
func (s *State) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Admin", s.Admin.Validate())
	if len(s.Registry) != 0 {
		errs = errors.AppendField(errs, "Registry", s.Registry.Validate())
	}
	for i, a := range s.Approvers {
		field := fmt.Sprintf("Approvers.%d", i)
		errs = errors.AppendField(errs, field, a.Validate())
		for _, b := range s.Approvers[:i] {
			if a.Equals(b) {
				errs = errors.Append(errs, errors.Field(field, errors.ErrDuplicate, "approver %s", a))
			}
		}
	}
	if s.ApprovalThreshold == 0 {
		errs = errors.Append(errs, errors.Field("ApprovalThreshold", errors.ErrInvalidInput, "must be at least 1"))
	} else if n := len(s.Approvers); n > 0 && int(s.ApprovalThreshold) > n {
		errs = errors.Append(errs, errors.Field("ApprovalThreshold", errors.ErrInvalidState, "greater than %d approvers", n))
	}
	return errs
}

// IsApprover returns true if given address is on the approver roster.
func (s *State) IsApprover(addr bounty.Address) bool {
	return s.approverIndex(addr) >= 0
}

func (s *State) approverIndex(addr bounty.Address) int {
	for i, a := range s.Approvers {
		if a.Equals(addr) {
			return i
		}
	}
	return -1
}

const (
	// stateKey is the gconf package name of the governance state.
	stateKey = "escrow"

	vaultBucketName    = "vault"
	approvalBucketName = "apprv"
	vaultAddrIndexName = "vaddr"
)

// LoadState returns the current governance state.
func LoadState(db gconf.ReadStore) (*State, error) {
	var s State
	if err := gconf.Load(db, stateKey, &s); err != nil {
		return nil, errors.Wrap(err, "escrow state")
	}
	return &s, nil
}

// SaveState validates and persists the governance state.
func SaveState(db gconf.Store, s *State) error {
	return gconf.Save(db, stateKey, s)
}

// VaultKey returns the primary key of the vault for given vulnerability.
func VaultKey(vulnID uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, vulnID)
	return key
}

// ApprovalKey returns the primary key of the approval given by approver for
// a vulnerability. All approvals of a vulnerability share the VaultKey
// prefix.
func ApprovalKey(vulnID uint64, approver bounty.Address) []byte {
	return append(VaultKey(vulnID), approver...)
}

// VaultCondition returns the condition that owns the funds of a vault.
func VaultCondition(vulnID uint64) bounty.Condition {
	return bounty.NewCondition("escrow", "vault", VaultKey(vulnID))
}

// VaultAddress returns the address of the wallet that holds the funds of a
// vault.
func VaultAddress(vulnID uint64) bounty.Address {
	return VaultCondition(vulnID).Address()
}

// VaultBucket stores vaults by their vulnerability id.
type VaultBucket struct {
	orm.ModelBucket
}

// NewVaultBucket returns a bucket for storing vaults.
func NewVaultBucket() VaultBucket {
	return VaultBucket{
		ModelBucket: orm.NewModelBucket(vaultBucketName, &Vault{}),
	}
}

// GetVault loads the vault of given vulnerability. ErrNotFound is returned
// if nothing was deposited for it.
func (b VaultBucket) GetVault(db bounty.ReadOnlyKVStore, vulnID uint64) (*Vault, error) {
	var v Vault
	if err := b.One(db, VaultKey(vulnID), &v); err != nil {
		return nil, errors.Wrapf(err, "vault %d", vulnID)
	}
	return &v, nil
}

// Save persists given vault.
func (b VaultBucket) Save(db bounty.KVStore, v *Vault) error {
	return b.Put(db, VaultKey(v.VulnID), v)
}

// ApprovalBucket stores approvals by vulnerability id and approver.
type ApprovalBucket struct {
	orm.ModelBucket
}

// NewApprovalBucket returns a bucket for storing approvals.
func NewApprovalBucket() ApprovalBucket {
	return ApprovalBucket{
		ModelBucket: orm.NewModelBucket(approvalBucketName, &Approval{}),
	}
}

// HasApproved returns true if the approver already voted for given
// vulnerability.
func (b ApprovalBucket) HasApproved(db bounty.ReadOnlyKVStore, vulnID uint64, approver bounty.Address) (bool, error) {
	return b.Has(db, ApprovalKey(vulnID, approver))
}

// ByVuln returns all approvals given for a vulnerability, ordered by the
// approver address.
func (b ApprovalBucket) ByVuln(db bounty.ReadOnlyKVStore, vulnID uint64) ([]*Approval, error) {
	var res []*Approval
	if _, err := b.ByPrefix(db, VaultKey(vulnID), &res); err != nil {
		return nil, err
	}
	return res, nil
}

// VaultAddressIndex maps the wallet address of every vault ever created to
// its vulnerability id.
type VaultAddressIndex struct {
	orm.Bucket
}

// NewVaultAddressIndex returns the index of vault wallet addresses.
func NewVaultAddressIndex() VaultAddressIndex {
	return VaultAddressIndex{Bucket: orm.NewBucket(vaultAddrIndexName)}
}

// Add records the wallet address of given vault.
func (i VaultAddressIndex) Add(db bounty.KVStore, v *Vault) error {
	return i.Set(db, v.Address, VaultKey(v.VulnID))
}

// VulnID returns the vulnerability id of the vault owning given wallet.
// ErrNotFound is returned if the address does not belong to any vault.
func (i VaultAddressIndex) VulnID(db bounty.ReadOnlyKVStore, addr bounty.Address) (uint64, error) {
	raw, err := i.Get(db, addr)
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, errors.Wrapf(errors.ErrNotFound, "address %s", addr)
	}
	return binary.BigEndian.Uint64(raw), nil
}
