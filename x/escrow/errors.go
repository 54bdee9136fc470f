package escrow

import (
	"github.com/iov-one/bounty/errors"
)

// x/escrow reserves 1500 ~ 1520.
var (
	// ErrInvalidAmount is returned when a deposit is not positive.
	ErrInvalidAmount = errors.ErrInvalidAmount

	ErrEscrowAlreadyExists  = errors.Register(1500, "escrow already exists")
	ErrInvalidStatus        = errors.Register(1501, "invalid escrow status")
	ErrDisputed             = errors.Register(1502, "escrow is disputed")
	ErrUnauthorizedRegistry = errors.Register(1503, "unauthorized registry")
	ErrNotApprover          = errors.Register(1504, "not an approver")
	ErrAlreadyApproved      = errors.Register(1505, "already approved")
	ErrAlreadyDisputed      = errors.Register(1506, "already disputed")
	ErrNoActiveDispute      = errors.Register(1507, "no active dispute")
	ErrTimeoutNotReached    = errors.Register(1508, "timeout not reached")
	ErrNotPaused            = errors.Register(1509, "not paused")
	ErrAlreadyApprover      = errors.Register(1510, "already an approver")
	ErrRegistryNotSet       = errors.Register(1511, "registry not set")
)

// IsAuthorizationErr returns true if given error is caused by the caller not
// being allowed to perform the operation.
func IsAuthorizationErr(err error) bool {
	return ErrUnauthorizedRegistry.Is(err) ||
		ErrNotApprover.Is(err) ||
		errors.ErrUnauthorized.Is(err)
}
