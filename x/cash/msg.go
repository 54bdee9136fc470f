package cash

import (
	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
)

const maxMemoSize int = 128

// SendMsg moves funds between two wallets.
type SendMsg struct {
	Source      bounty.Address `json:"source"`
	Destination bounty.Address `json:"destination"`
	Amount      uint64         `json:"amount"`
	Memo        string         `json:"memo,omitempty"`
}

// Ensure we implement the Msg interface
var _ bounty.Msg = (*SendMsg)(nil)

// Path returns the routing path for this message
func (SendMsg) Path() string {
	return "cash/send"
}

// Validate makes sure that this is sensible
func (s *SendMsg) Validate() error {
	var errs error
	if s.Amount == 0 {
		errs = errors.AppendField(errs, "Amount", errors.ErrInvalidAmount)
	}
	errs = errors.AppendField(errs, "Source", s.Source.Validate())
	errs = errors.AppendField(errs, "Destination", s.Destination.Validate())
	if len(s.Memo) > maxMemoSize {
		errs = errors.Append(errs, errors.Field("Memo", errors.ErrInvalidInput, "too long"))
	}
	return errs
}
