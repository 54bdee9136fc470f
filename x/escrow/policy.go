package escrow

import (
	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/x"
)

// Policy decides who may run privileged operations. Replace AdminPolicy to
// require for example a quorum of signers instead of a single admin.
type Policy interface {
	// AuthorizeAdmin returns an error unless the caller may change the
	// governance state or withdraw funds in an emergency.
	AuthorizeAdmin(ctx bounty.Context, auth x.Authenticator, s *State) error

	// AuthorizeResolver returns an error unless the caller may resolve a
	// dispute.
	AuthorizeResolver(ctx bounty.Context, auth x.Authenticator, s *State) error
}

// AdminPolicy grants administration to the admin only. Disputes can be
// resolved by the registry or the admin.
type AdminPolicy struct{}

var _ Policy = AdminPolicy{}

func (AdminPolicy) AuthorizeAdmin(ctx bounty.Context, auth x.Authenticator, s *State) error {
	if !auth.HasAddress(ctx, s.Admin) {
		return errors.Wrap(errors.ErrUnauthorized, "admin signature required")
	}
	return nil
}

func (AdminPolicy) AuthorizeResolver(ctx bounty.Context, auth x.Authenticator, s *State) error {
	if len(s.Registry) != 0 && auth.HasAddress(ctx, s.Registry) {
		return nil
	}
	if auth.HasAddress(ctx, s.Admin) {
		return nil
	}
	return errors.Wrap(errors.ErrUnauthorized, "registry or admin signature required")
}
