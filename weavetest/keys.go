package weavetest

import (
	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/crypto"
)

// NewKey returns a fresh ed25519 key able to sign transactions.
func NewKey() crypto.Signer {
	return crypto.GenPrivKeyEd25519()
}

// NewCondition returns the signature condition of a fresh key. Use it for
// identities that authenticate through a mock authenticator.
func NewCondition() bounty.Condition {
	return NewKey().PublicKey().Condition()
}

// NewConditions returns n distinct signature conditions, for example an
// approver roster.
func NewConditions(n int) []bounty.Condition {
	conds := make([]bounty.Condition, n)
	for i := range conds {
		conds[i] = NewCondition()
	}
	return conds
}
