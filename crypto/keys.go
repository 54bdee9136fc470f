/*
Package crypto provides the identity keys used to authenticate callers of the
escrow core. Only ed25519 keys are supported.
*/
package crypto

import (
	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
)

// ExtensionName is used for the Conditions we get from signatures
const ExtensionName = "sigs"

// PubKey represents a crypto public key we use
type PubKey interface {
	Verify(message []byte, sig *Signature) bool
	Condition() bounty.Condition
}

// Signer is the functionality we use from a private key
// No serializing to support hardware devices as well.
type Signer interface {
	Sign(message []byte) (*Signature, error)
	PublicKey() *PublicKey
}

// PublicKey is the serializable form of a public key.
type PublicKey struct {
	Ed25519 []byte `json:"ed25519"`
}

// PrivateKey is the serializable form of a private key.
type PrivateKey struct {
	Ed25519 []byte `json:"ed25519"`
}

// Signature is the serializable form of a signature.
type Signature struct {
	Ed25519 []byte `json:"ed25519"`
}

var _ PubKey = (*PublicKey)(nil)
var _ Signer = (*PrivateKey)(nil)

// Address is a shortcut to Condition().Address()
func (p *PublicKey) Address() bounty.Address {
	cond := p.Condition()
	if cond == nil {
		return nil
	}
	return cond.Address()
}

// Validate returns an error if the public key is not of a supported kind.
func (p *PublicKey) Validate() error {
	if p == nil || len(p.Ed25519) == 0 {
		return errors.Wrap(errors.ErrEmpty, "public key")
	}
	if len(p.Ed25519) != publicKeySize {
		return errors.Wrapf(errors.ErrInvalidInput, "public key of %d bytes", len(p.Ed25519))
	}
	return nil
}

// Sign fails for an empty key.
func (p *PrivateKey) Sign(message []byte) (*Signature, error) {
	if p == nil || len(p.Ed25519) != privateKeySize {
		return nil, errors.Wrap(errors.ErrEmpty, "private key")
	}
	return signEd25519(p.Ed25519, message), nil
}
