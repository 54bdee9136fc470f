package bountyd

import (
	amino "github.com/tendermint/go-amino"

	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/crypto"
	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/x/cash"
	"github.com/iov-one/bounty/x/escrow"
	"github.com/iov-one/bounty/x/sigs"
)

var cdc = newCodec()

// newCodec registers every message the node can route.
func newCodec() *amino.Codec {
	c := amino.NewCodec()
	c.RegisterInterface((*bounty.Msg)(nil), nil)
	c.RegisterConcrete(&cash.SendMsg{}, "cash/send", nil)
	c.RegisterConcrete(&escrow.DepositMsg{}, "escrow/deposit", nil)
	c.RegisterConcrete(&escrow.ReleaseMsg{}, "escrow/release", nil)
	c.RegisterConcrete(&escrow.ApproveMsg{}, "escrow/approve", nil)
	c.RegisterConcrete(&escrow.RaiseDisputeMsg{}, "escrow/raise_dispute", nil)
	c.RegisterConcrete(&escrow.ResolveDisputeMsg{}, "escrow/resolve_dispute", nil)
	c.RegisterConcrete(&escrow.EmergencyRefundMsg{}, "escrow/emergency_refund", nil)
	c.RegisterConcrete(&escrow.AddApproverMsg{}, "escrow/add_approver", nil)
	c.RegisterConcrete(&escrow.RemoveApproverMsg{}, "escrow/remove_approver", nil)
	c.RegisterConcrete(&escrow.SetRegistryMsg{}, "escrow/set_registry", nil)
	c.RegisterConcrete(&escrow.SetThresholdMsg{}, "escrow/set_threshold", nil)
	c.RegisterConcrete(&escrow.PauseMsg{}, "escrow/pause", nil)
	c.RegisterConcrete(&escrow.EmergencyWithdrawMsg{}, "escrow/emergency_withdraw", nil)
	c.Seal()
	return c
}

// Tx is the transaction accepted by the node. It carries a single message
// and the signatures of everyone authorizing it.
type Tx struct {
	Msg        bounty.Msg
	Signatures []*sigs.StdSignature
}

// make sure tx fulfills all interfaces
var _ bounty.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (bounty.Tx, error) {
	tx := new(Tx)
	if err := tx.Unmarshal(bz); err != nil {
		return nil, err
	}
	return tx, nil
}

// Marshal returns the binary representation of the transaction.
func (tx *Tx) Marshal() ([]byte, error) {
	bz, err := cdc.MarshalBinaryBare(tx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "marshal tx: %s", err)
	}
	return bz, nil
}

// Unmarshal loads the binary representation into the transaction.
func (tx *Tx) Unmarshal(bz []byte) error {
	if err := cdc.UnmarshalBinaryBare(bz, tx); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "unmarshal tx: %s", err)
	}
	return nil
}

func (tx *Tx) GetMsg() (bounty.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrInvalidMsg, "no message")
	}
	return tx.Msg, nil
}

func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the bytes to sign. Signatures are not part of them.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	unsigned := Tx{Msg: tx.Msg}
	return unsigned.Marshal()
}

// Sign appends a signature of given signer. The nonce must be the next
// sequence of the signer.
func (tx *Tx) Sign(signer crypto.Signer, chainID string, nonce int64) error {
	sig, err := sigs.SignTx(signer, tx, chainID, nonce)
	if err != nil {
		return errors.Wrap(err, "sign")
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}
