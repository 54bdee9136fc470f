package sigs

import (
	"github.com/iov-one/bounty"
)

// StdTx is a minimal signed transaction used in tests.
type StdTx struct {
	Msg        bounty.Msg
	Payload    []byte
	Signatures []*StdSignature
}

var _ SignedTx = (*StdTx)(nil)
var _ bounty.Tx = (*StdTx)(nil)

// NewStdTx returns a transaction signing given payload.
func NewStdTx(payload []byte) *StdTx {
	return &StdTx{Payload: payload}
}

func (tx StdTx) GetMsg() (bounty.Msg, error) {
	return tx.Msg, nil
}

func (tx StdTx) GetSignatures() []*StdSignature {
	return tx.Signatures
}

func (tx StdTx) GetSignBytes() ([]byte, error) {
	return tx.Payload, nil
}

// SigCheckHandler stores the seen signers on each call
type SigCheckHandler struct {
	Signers []bounty.Condition
}

var _ bounty.Handler = (*SigCheckHandler)(nil)

func (s *SigCheckHandler) Check(ctx bounty.Context, store bounty.KVStore, tx bounty.Tx) (*bounty.CheckResult, error) {
	s.Signers = Authenticate{}.GetConditions(ctx)
	return &bounty.CheckResult{}, nil
}

func (s *SigCheckHandler) Deliver(ctx bounty.Context, store bounty.KVStore, tx bounty.Tx) (*bounty.DeliverResult, error) {
	s.Signers = Authenticate{}.GetConditions(ctx)
	return &bounty.DeliverResult{}, nil
}
