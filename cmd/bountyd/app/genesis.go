package bountyd

import (
	"encoding/json"

	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/app"
	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/x/cash"
	"github.com/iov-one/bounty/x/escrow"
)

// GenesisOptions describe the initial state of a new chain.
type GenesisOptions struct {
	ChainID   string
	Admin     bounty.Address
	Registry  bounty.Address
	Approvers []bounty.Address
	Threshold uint32
	Accounts  []cash.GenesisAccount
}

// Genesis builds the genesis document. The governance state is validated
// so that a broken genesis is never written.
func (o GenesisOptions) Genesis() (app.Genesis, error) {
	if !bounty.IsValidChainID(o.ChainID) {
		return app.Genesis{}, errors.Wrapf(errors.ErrInvalidInput, "chain id: %q", o.ChainID)
	}
	state := escrow.State{
		Admin:             o.Admin,
		Registry:          o.Registry,
		Approvers:         o.Approvers,
		ApprovalThreshold: o.Threshold,
	}
	if err := state.Validate(); err != nil {
		return app.Genesis{}, errors.Wrap(err, "escrow")
	}
	for i, a := range o.Accounts {
		if err := a.Address.Validate(); err != nil {
			return app.Genesis{}, errors.Wrapf(err, "account %d", i)
		}
	}

	escrowRaw, err := json.Marshal(state)
	if err != nil {
		return app.Genesis{}, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	accounts := o.Accounts
	if accounts == nil {
		accounts = []cash.GenesisAccount{}
	}
	cashRaw, err := json.Marshal(accounts)
	if err != nil {
		return app.Genesis{}, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return app.Genesis{
		ChainID: o.ChainID,
		AppState: bounty.Options{
			"cash":   cashRaw,
			"escrow": escrowRaw,
		},
	}, nil
}
