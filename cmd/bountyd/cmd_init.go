package main

import (
	"context"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iov-one/bounty/app"
	bountyd "github.com/iov-one/bounty/cmd/bountyd/app"
	"github.com/iov-one/bounty/commands/server"
	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/x/cash"
)

const (
	flagChainID   = "chain_id"
	flagAdmin     = "admin"
	flagRegistry  = "registry"
	flagApprover  = "approver"
	flagThreshold = "threshold"
	flagAccount   = "account"
)

func (c *cli) initCmd() *cobra.Command {
	cmd := server.InitCmd(c.v, c.genOptions, c.applyGenesis)
	cmd.Long = `Write the genesis file and initialize the state of a new chain.

Addresses can be given as hex, bech32:<address> or key:<name> of a local key.`
	fl := cmd.Flags()
	fl.String(flagChainID, "", "chain id, 6 to 20 characters")
	fl.String(flagAdmin, "", "address of the escrow admin")
	fl.String(flagRegistry, "", "address of the vulnerability registry, can be set later")
	fl.StringSlice(flagApprover, nil, "address of an approver, can be repeated")
	fl.Uint32(flagThreshold, 1, "number of approvals required to release a bounty")
	fl.StringSlice(flagAccount, nil, "initial balance given as <address>=<amount>, can be repeated")
	if err := c.v.BindPFlag(flagChainID, fl.Lookup(flagChainID)); err != nil {
		panic(err)
	}
	return cmd
}

func (c *cli) genOptions(cmd *cobra.Command, args []string) (app.Genesis, error) {
	fl := cmd.Flags()
	opts := bountyd.GenesisOptions{
		ChainID: c.v.GetString(flagChainID),
	}

	var err error
	rawAdmin, _ := fl.GetString(flagAdmin)
	if opts.Admin, err = c.address(rawAdmin); err != nil {
		return app.Genesis{}, errors.Wrap(err, "admin")
	}
	if rawRegistry, _ := fl.GetString(flagRegistry); rawRegistry != "" {
		if opts.Registry, err = c.address(rawRegistry); err != nil {
			return app.Genesis{}, errors.Wrap(err, "registry")
		}
	}
	rawApprovers, _ := fl.GetStringSlice(flagApprover)
	for i, raw := range rawApprovers {
		a, err := c.address(raw)
		if err != nil {
			return app.Genesis{}, errors.Wrapf(err, "approver %d", i)
		}
		opts.Approvers = append(opts.Approvers, a)
	}
	if opts.Threshold, err = fl.GetUint32(flagThreshold); err != nil {
		return app.Genesis{}, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	rawAccounts, _ := fl.GetStringSlice(flagAccount)
	for _, raw := range rawAccounts {
		acct, err := c.parseAccount(raw)
		if err != nil {
			return app.Genesis{}, err
		}
		opts.Accounts = append(opts.Accounts, acct)
	}
	return opts.Genesis()
}

// parseAccount decodes <address>=<amount>.
func (c *cli) parseAccount(raw string) (cash.GenesisAccount, error) {
	chunks := strings.SplitN(raw, "=", 2)
	if len(chunks) != 2 {
		return cash.GenesisAccount{}, errors.Wrapf(errors.ErrInvalidInput, "account %q: want <address>=<amount>", raw)
	}
	addr, err := c.address(chunks[0])
	if err != nil {
		return cash.GenesisAccount{}, errors.Wrapf(err, "account %q", raw)
	}
	amount, err := strconv.ParseUint(chunks[1], 10, 64)
	if err != nil {
		return cash.GenesisAccount{}, errors.Wrapf(errors.ErrInvalidAmount, "account %q: %s", raw, err)
	}
	return cash.GenesisAccount{Address: addr, Balance: amount}, nil
}

func (c *cli) applyGenesis(home string, gen app.Genesis) error {
	n, err := bountyd.OpenNode(home, c.logger)
	if err != nil {
		return err
	}
	defer n.Close()

	if err := n.InitChain(context.Background(), gen); err != nil {
		return err
	}
	id, err := n.Commit()
	if err != nil {
		return err
	}
	return c.printJSON(map[string]interface{}{
		"chain_id": gen.ChainID,
		"version":  id.Version,
		"hash":     hex.EncodeToString(id.Hash),
	})
}
