package main

import (
	"encoding/hex"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/iov-one/bounty"
	bountyd "github.com/iov-one/bounty/cmd/bountyd/app"
	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/x/escrow"
)

const (
	flagPrefix  = "prefix"
	flagAddress = "address"
)

type modelView struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

func (c *cli) queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <path> [hex key]",
		Short: "Query the committed state",
		Long: `Query the committed state. Known paths are /wallets, /auth, /vaults,
/approvals and /escrowstate.

The key can be given in hex, or with the --vuln or --address flag.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := c.queryKey(cmd, args[1:])
			if err != nil {
				return err
			}
			mod := bounty.KeyQueryMod
			if prefix, _ := cmd.Flags().GetBool(flagPrefix); prefix {
				mod = bounty.PrefixQueryMod
			}

			n, err := bountyd.OpenNode(c.home(), c.logger)
			if err != nil {
				return err
			}
			defer n.Close()

			models, err := n.Query(args[0], mod, key)
			if err != nil {
				return err
			}
			out := make([]modelView, 0, len(models))
			for _, m := range models {
				value, err := bountyd.DecodeModel(args[0], m)
				if err != nil {
					return err
				}
				out = append(out, modelView{Key: hex.EncodeToString(m.Key), Value: value})
			}
			return c.printJSON(out)
		},
	}
	cmd.Flags().Bool(flagPrefix, false, "return all models with the key as prefix")
	cmd.Flags().Uint64(flagVuln, 0, "use the key of given vulnerability")
	cmd.Flags().String(flagAddress, "", "use given address as the key")
	return cmd
}

func (c *cli) queryKey(cmd *cobra.Command, args []string) ([]byte, error) {
	fl := cmd.Flags()
	if fl.Changed(flagVuln) {
		vuln, err := fl.GetUint64(flagVuln)
		if err != nil {
			return nil, err
		}
		return escrow.VaultKey(vuln), nil
	}
	if fl.Changed(flagAddress) {
		a, err := c.addressFlag(cmd, flagAddress)
		return a, err
	}
	if len(args) == 0 {
		return nil, nil
	}
	key, err := hex.DecodeString(args[0])
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "key: %s", err)
	}
	return key, nil
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the chain id, height and governance state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := bountyd.OpenNode(c.home(), c.logger)
			if err != nil {
				return err
			}
			defer n.Close()

			if n.ChainID() == "" {
				return errors.Wrap(errors.ErrInvalidState, "chain not initialized")
			}
			last, err := n.LastCommit()
			if err != nil {
				return err
			}
			models, err := n.Query("/escrowstate", bounty.KeyQueryMod, nil)
			if err != nil {
				return err
			}
			if len(models) != 1 {
				return errors.Wrap(errors.ErrNotFound, "escrow state")
			}
			raw, err := bountyd.DecodeModel("/escrowstate", models[0])
			if err != nil {
				return err
			}
			state := raw.(*escrow.State)
			return c.printJSON(map[string]interface{}{
				"chain_id":       n.ChainID(),
				"height":         n.Height(),
				"version":        last.Version,
				"hash":           hex.EncodeToString(last.Hash),
				"admin":          state.Admin.String(),
				"registry":       state.Registry.String(),
				"approvers":      addressList(state.Approvers),
				"threshold":      state.ApprovalThreshold,
				"paused":         state.Paused,
				"total_escrowed": state.TotalEscrowed,
			})
		},
	}
}

func (c *cli) printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	_, err = c.out.Write(append(out, '\n'))
	return err
}

// addressList formats a roster for printing.
func addressList(addrs []bounty.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out
}
