package main

import (
	"context"
	"encoding/hex"

	"github.com/spf13/cobra"

	"github.com/iov-one/bounty"
	bountyd "github.com/iov-one/bounty/cmd/bountyd/app"
	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/x/cash"
	"github.com/iov-one/bounty/x/escrow"
)

const (
	flagKey        = "key"
	flagVuln       = "vuln"
	flagAmount     = "amount"
	flagResearcher = "researcher"
	flagPayer      = "payer"
	flagApprove    = "approve"
	flagPaused     = "paused"
	flagTo         = "to"
	flagMemo       = "memo"
)

// msgBuilder creates the message of a transaction from the command flags.
type msgBuilder func(cmd *cobra.Command) (bounty.Msg, error)

func (c *cli) txCmd() *cobra.Command {
	tx := &cobra.Command{
		Use:   "tx",
		Short: "Sign and deliver a transaction",
		Long: `Sign a transaction with a local key, deliver it and commit the result.

Addresses can be given as hex, bech32:<address> or key:<name> of a local key.`,
	}
	tx.PersistentFlags().String(flagKey, "", "name of the key that signs the transaction")
	if err := c.v.BindPFlag(flagKey, tx.PersistentFlags().Lookup(flagKey)); err != nil {
		panic(err)
	}

	deposit := c.msgCmd("deposit", "Deposit a bounty for a vulnerability", c.depositMsg)
	deposit.Flags().Uint64(flagVuln, 0, "vulnerability id")
	deposit.Flags().Uint64(flagAmount, 0, "bounty amount")
	deposit.Flags().String(flagResearcher, "", "address of the researcher")
	deposit.Flags().String(flagPayer, "", "address of the payer, the signer by default")

	release := c.msgCmd("release", "Release a bounty as the registry", func(cmd *cobra.Command) (bounty.Msg, error) {
		vuln, err := cmd.Flags().GetUint64(flagVuln)
		return &escrow.ReleaseMsg{VulnID: vuln}, err
	})
	release.Flags().Uint64(flagVuln, 0, "vulnerability id")

	approve := c.msgCmd("approve", "Approve the release of a bounty", func(cmd *cobra.Command) (bounty.Msg, error) {
		vuln, err := cmd.Flags().GetUint64(flagVuln)
		return &escrow.ApproveMsg{VulnID: vuln}, err
	})
	approve.Flags().Uint64(flagVuln, 0, "vulnerability id")

	dispute := c.msgCmd("dispute", "Raise a dispute on a bounty", func(cmd *cobra.Command) (bounty.Msg, error) {
		vuln, err := cmd.Flags().GetUint64(flagVuln)
		return &escrow.RaiseDisputeMsg{VulnID: vuln}, err
	})
	dispute.Flags().Uint64(flagVuln, 0, "vulnerability id")

	resolve := c.msgCmd("resolve", "Resolve the dispute of a bounty", func(cmd *cobra.Command) (bounty.Msg, error) {
		vuln, err := cmd.Flags().GetUint64(flagVuln)
		if err != nil {
			return nil, err
		}
		approved, err := cmd.Flags().GetBool(flagApprove)
		return &escrow.ResolveDisputeMsg{VulnID: vuln, Approve: approved}, err
	})
	resolve.Flags().Uint64(flagVuln, 0, "vulnerability id")
	resolve.Flags().Bool(flagApprove, false, "pay the researcher instead of refunding the registry")

	refund := c.msgCmd("refund", "Return a stale bounty to the researcher", func(cmd *cobra.Command) (bounty.Msg, error) {
		vuln, err := cmd.Flags().GetUint64(flagVuln)
		return &escrow.EmergencyRefundMsg{VulnID: vuln}, err
	})
	refund.Flags().Uint64(flagVuln, 0, "vulnerability id")

	addApprover := c.msgCmd("add-approver", "Add an approver to the roster", func(cmd *cobra.Command) (bounty.Msg, error) {
		a, err := c.addressFlag(cmd, flagApprover)
		return &escrow.AddApproverMsg{Approver: a}, err
	})
	addApprover.Flags().String(flagApprover, "", "address of the approver")

	removeApprover := c.msgCmd("remove-approver", "Remove an approver from the roster", func(cmd *cobra.Command) (bounty.Msg, error) {
		a, err := c.addressFlag(cmd, flagApprover)
		return &escrow.RemoveApproverMsg{Approver: a}, err
	})
	removeApprover.Flags().String(flagApprover, "", "address of the approver")

	setRegistry := c.msgCmd("set-registry", "Set the vulnerability registry", func(cmd *cobra.Command) (bounty.Msg, error) {
		a, err := c.addressFlag(cmd, flagRegistry)
		return &escrow.SetRegistryMsg{Registry: a}, err
	})
	setRegistry.Flags().String(flagRegistry, "", "address of the registry, empty to unset")

	setThreshold := c.msgCmd("set-threshold", "Set the number of required approvals", func(cmd *cobra.Command) (bounty.Msg, error) {
		n, err := cmd.Flags().GetUint32(flagThreshold)
		return &escrow.SetThresholdMsg{Threshold: n}, err
	})
	setThreshold.Flags().Uint32(flagThreshold, 0, "number of approvals")

	pause := c.msgCmd("pause", "Pause or resume the escrow", func(cmd *cobra.Command) (bounty.Msg, error) {
		paused, err := cmd.Flags().GetBool(flagPaused)
		return &escrow.PauseMsg{Paused: paused}, err
	})
	pause.Flags().Bool(flagPaused, true, "set to false to resume")

	withdraw := c.msgCmd("withdraw", "Withdraw the funds of a vault while paused", func(cmd *cobra.Command) (bounty.Msg, error) {
		vuln, err := cmd.Flags().GetUint64(flagVuln)
		return &escrow.EmergencyWithdrawMsg{VulnID: vuln}, err
	})
	withdraw.Flags().Uint64(flagVuln, 0, "vulnerability id")

	send := c.msgCmd("send", "Send tokens from the signer wallet", c.sendMsg)
	send.Flags().String(flagTo, "", "address of the recipient")
	send.Flags().Uint64(flagAmount, 0, "amount to send")
	send.Flags().String(flagMemo, "", "optional memo")

	tx.AddCommand(deposit, release, approve, dispute, resolve, refund,
		addApprover, removeApprover, setRegistry, setThreshold, pause, withdraw, send)
	return tx
}

// msgCmd returns a command delivering the message created by build.
func (c *cli) msgCmd(use, short string, build msgBuilder) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := build(cmd)
			if err != nil {
				return errors.Wrapf(err, "build %s message", use)
			}
			return c.submit(msg)
		},
	}
}

func (c *cli) addressFlag(cmd *cobra.Command, name string) (bounty.Address, error) {
	raw, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil, err
	}
	return c.address(raw)
}

func (c *cli) depositMsg(cmd *cobra.Command) (bounty.Msg, error) {
	fl := cmd.Flags()
	vuln, err := fl.GetUint64(flagVuln)
	if err != nil {
		return nil, err
	}
	amount, err := fl.GetUint64(flagAmount)
	if err != nil {
		return nil, err
	}
	researcher, err := c.addressFlag(cmd, flagResearcher)
	if err != nil {
		return nil, err
	}
	payer, err := c.addressFlag(cmd, flagPayer)
	if err != nil {
		return nil, err
	}
	return &escrow.DepositMsg{
		VulnID:     vuln,
		Amount:     amount,
		Researcher: researcher,
		Payer:      payer,
	}, nil
}

func (c *cli) sendMsg(cmd *cobra.Command) (bounty.Msg, error) {
	key, err := c.loadKey(c.v.GetString(flagKey))
	if err != nil {
		return nil, err
	}
	to, err := c.addressFlag(cmd, flagTo)
	if err != nil {
		return nil, err
	}
	amount, err := cmd.Flags().GetUint64(flagAmount)
	if err != nil {
		return nil, err
	}
	memo, err := cmd.Flags().GetString(flagMemo)
	if err != nil {
		return nil, err
	}
	return &cash.SendMsg{
		Source:      key.PublicKey().Address(),
		Destination: to,
		Amount:      amount,
		Memo:        memo,
	}, nil
}

// txResult is the printed outcome of a delivered transaction.
type txResult struct {
	Height  int64       `json:"height"`
	Data    string      `json:"data,omitempty"`
	Log     string      `json:"log,omitempty"`
	Events  []eventView `json:"events"`
	Version int64       `json:"version"`
}

type eventView struct {
	Kind       string            `json:"kind"`
	Attributes map[string]string `json:"attributes"`
}

// submit signs the message with the configured key, delivers it and
// commits the state.
func (c *cli) submit(msg bounty.Msg) error {
	key, err := c.loadKey(c.v.GetString(flagKey))
	if err != nil {
		return err
	}

	n, err := bountyd.OpenNode(c.home(), c.logger)
	if err != nil {
		return err
	}
	defer n.Close()

	nonce, err := n.NextNonce(key.PublicKey().Address())
	if err != nil {
		return err
	}
	tx := &bountyd.Tx{Msg: msg}
	if err := tx.Sign(key, n.ChainID(), nonce); err != nil {
		return err
	}
	// Go through the wire format, the way a remote transaction arrives.
	bz, err := tx.Marshal()
	if err != nil {
		return err
	}
	decoded, err := bountyd.TxDecoder(bz)
	if err != nil {
		return err
	}

	res, err := n.Deliver(context.Background(), decoded)
	if err != nil {
		return err
	}
	id, err := n.Commit()
	if err != nil {
		return err
	}

	out := txResult{
		Height:  res.Height,
		Log:     res.Log,
		Events:  make([]eventView, 0, len(res.Events)),
		Version: id.Version,
	}
	if len(res.Data) != 0 {
		out.Data = hex.EncodeToString(res.Data)
	}
	for _, ev := range res.Events {
		attrs := make(map[string]string, len(ev.Tags))
		for _, t := range ev.Tags {
			attrs[string(t.Key)] = string(t.Value)
		}
		out.Events = append(out.Events, eventView{Kind: ev.Kind, Attributes: attrs})
	}
	return c.printJSON(out)
}
