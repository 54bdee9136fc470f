package main

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/x/cash"
	"github.com/iov-one/bounty/x/escrow"
)

// runner executes bountyd commands against a single home directory.
type runner struct {
	t    *testing.T
	home string
}

func (r runner) run(args ...string) (string, error) {
	var out bytes.Buffer
	_, root := newCLI(&out)
	root.SetArgs(append([]string{"--home", r.home, "--log_level", "none"}, args...))
	err := root.Execute()
	return out.String(), err
}

func (r runner) mustRun(dest interface{}, args ...string) {
	r.t.Helper()
	out, err := r.run(args...)
	if err != nil {
		r.t.Fatalf("bountyd %v: %+v", args, err)
	}
	if dest != nil {
		require.NoError(r.t, json.Unmarshal([]byte(out), dest), out)
	}
}

func TestCLI(t *testing.T) {
	home, err := ioutil.TempDir("", "bountyd-cli")
	require.NoError(t, err)
	defer os.RemoveAll(home)
	r := runner{t: t, home: home}

	for _, name := range []string{"admin", "payer", "researcher", "alice", "bob"} {
		var key map[string]string
		r.mustRun(&key, "keygen", name)
		assert.Len(t, key["address"], 40)
	}
	_, err = r.run("keygen", "admin")
	assert.True(t, errors.ErrDuplicate.Is(err))

	r.mustRun(nil, "init",
		"--chain_id", "cli-test",
		"--admin", "key:admin",
		"--approver", "key:alice",
		"--approver", "key:bob",
		"--threshold", "2",
		"--account", "key:payer=1000",
	)
	_, err = r.run("init", "--chain_id", "cli-test", "--admin", "key:admin")
	assert.True(t, errors.ErrDuplicate.Is(err))

	var res txResult
	r.mustRun(&res, "tx", "deposit", "--key", "payer", "--vuln", "5", "--amount", "400", "--researcher", "key:researcher")
	assert.Equal(t, int64(1), res.Height)
	require.Len(t, res.Events, 1)
	assert.Equal(t, escrow.EventDeposited, res.Events[0].Kind)
	assert.Equal(t, "escrow/deposit", res.Events[0].Attributes["action"])

	r.mustRun(&res, "tx", "approve", "--key", "alice", "--vuln", "5")
	assert.Empty(t, res.Events)
	r.mustRun(&res, "tx", "approve", "--key", "bob", "--vuln", "5")
	require.Len(t, res.Events, 1)
	assert.Equal(t, escrow.EventReleased, res.Events[0].Kind)
	assert.Equal(t, int64(3), res.Height)

	_, err = r.run("tx", "approve", "--key", "payer", "--vuln", "5")
	assert.True(t, escrow.ErrNotApprover.Is(err))
	assert.Contains(t, failure(err, false), "Error (code 1504): ")

	var wallets []struct {
		Key   string      `json:"key"`
		Value cash.Wallet `json:"value"`
	}
	r.mustRun(&wallets, "query", "/wallets", "--address", "key:researcher")
	require.Len(t, wallets, 1)
	assert.Equal(t, uint64(400), wallets[0].Value.Balance)

	var vaults []struct {
		Key   string       `json:"key"`
		Value escrow.Vault `json:"value"`
	}
	r.mustRun(&vaults, "query", "/vaults", "--vuln", "5")
	require.Len(t, vaults, 1)
	assert.Equal(t, escrow.StatusReleased, vaults[0].Value.Status)
	assert.Equal(t, uint32(2), vaults[0].Value.ApprovalCount)

	var status struct {
		ChainID       string   `json:"chain_id"`
		Height        int64    `json:"height"`
		Version       int64    `json:"version"`
		Approvers     []string `json:"approvers"`
		TotalEscrowed uint64   `json:"total_escrowed"`
	}
	r.mustRun(&status, "status")
	assert.Equal(t, "cli-test", status.ChainID)
	assert.Equal(t, int64(3), status.Height)
	assert.Equal(t, int64(4), status.Version)
	assert.Len(t, status.Approvers, 2)
	assert.Equal(t, uint64(400), status.TotalEscrowed)
}

func TestParseAccount(t *testing.T) {
	c, _ := newCLI(ioutil.Discard)
	const hexAddr = "8F9D9A1F6B1E7E1D2B3C4D5E6F708192A3B4C5D6"

	cases := map[string]struct {
		raw     string
		want    uint64
		wantErr *errors.Error
	}{
		"valid": {
			raw:  hexAddr + "=42",
			want: 42,
		},
		"missing amount": {
			raw:     hexAddr,
			wantErr: errors.ErrInvalidInput,
		},
		"negative amount": {
			raw:     hexAddr + "=-1",
			wantErr: errors.ErrInvalidAmount,
		},
		"short address": {
			raw:     "ABCD=1",
			wantErr: errors.ErrInvalidInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			acct, err := c.parseAccount(tc.raw)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr == nil {
				assert.Equal(t, tc.want, acct.Balance)
				assert.Equal(t, hexAddr, acct.Address.String())
			}
		})
	}
}
