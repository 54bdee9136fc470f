package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/store"
	"github.com/iov-one/bounty/weavetest"
	"github.com/iov-one/bounty/x/cash"
	"github.com/iov-one/bounty/x/escrow"
)

// A block cache holds the transactions delivered so far. Every transaction
// runs in its own cache on top of it and is written back only on success.
func TestBTreeCacheEscrowTransactions(t *testing.T) {
	now := time.Unix(1600000000, 0).UTC()
	payer := weavetest.NewCondition().Address()
	researcher := weavetest.NewCondition().Address()
	approvers := weavetest.NewConditions(2)

	db := store.MemStore()
	bank := cash.NewController(cash.NewBucket())
	require.NoError(t, bank.IssueCoins(db, payer, 1000))
	ctrl := escrow.NewController(bank)

	block := db.CacheWrap()

	tx := block.CacheWrap()
	v, _, err := ctrl.Deposit(tx, now, &escrow.DepositMsg{VulnID: 1, Amount: 300, Researcher: researcher}, payer)
	require.NoError(t, err)
	_, err = ctrl.Approve(tx, now, v, approvers[0].Address(), 2)
	require.NoError(t, err)
	require.NoError(t, tx.Write())

	failed := block.CacheWrap()
	_, _, err = ctrl.Deposit(failed, now, &escrow.DepositMsg{VulnID: 2, Amount: 500, Researcher: researcher}, payer)
	require.NoError(t, err)
	failed.Discard()

	// The second approval is still pending in its transaction.
	pending := block.CacheWrap()
	_, err = ctrl.Approve(pending, now, v, approvers[1].Address(), 2)
	require.NoError(t, err)

	vaults := escrow.NewVaultBucket()
	approvals := escrow.NewApprovalBucket()

	cases := map[string]struct {
		db            bounty.ReadOnlyKVStore
		wantVaults    map[uint64]bool
		wantApprovals int
		wantPayer     uint64
		wantVault1    uint64
	}{
		"committed state before the block is written": {
			db:         db,
			wantVaults: map[uint64]bool{1: false, 2: false},
			wantPayer:  1000,
		},
		"block": {
			db:            block,
			wantVaults:    map[uint64]bool{1: true, 2: false},
			wantApprovals: 1,
			wantPayer:     700,
			wantVault1:    300,
		},
		"pending transaction sees the block and its own writes": {
			db:            pending,
			wantVaults:    map[uint64]bool{1: true, 2: false},
			wantApprovals: 2,
			wantPayer:     700,
			wantVault1:    0,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			for vuln, want := range tc.wantVaults {
				_, err := vaults.GetVault(tc.db, vuln)
				if want {
					assert.NoError(t, err, "vault %d", vuln)
				} else {
					assert.True(t, errors.ErrNotFound.Is(err), "vault %d: %+v", vuln, err)
				}
			}

			got, err := approvals.ByVuln(tc.db, 1)
			require.NoError(t, err)
			assert.Len(t, got, tc.wantApprovals)

			held, err := bank.Balance(tc.db, payer)
			require.NoError(t, err)
			assert.Equal(t, tc.wantPayer, held)

			held, err = bank.Balance(tc.db, escrow.VaultAddress(1))
			require.NoError(t, err)
			assert.Equal(t, tc.wantVault1, held)
		})
	}

	pending.Discard()
	require.NoError(t, block.Write())
	got, err := approvals.ByVuln(db, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	held, err := bank.Balance(db, researcher)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), held)
}
