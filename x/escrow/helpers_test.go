package escrow

import (
	"context"
	"testing"
	"time"

	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/store"
	"github.com/iov-one/bounty/weavetest"
	"github.com/iov-one/bounty/weavetest/assert"
	"github.com/iov-one/bounty/x/cash"
)

// genesisTime is the block time of every fixture operation unless a step
// advances it.
var genesisTime = time.Unix(1600000000, 0).UTC()

const payerFunds = 10000

type routes map[string]bounty.Handler

func (r routes) Handle(m bounty.Msg, h bounty.Handler) {
	r[m.Path()] = h
}

// fixture is a fresh escrow with three approvers, a threshold of two and a
// funded payer.
type fixture struct {
	admin, registry, payer, researcher, stranger bounty.Condition
	approvers                                    []bounty.Condition

	auth *weavetest.CtxAuth
	bank cash.Controller
	rt   routes
	kv   bounty.CacheableKVStore
}

func newFixture(t testing.TB) *fixture {
	return newFixtureWithPolicy(t, AdminPolicy{})
}

func newFixtureWithPolicy(t testing.TB, policy Policy) *fixture {
	f := &fixture{
		admin:      weavetest.NewCondition(),
		registry:   weavetest.NewCondition(),
		payer:      weavetest.NewCondition(),
		researcher: weavetest.NewCondition(),
		stranger:   weavetest.NewCondition(),
		approvers:  weavetest.NewConditions(3),
		auth:       &weavetest.CtxAuth{Key: "escrow"},
		bank:       cash.NewController(cash.NewBucket()),
		rt:         make(routes),
		kv:         store.MemStore(),
	}
	RegisterRoutesWithPolicy(f.rt, f.auth, f.bank, policy)
	cash.RegisterRoutes(f.rt, f.auth, f.bank, NewVaultGuard())

	state := &State{
		Admin:             f.admin.Address(),
		Registry:          f.registry.Address(),
		Approvers:         addrs(f.approvers...),
		ApprovalThreshold: 2,
	}
	assert.Nil(t, SaveState(f.kv, state))
	assert.Nil(t, f.bank.IssueCoins(f.kv, f.payer.Address(), payerFunds))
	return f
}

func addrs(conds ...bounty.Condition) []bounty.Address {
	res := make([]bounty.Address, len(conds))
	for i, c := range conds {
		res[i] = c.Address()
	}
	return res
}

func (f *fixture) ctx(at time.Duration, signers ...bounty.Condition) bounty.Context {
	ctx := bounty.WithBlockTime(context.Background(), genesisTime.Add(at))
	return f.auth.SetConditions(ctx, signers...)
}

// check runs the check phase on a throw away cache.
func (f *fixture) check(at time.Duration, msg bounty.Msg, signers ...bounty.Condition) error {
	h := f.rt[msg.Path()]
	cache := f.kv.CacheWrap()
	defer cache.Discard()
	_, err := h.Check(f.ctx(at, signers...), cache, &weavetest.Tx{Msg: msg})
	return err
}

// deliver runs the deliver phase atomically, persisting changes only on
// success.
func (f *fixture) deliver(at time.Duration, msg bounty.Msg, signers ...bounty.Condition) (*bounty.DeliverResult, error) {
	h := f.rt[msg.Path()]
	cache := f.kv.CacheWrap()
	res, err := h.Deliver(f.ctx(at, signers...), cache, &weavetest.Tx{Msg: msg})
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if err := cache.Write(); err != nil {
		return nil, err
	}
	return res, nil
}

func (f *fixture) mustDeliver(t testing.TB, at time.Duration, msg bounty.Msg, signers ...bounty.Condition) *bounty.DeliverResult {
	t.Helper()
	res, err := f.deliver(at, msg, signers...)
	if err != nil {
		t.Fatalf("cannot deliver %s: %+v", msg.Path(), err)
	}
	return res
}

func (f *fixture) balance(t testing.TB, addr bounty.Address) uint64 {
	t.Helper()
	b, err := f.bank.Balance(f.kv, addr)
	assert.Nil(t, err)
	return b
}

func (f *fixture) vault(t testing.TB, vulnID uint64) *Vault {
	t.Helper()
	v, err := NewVaultBucket().GetVault(f.kv, vulnID)
	assert.Nil(t, err)
	return v
}

func (f *fixture) state(t testing.TB) *State {
	t.Helper()
	s, err := LoadState(f.kv)
	assert.Nil(t, err)
	return s
}

func (f *fixture) deposit(t testing.TB, vulnID, amount uint64) {
	t.Helper()
	msg := &DepositMsg{VulnID: vulnID, Amount: amount, Researcher: f.researcher.Address()}
	f.mustDeliver(t, 0, msg, f.payer)
}
