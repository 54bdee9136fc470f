package app

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/orm"
	"github.com/iov-one/bounty/store"
	"github.com/iov-one/bounty/weavetest"
	"github.com/iov-one/bounty/x/cash"
	"github.com/iov-one/bounty/x/escrow"
	"github.com/iov-one/bounty/x/utils"
)

const (
	testChainID = "bounty-test"
	payerFunds  = 1000000
)

var genesisTime = time.Unix(1600000000, 0).UTC()

// testChain is an executor running the cash and escrow extensions.
type testChain struct {
	exec *Executor
	db   *store.Synced
	auth *weavetest.CtxAuth
	bank cash.Controller

	admin     bounty.Condition
	approvers []bounty.Condition
	payers    []bounty.Condition

	mu     sync.Mutex
	events map[int64][]bounty.Event
}

func newTestChain(t testing.TB, db *store.Synced) *testChain {
	c := &testChain{
		db:        db,
		auth:      &weavetest.CtxAuth{Key: "app"},
		bank:      cash.NewController(cash.NewBucket()),
		admin:     weavetest.NewCondition(),
		approvers: []bounty.Condition{weavetest.NewCondition(), weavetest.NewCondition(), weavetest.NewCondition()},
		payers:    []bounty.Condition{weavetest.NewCondition(), weavetest.NewCondition(), weavetest.NewCondition()},
		events:    make(map[int64][]bounty.Event),
	}
	c.exec = c.open(t)
	return c
}

// open returns a new executor over the store of the chain.
func (c *testChain) open(t testing.TB) *Executor {
	r := NewRouter()
	cash.RegisterRoutes(r, c.auth, c.bank, escrow.NewVaultGuard())
	escrow.RegisterRoutes(r, c.auth, c.bank)

	qr := bounty.NewQueryRouter()
	cash.RegisterQuery(qr)
	escrow.RegisterQuery(qr)

	exec, err := NewExecutor(c.db, Config{
		Handler: ChainDecorators(
			utils.NewLogging(),
			utils.NewRecovery(),
			utils.NewActionTagger(),
		).WithHandler(r),
		Initializer: bounty.NewChainInitializers(cash.Initializer{}, escrow.Initializer{}),
		Queries:     qr,
		Clock:       weavetest.NewClock(genesisTime),
		Sinks:       []EventSink{EventSinkFunc(c.publish)},
	})
	if err != nil {
		t.Fatalf("cannot create executor: %s", err)
	}
	return exec
}

func (c *testChain) publish(height int64, events []bounty.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events[height] = events
}

func (c *testChain) published(height int64) []bounty.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events[height]
}

// committed returns true if a transaction was published at given height.
func (c *testChain) committed(height int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.events[height]
	return ok
}

func (c *testChain) genesis(t testing.TB, totalEscrowed uint64) Genesis {
	accts := make([]cash.GenesisAccount, len(c.payers))
	for i, p := range c.payers {
		accts[i] = cash.GenesisAccount{Address: p.Address(), Balance: payerFunds}
	}
	approvers := make([]bounty.Address, len(c.approvers))
	for i, a := range c.approvers {
		approvers[i] = a.Address()
	}
	state := escrow.State{
		Admin:             c.admin.Address(),
		Approvers:         approvers,
		ApprovalThreshold: 2,
		TotalEscrowed:     totalEscrowed,
	}
	return Genesis{
		ChainID: testChainID,
		AppState: bounty.Options{
			"cash":   mustJSON(t, accts),
			"escrow": mustJSON(t, state),
		},
	}
}

func (c *testChain) init(t testing.TB) error {
	return c.exec.InitChain(context.Background(), c.genesis(t, 0))
}

func (c *testChain) deliver(msg bounty.Msg, signers ...bounty.Condition) (*Result, error) {
	ctx := c.auth.SetConditions(context.Background(), signers...)
	return c.exec.Deliver(ctx, &weavetest.Tx{Msg: msg})
}

func (c *testChain) deposit(vulnID, amount uint64, payer, researcher bounty.Condition) (*Result, error) {
	msg := &escrow.DepositMsg{
		VulnID:     vulnID,
		Amount:     amount,
		Researcher: researcher.Address(),
		Payer:      payer.Address(),
	}
	return c.deliver(msg, payer)
}

func (c *testChain) balance(t testing.TB, addr bounty.Address) uint64 {
	b, err := c.bank.Balance(c.db, addr)
	if err != nil {
		t.Fatalf("cannot read balance: %s", err)
	}
	return b
}

func mustJSON(t testing.TB, obj interface{}) json.RawMessage {
	raw, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("cannot marshal: %s", err)
	}
	return raw
}

func TestExecutor(t *testing.T) {
	Convey("Given a fresh executor", t, func() {
		chain := newTestChain(t, store.NewSynced(store.MemStore()))
		researcher := weavetest.NewCondition()

		Convey("transactions are rejected until the chain is initialized", func() {
			_, err := chain.deposit(1, 100, chain.payers[0], researcher)
			So(errors.ErrInvalidState.Is(err), ShouldBeTrue)
		})

		Convey("an invalid chain id is rejected", func() {
			gen := chain.genesis(t, 0)
			gen.ChainID = "x"
			err := chain.exec.InitChain(context.Background(), gen)
			So(errors.ErrInvalidInput.Is(err), ShouldBeTrue)
			So(chain.exec.ChainID(), ShouldEqual, "")
		})

		Convey("a failing initializer stores nothing", func() {
			err := chain.exec.InitChain(context.Background(), chain.genesis(t, 5))
			So(errors.ErrInvalidState.Is(err), ShouldBeTrue)
			So(chain.exec.ChainID(), ShouldEqual, "")
			So(chain.balance(t, chain.payers[0].Address()), ShouldEqual, 0)

			So(chain.init(t), ShouldBeNil)
			So(chain.balance(t, chain.payers[0].Address()), ShouldEqual, payerFunds)
		})

		Convey("When the chain is initialized", func() {
			So(chain.init(t), ShouldBeNil)
			So(chain.exec.ChainID(), ShouldEqual, testChainID)
			So(chain.exec.Height(), ShouldEqual, 0)

			Convey("it cannot be initialized again", func() {
				err := chain.init(t)
				So(errors.ErrUnauthorized.Is(err), ShouldBeTrue)
			})

			Convey("a delivered deposit is committed at a new height", func() {
				res, err := chain.deposit(1, 300, chain.payers[0], researcher)
				So(err, ShouldBeNil)
				So(res.Height, ShouldEqual, 1)
				So(res.Data, ShouldResemble, escrow.VaultKey(1))
				So(chain.exec.Height(), ShouldEqual, 1)
				So(chain.balance(t, chain.payers[0].Address()), ShouldEqual, payerFunds-300)
				So(chain.balance(t, escrow.VaultAddress(1)), ShouldEqual, 300)

				events := chain.published(1)
				So(len(events), ShouldEqual, 1)
				So(events[0].Kind, ShouldEqual, escrow.EventDeposited)
				So(string(events[0].Attr("action")), ShouldEqual, "escrow/deposit")

				Convey("approvals release the bounty", func() {
					approve := &escrow.ApproveMsg{VulnID: 1}
					_, err := chain.deliver(approve, chain.approvers[0])
					So(err, ShouldBeNil)
					res, err := chain.deliver(approve, chain.approvers[1])
					So(err, ShouldBeNil)
					So(res.Height, ShouldEqual, 3)
					So(chain.balance(t, researcher.Address()), ShouldEqual, 300)

					v, err := escrow.NewVaultBucket().GetVault(chain.db, 1)
					So(err, ShouldBeNil)
					So(v.Status, ShouldEqual, escrow.StatusReleased)

					var kinds []string
					for _, ev := range chain.published(3) {
						kinds = append(kinds, ev.Kind)
					}
					So(kinds, ShouldContain, escrow.EventReleased)
				})

				Convey("the height and state survive a restart", func() {
					chain.exec = chain.open(t)
					So(chain.exec.ChainID(), ShouldEqual, testChainID)
					So(chain.exec.Height(), ShouldEqual, 1)

					res, err := chain.deposit(2, 10, chain.payers[0], researcher)
					So(err, ShouldBeNil)
					So(res.Height, ShouldEqual, 2)
				})
			})

			Convey("a failed transaction stores nothing", func() {
				_, err := chain.deposit(1, payerFunds+1, chain.payers[0], researcher)
				So(err, ShouldNotBeNil)
				So(chain.exec.Height(), ShouldEqual, 0)
				So(chain.balance(t, chain.payers[0].Address()), ShouldEqual, payerFunds)

				_, err = escrow.NewVaultBucket().GetVault(chain.db, 1)
				So(errors.ErrNotFound.Is(err), ShouldBeTrue)
				So(chain.committed(1), ShouldBeFalse)

				Convey("its height is left unused", func() {
					res, err := chain.deposit(1, 300, chain.payers[0], researcher)
					So(err, ShouldBeNil)
					So(res.Height, ShouldEqual, 2)
					So(chain.exec.Height(), ShouldEqual, 2)
					So(chain.committed(1), ShouldBeFalse)
					So(chain.committed(2), ShouldBeTrue)
				})
			})

			Convey("check does not persist anything", func() {
				msg := &escrow.DepositMsg{
					VulnID:     4,
					Amount:     50,
					Researcher: researcher.Address(),
					Payer:      chain.payers[1].Address(),
				}
				ctx := chain.auth.SetConditions(context.Background(), chain.payers[1])
				_, err := chain.exec.Check(ctx, &weavetest.Tx{Msg: msg})
				So(err, ShouldBeNil)
				So(chain.exec.Height(), ShouldEqual, 0)
				So(chain.balance(t, chain.payers[1].Address()), ShouldEqual, payerFunds)

				_, err = chain.exec.Check(context.Background(), &weavetest.Tx{Msg: msg})
				So(errors.ErrUnauthorized.Is(err), ShouldBeTrue)
			})

			Convey("queries read the committed state", func() {
				models, err := chain.exec.Query("/escrowstate", bounty.KeyQueryMod, nil)
				So(err, ShouldBeNil)
				So(len(models), ShouldEqual, 1)

				var state escrow.State
				So(orm.Unmarshal(models[0].Value, &state), ShouldBeNil)
				So(state.Admin, ShouldResemble, chain.admin.Address())

				_, err = chain.exec.Query("/nothing", bounty.KeyQueryMod, nil)
				So(errors.ErrNotFound.Is(err), ShouldBeTrue)
			})
		})
	})
}

func TestNewExecutorRequiresHandler(t *testing.T) {
	_, err := NewExecutor(store.NewSynced(store.MemStore()), Config{})
	assert.True(t, errors.ErrHuman.Is(err))
}

func TestExecutorParallelVaults(t *testing.T) {
	chain := newTestChain(t, store.NewSynced(store.MemStore()))
	require.NoError(t, chain.init(t))

	const vaults = 24
	researchers := make([]bounty.Condition, vaults)
	for i := range researchers {
		researchers[i] = weavetest.NewCondition()
	}
	amount := func(i int) uint64 { return uint64(100 + i) }

	run := func(fn func(i int) error) {
		t.Helper()
		var wg sync.WaitGroup
		errs := make(chan error, vaults)
		for i := 0; i < vaults; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- fn(i)
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
	}

	run(func(i int) error {
		payer := chain.payers[i%len(chain.payers)]
		_, err := chain.deposit(uint64(i+1), amount(i), payer, researchers[i])
		return err
	})
	for _, approver := range chain.approvers[:2] {
		approver := approver
		run(func(i int) error {
			_, err := chain.deliver(&escrow.ApproveMsg{VulnID: uint64(i + 1)}, approver)
			return err
		})
	}

	assert.Equal(t, int64(3*vaults), chain.exec.Height())

	var total uint64
	for i := 0; i < vaults; i++ {
		total += amount(i)
		assert.Equal(t, amount(i), chain.balance(t, researchers[i].Address()))
		assert.Equal(t, uint64(0), chain.balance(t, escrow.VaultAddress(uint64(i+1))))

		v, err := escrow.NewVaultBucket().GetVault(chain.db, uint64(i+1))
		require.NoError(t, err)
		assert.Equal(t, escrow.StatusReleased, v.Status)
	}

	var paid uint64
	for _, p := range chain.payers {
		paid += payerFunds - chain.balance(t, p.Address())
	}
	assert.Equal(t, total, paid)

	state, err := escrow.LoadState(chain.db)
	require.NoError(t, err)
	assert.Equal(t, total, state.TotalEscrowed)

	// Every height was handed out exactly once.
	for h := int64(1); h <= 3*vaults; h++ {
		assert.True(t, chain.committed(h), "height %d", h)
	}
}

func TestExecutorSameVaultSingleWinner(t *testing.T) {
	chain := newTestChain(t, store.NewSynced(store.MemStore()))
	require.NoError(t, chain.init(t))
	researcher := weavetest.NewCondition()

	const attempts = 12
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		won  int
		errs []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payer := chain.payers[i%len(chain.payers)]
			_, err := chain.deposit(42, 500, payer, researcher)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				won++
			} else {
				errs = append(errs, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, won)
	for _, err := range errs {
		assert.True(t, escrow.ErrEscrowAlreadyExists.Is(err), "unexpected error: %v", err)
	}
	assert.Equal(t, uint64(500), chain.balance(t, escrow.VaultAddress(42)))

	state, err := escrow.LoadState(chain.db)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), state.TotalEscrowed)
}
