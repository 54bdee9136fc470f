package x

import (
	"context"
	"testing"

	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/weavetest"
	"github.com/iov-one/bounty/weavetest/assert"
)

func TestAuth(t *testing.T) {
	a := weavetest.NewCondition()
	b := weavetest.NewCondition()
	c := weavetest.NewCondition()

	ctx1 := &weavetest.CtxAuth{Key: "foo"}
	ctx2 := &weavetest.CtxAuth{Key: "bar"}

	cases := map[string]struct {
		ctx          bounty.Context
		auth         Authenticator
		mainSigner   bounty.Condition
		wantInCtx    bounty.Condition
		wantNotInCtx bounty.Condition
		wantAll      []bounty.Condition
	}{
		"empty context": {
			ctx:          context.Background(),
			auth:         &weavetest.Auth{},
			wantNotInCtx: b,
		},
		"signer a": {
			ctx:          context.Background(),
			auth:         &weavetest.Auth{Signer: a},
			mainSigner:   a,
			wantInCtx:    a,
			wantNotInCtx: b,
			wantAll:      []bounty.Condition{a},
		},
		"signer b": {
			ctx: context.Background(),
			auth: ChainAuth(
				&weavetest.Auth{Signer: b},
				&weavetest.Auth{Signer: a}),
			mainSigner:   b,
			wantInCtx:    b,
			wantNotInCtx: c,
			wantAll:      []bounty.Condition{b, a},
		},
		"chained duplicates are reported once": {
			ctx: context.Background(),
			auth: ChainAuth(
				&weavetest.Auth{Signer: a},
				&weavetest.Auth{Signers: []bounty.Condition{a, b}}),
			mainSigner:   a,
			wantInCtx:    b,
			wantNotInCtx: c,
			wantAll:      []bounty.Condition{a, b},
		},
		"ctxAuth checks what is set by same key": {
			ctx:          ctx1.SetConditions(context.Background(), a, b),
			auth:         ctx1,
			mainSigner:   a,
			wantInCtx:    b,
			wantNotInCtx: c,
			wantAll:      []bounty.Condition{a, b},
		},
		"ctxAuth with different key sees nothing": {
			ctx:          ctx1.SetConditions(context.Background(), a, b),
			auth:         ctx2,
			wantNotInCtx: a,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.mainSigner, MainSigner(tc.ctx, tc.auth))
			if tc.mainSigner != nil {
				assert.Equal(t, tc.mainSigner.Address(), MainSignerAddress(tc.ctx, tc.auth))
			} else if MainSignerAddress(tc.ctx, tc.auth) != nil {
				t.Fatal("unexpected main signer address")
			}
			if tc.wantInCtx != nil && !tc.auth.HasAddress(tc.ctx, tc.wantInCtx.Address()) {
				t.Fatal("condition address that was expected in context not found")
			}
			if tc.wantNotInCtx != nil && tc.auth.HasAddress(tc.ctx, tc.wantNotInCtx.Address()) {
				t.Fatal("condition address that was expected not to be in context found")
			}

			all := tc.auth.GetConditions(tc.ctx)
			assert.Equal(t, tc.wantAll, all)

			if !HasAllConditions(tc.ctx, tc.auth, all) {
				t.Fatal("context does not contain all conditions it returned")
			}
			if !HasAllAddresses(tc.ctx, tc.auth, GetAddresses(tc.ctx, tc.auth)) {
				t.Fatal("context does not contain all addresses it returned")
			}
			if tc.wantNotInCtx != nil && HasAllConditions(tc.ctx, tc.auth, append(all, tc.wantNotInCtx)) {
				t.Fatal("missing condition was reported as present")
			}
		})
	}
}

func TestHasNConditions(t *testing.T) {
	a := weavetest.NewCondition()
	b := weavetest.NewCondition()
	c := weavetest.NewCondition()
	auth := &weavetest.Auth{Signers: []bounty.Condition{a, b}}
	ctx := context.Background()

	cases := map[string]struct {
		requested []bounty.Condition
		n         int
		want      bool
	}{
		"zero is always satisfied":   {requested: nil, n: 0, want: true},
		"one of three":               {requested: []bounty.Condition{c, b, a}, n: 1, want: true},
		"two of three":               {requested: []bounty.Condition{c, b, a}, n: 2, want: true},
		"three of three":             {requested: []bounty.Condition{c, b, a}, n: 3, want: false},
		"unknown condition":          {requested: []bounty.Condition{c}, n: 1, want: false},
		"more than requested exists": {requested: []bounty.Condition{a}, n: 2, want: false},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := HasNConditions(ctx, auth, tc.requested, tc.n); got != tc.want {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}
}
