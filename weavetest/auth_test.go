package weavetest

import (
	"context"
	"reflect"
	"testing"

	"github.com/iov-one/bounty"
)

func TestAuth(t *testing.T) {
	payer := NewCondition()
	approvers := NewConditions(2)
	outsider := NewCondition()

	cases := map[string]struct {
		auth      Auth
		wantConds []bounty.Condition
	}{
		"nobody signed": {
			auth:      Auth{},
			wantConds: nil,
		},
		"single signer": {
			auth:      Auth{Signer: payer},
			wantConds: []bounty.Condition{payer},
		},
		"approvers co-signed": {
			auth:      Auth{Signers: approvers},
			wantConds: approvers,
		},
		"main signer comes last": {
			auth:      Auth{Signer: payer, Signers: approvers},
			wantConds: []bounty.Condition{approvers[0], approvers[1], payer},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got := tc.auth.GetConditions(nil)
			if !reflect.DeepEqual(got, tc.wantConds) {
				t.Fatalf("want %v conditions, got %v", tc.wantConds, got)
			}
			for i, c := range tc.wantConds {
				if !tc.auth.HasAddress(nil, c.Address()) {
					t.Errorf("condition %d (%s) address should be present", i, c)
				}
			}
			if tc.auth.HasAddress(nil, outsider.Address()) {
				t.Fatal("outsider must not be authenticated")
			}
		})
	}
}

func TestAuthDoesNotModifySigners(t *testing.T) {
	approvers := NewConditions(3)
	third := approvers[2]

	// Signers shares the roster backing array.
	a := Auth{Signer: NewCondition(), Signers: approvers[:2]}
	a.GetConditions(nil)

	if !approvers[2].Equals(third) {
		t.Fatal("roster was overwritten by the main signer")
	}
}

func TestCtxAuth(t *testing.T) {
	a := CtxAuth{Key: "escrow"}
	other := CtxAuth{Key: "cash"}
	approvers := NewConditions(2)

	bg := context.Background()
	if got := a.GetConditions(bg); got != nil {
		t.Fatalf("want no conditions in an empty context, got %v", got)
	}

	ctx := a.SetConditions(bg, approvers...)
	if got := a.GetConditions(ctx); !reflect.DeepEqual(got, approvers) {
		t.Fatalf("want %v conditions, got %v", approvers, got)
	}
	for i, c := range approvers {
		if !a.HasAddress(ctx, c.Address()) {
			t.Errorf("approver %d (%s) address should be present", i, c)
		}
	}
	if a.HasAddress(ctx, NewCondition().Address()) {
		t.Fatal("outsider must not be authenticated")
	}

	// Authenticators using a different key do not see each other.
	if got := other.GetConditions(ctx); got != nil {
		t.Fatalf("want no conditions under another key, got %v", got)
	}
}
