package cash

import (
	"strings"
	"testing"

	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/weavetest"
	"github.com/iov-one/bounty/weavetest/assert"
)

func TestSendMsgValidate(t *testing.T) {
	addr := weavetest.NewCondition().Address()
	addr2 := weavetest.NewCondition().Address()

	cases := map[string]struct {
		msg      *SendMsg
		wantErrs map[string]*errors.Error
	}{
		"valid": {
			msg: &SendMsg{Source: addr, Destination: addr2, Amount: 1},
			wantErrs: map[string]*errors.Error{
				"Amount": nil, "Source": nil, "Destination": nil, "Memo": nil,
			},
		},
		"everything wrong": {
			msg: &SendMsg{Memo: strings.Repeat("x", maxMemoSize+1)},
			wantErrs: map[string]*errors.Error{
				"Amount":      errors.ErrInvalidAmount,
				"Source":      errors.ErrInvalidInput,
				"Destination": errors.ErrInvalidInput,
				"Memo":        errors.ErrInvalidInput,
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.msg.Validate()
			for field, want := range tc.wantErrs {
				assert.FieldError(t, err, field, want)
			}
		})
	}
}
