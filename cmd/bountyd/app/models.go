package bountyd

import (
	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/orm"
	"github.com/iov-one/bounty/x/cash"
	"github.com/iov-one/bounty/x/escrow"
	"github.com/iov-one/bounty/x/sigs"
)

// modelTypes maps query paths to the type of the values they return.
var modelTypes = map[string]func() interface{}{
	"/wallets":     func() interface{} { return &cash.Wallet{} },
	"/vaults":      func() interface{} { return &escrow.Vault{} },
	"/approvals":   func() interface{} { return &escrow.Approval{} },
	"/escrowstate": func() interface{} { return &escrow.State{} },
	"/auth":        func() interface{} { return &sigs.UserData{} },
}

// DecodeModel returns the value of a model returned by a query to given
// path. Values of unknown paths are returned as they are.
func DecodeModel(path string, m bounty.Model) (interface{}, error) {
	fn, ok := modelTypes[path]
	if !ok {
		return m.Value, nil
	}
	dest := fn()
	if err := orm.Unmarshal(m.Value, dest); err != nil {
		return nil, err
	}
	return dest, nil
}
