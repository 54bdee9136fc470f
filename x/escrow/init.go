package escrow

import (
	"github.com/iov-one/bounty"
	"github.com/iov-one/bounty/errors"
	"github.com/iov-one/bounty/gconf"
)

// Initializer fulfils the Initializer interface to load the governance
// state from the genesis file.
type Initializer struct{}

var _ bounty.Initializer = Initializer{}

// FromGenesis stores the governance state found under the "escrow" key.
// Vaults cannot be created at genesis, so the escrowed total must be zero.
func (Initializer) FromGenesis(opts bounty.Options, kv bounty.KVStore) error {
	var state State
	if err := opts.ReadOptions(stateKey, &state); err != nil {
		return err
	}
	if state.TotalEscrowed != 0 {
		return errors.Field("TotalEscrowed", errors.ErrInvalidState, "must be zero at genesis")
	}
	return gconf.InitConfig(kv, opts, stateKey, &state)
}
