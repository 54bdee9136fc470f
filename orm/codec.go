package orm

import (
	amino "github.com/tendermint/go-amino"

	"github.com/iov-one/bounty/errors"
)

var cdc = amino.NewCodec()

// Marshal serializes given model into its binary representation.
func Marshal(m interface{}) ([]byte, error) {
	bz, err := cdc.MarshalBinaryBare(m)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidModel, "marshal %T: %s", m, err)
	}
	return bz, nil
}

// Unmarshal loads binary representation into given model. Destination must
// be a pointer.
func Unmarshal(bz []byte, dest interface{}) error {
	if err := cdc.UnmarshalBinaryBare(bz, dest); err != nil {
		return errors.Wrapf(errors.ErrInvalidModel, "unmarshal %T: %s", dest, err)
	}
	return nil
}
