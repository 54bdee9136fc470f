// Package bech32 converts addresses to and from the bech32 format, where
// the human readable part names the network the address belongs to.
package bech32

import (
	"github.com/btcsuite/btcutil/bech32"
	"github.com/iov-one/bounty/errors"
)

// Encode returns the bech32 representation of payload under given human
// readable part.
func Encode(hrp string, payload []byte) ([]byte, error) {
	groups, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "regroup payload: %s", err)
	}
	raw, err := bech32.Encode(hrp, groups)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "encode: %s", err)
	}
	return []byte(raw), nil
}

// Decode returns the human readable part and the payload of a bech32
// string. The checksum is verified.
func Decode(raw string) (string, []byte, error) {
	hrp, groups, err := bech32.Decode(raw)
	if err != nil {
		return "", nil, errors.Wrapf(errors.ErrInvalidInput, "decode: %s", err)
	}
	payload, err := bech32.ConvertBits(groups, 5, 8, false)
	if err != nil {
		return "", nil, errors.Wrapf(errors.ErrInvalidInput, "regroup payload: %s", err)
	}
	return hrp, payload, nil
}

// DecodeWithPrefix works like Decode but fails unless the human readable
// part equals hrp, so an address of another network is never accepted.
func DecodeWithPrefix(hrp, raw string) ([]byte, error) {
	got, payload, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	if got != hrp {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "want %q prefix, got %q", hrp, got)
	}
	return payload, nil
}
