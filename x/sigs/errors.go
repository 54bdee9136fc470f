package sigs

import (
	"github.com/iov-one/bounty/errors"
)

// x/sigs reserves 120 ~ 129.
var (
	ErrInvalidSequence = errors.Register(120, "invalid sequence number")
)

// IsInvalidSignatureErr returns true if given error is caused by a missing
// or not matching signature.
var IsInvalidSignatureErr = errors.ErrUnauthorized.Is
