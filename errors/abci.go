package errors

import (
	"fmt"
	"reflect"
)

const (
	// SuccessABCICode is the code of a transaction or query that did not
	// fail.
	SuccessABCICode = 0

	// Errors without a registered code, for example storage or encoding
	// failures of the standard library, are reported under a single
	// internal code with a generic message.
	internalABCICode uint32 = 1
	internalABCILog         = "internal error"
)

// ABCIInfo returns the code and the message of an error that can be shown to
// a client, for example "escrow is disputed" with code 1502.
//
// Errors without a registered code get code 1. Outside of debug mode their
// message is replaced with "internal error", and so is the message of a
// recovered panic, which carries the panic value. In debug mode the full
// message with the stack trace is returned.
func ABCIInfo(err error, debug bool) (uint32, string) {
	if errIsNil(err) {
		return SuccessABCICode, ""
	}

	code := abciCode(err)
	switch {
	case debug:
		return code, fmt.Sprintf("%+v", err)
	case code == internalABCICode, ErrPanic.Is(err):
		return code, internalABCILog
	default:
		return code, err.Error()
	}
}

type coder interface {
	ABCICode() uint32
}

// abciCode returns the code of the first error in the cause chain that
// provides one.
func abciCode(err error) uint32 {
	if errIsNil(err) {
		return SuccessABCICode
	}

	for {
		if c, ok := err.(coder); ok {
			return c.ABCICode()
		}

		if c, ok := err.(causer); ok {
			err = c.Cause()
		} else {
			return internalABCICode
		}
	}
}

// errIsNil returns true if value represented by the given error is nil.
func errIsNil(err error) bool {
	if err == nil {
		return true
	}
	if val := reflect.ValueOf(err); val.Kind() == reflect.Ptr {
		return val.IsNil()
	}
	return false
}
