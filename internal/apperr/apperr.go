// Package apperr defines the error taxonomy shared across the orderbook
// service, mirroring the sentinel-plus-wrap style of the teacher's
// exchange.ExchangeError (kept compatible with errors.Is/errors.As and the
// retry package's RetryableError interface).
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies one of the error classes the system distinguishes when
// deciding how to propagate a failure.
type Code string

const (
	// CodeUpstreamDecode marks a malformed message from the protocol
	// stream client. Never aborts the Stream Processor loop; the message
	// is dropped and logged.
	CodeUpstreamDecode Code = "UPSTREAM_DECODE"
	// CodeRPCUnavailable marks a failed RPC call (balances, gas price,
	// native USD price, latest block). Degrades the affected build
	// non-fatally where the contract allows it.
	CodeRPCUnavailable Code = "RPC_UNAVAILABLE"
	// CodeUnquotable marks a token pair with no viable valuation path to
	// the reference token. Fails the specific Orderbook Builder call.
	CodeUnquotable Code = "UNQUOTABLE"
	// CodeInvalidPair marks a malformed or unknown pair tag at the API
	// boundary.
	CodeInvalidPair Code = "INVALID_PAIR"
	// CodeSimError marks a pool simulator that could not produce a
	// quote for the requested amount/direction.
	CodeSimError Code = "SIM_ERROR"
	// CodeNotReady marks a call made before the Shared State Store has
	// completed its first full snapshot.
	CodeNotReady Code = "NOT_READY"
)

// Error is the typed error wrapper carried through the system. Code
// identifies the class; Err (optional) carries the underlying cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether this error class is worth retrying, matching
// pkg/retry's RetryableError interface so apperr.Error composes directly
// with retry.Do's default RetryIf predicate.
func (e *Error) Retryable() bool {
	return e.Code == CodeRPCUnavailable
}

// New builds an *Error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an *Error around an underlying cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Is reports whether err is (or wraps) an *Error with the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
