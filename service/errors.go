package service

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure for callers.
type Kind string

const (
	KindInvalidAddress         Kind = "invalid_address"
	KindInvalidContractAddress Kind = "invalid_contract_address"
	KindNoPriorTransactions    Kind = "no_prior_transactions"
	KindNoMatchingOutput       Kind = "no_matching_output"
	KindFeeLookupFailed        Kind = "fee_lookup_failed"
	KindInsufficientBalance    Kind = "insufficient_balance"
	KindProviderRejected       Kind = "provider_rejected"
	KindExternalUnavailable    Kind = "external_unavailable"
	KindReceiptTimeout         Kind = "receipt_timeout"
	KindInternal               Kind = "internal_error"
)

// Error is the single normalized failure shape surfaced by both engines. The
// originating cause is attached, never replaced.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// newError creates a kinded error without a cause.
func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// wrapError creates a kinded error carrying the original cause.
func wrapError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the kind from an error chain, defaulting to internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
