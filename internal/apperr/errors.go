// Package apperr defines the error taxonomy of the client. Remote failures
// are tagged with a Kind where they cross the wallet or ledger boundary, so
// control flow never depends on message text.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindNoProvider           Kind = "no-provider"
	KindWrongNetwork         Kind = "wrong-network"
	KindMissingConfiguration Kind = "missing-configuration"
	KindUserRejected         Kind = "user-rejected"
	KindInsufficientFunds    Kind = "insufficient-funds"
	KindInsufficientBalance  Kind = "insufficient-balance"
	KindExceedsMaxWithdrawal Kind = "exceeds-max-withdrawal"
	KindExceedsBankCap       Kind = "exceeds-bank-cap"
	KindNotOwner             Kind = "not-owner"
	KindRemote               Kind = "remote-error"
	KindValidation           Kind = "validation-error"
	KindBusy                 Kind = "busy"
	KindSessionInvalidated   Kind = "session-invalidated"
)

// Local validation failures. They are always wrapped in a KindValidation Error.
var (
	ErrInvalidAmount         = errors.New("amount must be a positive number")
	ErrTooManyDecimals       = errors.New("amount has more than 18 decimals")
	ErrExceedsWalletBalance  = errors.New("amount exceeds wallet balance")
	ErrExceedsBankCapacity   = errors.New("amount exceeds remaining bank capacity")
	ErrExceedsUserBalance    = errors.New("amount exceeds deposited balance")
	ErrExceedsWithdrawLimit  = errors.New("amount exceeds maximum withdrawal per transaction")
	ErrNoFundsAvailable      = errors.New("the bank holds no funds")
	ErrPartialFunds          = errors.New("the bank holds less than the deposited balance")
	ErrExceedsBankBalance    = errors.New("amount exceeds bank balance")
	ErrInvalidAddress        = errors.New("invalid address")
	ErrSameAddress           = errors.New("address is the current account")
	ErrSnapshotNotLoaded     = errors.New("ledger data not loaded")
	ErrTransactionInProgress = errors.New("another transaction is in progress")
)

// Error is a failure tagged with its Kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New tags err with kind. An err that already carries a Kind keeps it.
func New(kind Kind, op string, err error) error {
	var tagged *Error
	if errors.As(err, &tagged) {
		return &Error{Kind: tagged.Kind, Op: op, Err: err}
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation wraps a local pre-check failure.
func Validation(op string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

// KindOf returns the Kind of err. Untagged errors are remote errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return KindRemote
}

// Is reports whether err is tagged with kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
