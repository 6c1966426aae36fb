// internal/util/errors.go
package util

import (
	"errors"
	"fmt"
)

// Base error kinds. Stores and services wrap these so callers can match with errors.Is.
var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrStorage             = errors.New("storage error")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// ErrNotApplied marks a storage failure after which the store guarantees that
// nothing was written. It always accompanies ErrStorage.
var ErrNotApplied = errors.New("write not applied")

// Specific validation failures. Each one is an ErrInvalidRequest.
var (
	ErrSameWalletTransfer = fmt.Errorf("%w: cannot transfer to the same wallet", ErrInvalidRequest)
	ErrInvalidAmount      = fmt.Errorf("%w: amount must be positive with at most 2 decimal places", ErrInvalidRequest)
	ErrCurrencyMismatch   = fmt.Errorf("%w: wallet currencies do not match", ErrInvalidRequest)
	ErrDescriptionTooLong = fmt.Errorf("%w: description is too long", ErrInvalidRequest)
	ErrMissingWalletID    = fmt.Errorf("%w: wallet id is required", ErrInvalidRequest)
)

// ErrorKind classifies a transfer failure for callers.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidRequest
	KindWalletNotFound
	KindInsufficientFunds
	KindStorage
	KindConcurrencyConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidRequest:
		return "InvalidRequest"
	case KindWalletNotFound:
		return "WalletNotFound"
	case KindInsufficientFunds:
		return "InsufficientFunds"
	case KindStorage:
		return "StorageError"
	case KindConcurrencyConflict:
		return "ConcurrencyConflict"
	default:
		return "Unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidRequest:
		return ErrInvalidRequest
	case KindWalletNotFound:
		return ErrWalletNotFound
	case KindInsufficientFunds:
		return ErrInsufficientFunds
	case KindStorage:
		return ErrStorage
	case KindConcurrencyConflict:
		return ErrConcurrencyConflict
	default:
		return nil
	}
}

// TransferError is the typed failure returned by the transfer engine.
type TransferError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewTransferError creates a TransferError for the given operation.
func NewTransferError(op string, kind ErrorKind, err error) *TransferError {
	return &TransferError{Kind: kind, Op: op, Err: err}
}

func (e *TransferError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStorage) match a TransferError of kind KindStorage
// even when the wrapped cause is a driver error.
func (e *TransferError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf reports the error kind of err. Wrapped sentinels are recognised as well.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var te *TransferError
	if errors.As(err, &te) {
		return te.Kind
	}
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrWalletNotFound):
		return KindWalletNotFound
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, ErrConcurrencyConflict):
		return KindConcurrencyConflict
	case errors.Is(err, ErrStorage):
		return KindStorage
	default:
		return KindUnknown
	}
}

// IsError reports whether err matches target anywhere in its chain.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
