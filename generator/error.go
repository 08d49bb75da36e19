// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package generator

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a transaction or withdrawal was rejected.
type ErrorKind uint8

const (
	Unknown ErrorKind = iota
	AuthenticationFailed
	InvalidNonce
	InsufficientBalance
	UnknownLockScript
	InvalidExitCode
)

func (k ErrorKind) String() string {
	switch k {
	case AuthenticationFailed:
		return "authentication failed"
	case InvalidNonce:
		return "invalid nonce"
	case InsufficientBalance:
		return "insufficient balance"
	case UnknownLockScript:
		return "unknown lock script"
	case InvalidExitCode:
		return "invalid exit code"
	default:
		return "unknown"
	}
}

var (
	ErrUnknownLockScript = errors.New("unknown lock script")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrBackendNotFound   = errors.New("backend not found")
	ErrLockNotAllowed    = errors.New("lock is not allowed for new accounts")
	ErrInvalidArgs       = errors.New("invalid args")
	ErrNotSUDT           = errors.New("account is not a simple UDT")
)

// Error is a rule violation. The entry that caused it is invalid against the
// state it ran on, and no write of it is kept.
//
// Any other error returned by the generator comes from the state itself and
// must be treated as fatal.
type Error struct {
	Kind ErrorKind
	Err  error
}

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsRejection reports whether [err] is a rule violation rather than a
// failure of the underlying state.
func IsRejection(err error) bool {
	var genErr *Error
	return errors.As(err, &genErr)
}

// KindOf returns the kind of a rule violation, or Unknown.
func KindOf(err error) ErrorKind {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return Unknown
}
