// Package vmerr defines the closed set of failures the interpreter and the
// world state can raise. Every failure is an *Error carrying a Kind; the
// exported sentinels match any *Error of the same Kind under errors.Is.
package vmerr

import (
	"errors"
	"fmt"
)

// Kind enumerates interpreter failure variants.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindBytecodeOutOfBounds
	KindOutOfGas
	KindStorageRetrieval
	KindEmptyCode
	KindAccountNotFound
	KindCodeNotFound
	KindEmptyBytecode
	KindInsufficientBalance
	KindOperationNotAllowed
	KindStaticStateChange
	KindInvalidOpcode
	KindInvalidJump
	KindStackUnderflow
	KindStackTooDeep
	KindStackOverflow
	KindRevert
	KindRevertWithoutData
	KindNotImplemented
	KindCallDepthExceeded
	KindMemoryLimit
)

var kindNames = [...]string{
	KindUnknown:             "unknown error",
	KindBytecodeOutOfBounds: "bytecode out of bounds",
	KindOutOfGas:            "out of gas",
	KindStorageRetrieval:    "storage retrieval failed",
	KindEmptyCode:           "empty code",
	KindAccountNotFound:     "account not found",
	KindCodeNotFound:        "code not found",
	KindEmptyBytecode:       "empty bytecode",
	KindInsufficientBalance: "insufficient balance",
	KindOperationNotAllowed: "operation not allowed",
	KindStaticStateChange:   "state change in static call",
	KindInvalidOpcode:       "invalid opcode",
	KindInvalidJump:         "invalid jump destination",
	KindStackUnderflow:      "stack underflow",
	KindStackTooDeep:        "stack too deep",
	KindStackOverflow:       "stack overflow",
	KindRevert:              "execution reverted",
	KindRevertWithoutData:   "execution reverted without data",
	KindNotImplemented:      "opcode not implemented",
	KindCallDepthExceeded:   "max call depth exceeded",
	KindMemoryLimit:         "memory limit exceeded",
}

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error is a tagged interpreter failure. Op is set for the opcode-carrying
// variants, Data for reverts, Err for a wrapped cause.
type Error struct {
	Kind Kind
	Op   byte
	Data []byte
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidOpcode, KindNotImplemented:
		return fmt.Sprintf("%s: 0x%02x", e.Kind, e.Op)
	case KindRevert:
		return fmt.Sprintf("%s: 0x%x", e.Kind, e.Data)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func (e *Error) Unwrap() error { return e.Err }

// Sentinels for errors.Is comparisons.
var (
	ErrBytecodeOutOfBounds = &Error{Kind: KindBytecodeOutOfBounds}
	ErrOutOfGas            = &Error{Kind: KindOutOfGas}
	ErrStorageRetrieval    = &Error{Kind: KindStorageRetrieval}
	ErrEmptyCode           = &Error{Kind: KindEmptyCode}
	ErrAccountNotFound     = &Error{Kind: KindAccountNotFound}
	ErrCodeNotFound        = &Error{Kind: KindCodeNotFound}
	ErrEmptyBytecode       = &Error{Kind: KindEmptyBytecode}
	ErrInsufficientBalance = &Error{Kind: KindInsufficientBalance}
	ErrOperationNotAllowed = &Error{Kind: KindOperationNotAllowed}
	ErrStaticStateChange   = &Error{Kind: KindStaticStateChange}
	ErrInvalidOpcode       = &Error{Kind: KindInvalidOpcode}
	ErrInvalidJump         = &Error{Kind: KindInvalidJump}
	ErrStackUnderflow      = &Error{Kind: KindStackUnderflow}
	ErrStackTooDeep        = &Error{Kind: KindStackTooDeep}
	ErrStackOverflow       = &Error{Kind: KindStackOverflow}
	ErrRevert              = &Error{Kind: KindRevert}
	ErrRevertWithoutData   = &Error{Kind: KindRevertWithoutData}
	ErrNotImplemented      = &Error{Kind: KindNotImplemented}
	ErrCallDepthExceeded   = &Error{Kind: KindCallDepthExceeded}
	ErrMemoryLimit         = &Error{Kind: KindMemoryLimit}
)

// InvalidOpcode reports an unassigned opcode byte.
func InvalidOpcode(op byte) error {
	return &Error{Kind: KindInvalidOpcode, Op: op}
}

// NotImplemented reports a recognized opcode the interpreter does not model.
func NotImplemented(op byte) error {
	return &Error{Kind: KindNotImplemented, Op: op}
}

// Revert reports an explicit REVERT. An empty payload yields the
// without-data variant.
func Revert(data []byte) error {
	if len(data) == 0 {
		return &Error{Kind: KindRevertWithoutData}
	}
	return &Error{Kind: KindRevert, Data: append([]byte(nil), data...)}
}

// Provider wraps a remote storage failure.
func Provider(err error) error {
	return &Error{Kind: KindStorageRetrieval, Err: err}
}

// KindOf extracts the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// RevertData returns the payload of a revert error, or nil.
func RevertData(err error) []byte {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindRevert {
		return e.Data
	}
	return nil
}

// IsRevert reports whether err is either revert variant.
func IsRevert(err error) bool {
	k := KindOf(err)
	return k == KindRevert || k == KindRevertWithoutData
}
