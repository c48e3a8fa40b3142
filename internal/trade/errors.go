package trade

import (
	"errors"
	"fmt"
)

// Code is the closed set of validation failures.
type Code string

const (
	CodeInvalidAmount                    Code = "InvalidAmount"
	CodeInvalidTrade                     Code = "InvalidTrade"
	CodeInsufficientAllowance            Code = "InsufficientAllowance"
	CodeInsufficientETHGas               Code = "InsufficientETHGas"
	CodeInsufficientSelectedTokenBalance Code = "InsufficientSelectedTokenBalance"
	CodeInsufficientReserves             Code = "InsufficientReserves"
)

var messageKeys = map[Code]string{
	CodeInvalidAmount:                    "invalid-amount",
	CodeInvalidTrade:                     "invalid-trade",
	CodeInsufficientAllowance:            "no-allowance",
	CodeInsufficientETHGas:               "no-eth",
	CodeInsufficientSelectedTokenBalance: "no-tokens",
	CodeInsufficientReserves:             "no-reserves",
}

// MessageKey is the localisation key shown for the code.
func (c Code) MessageKey() string {
	if k, ok := messageKeys[c]; ok {
		return k
	}
	return "unknown-error"
}

// Remediable reports whether the UI offers an action (approve) instead of
// just disabling the trade.
func (c Code) Remediable() bool {
	return c == CodeInsufficientAllowance
}

// ValidationError is an expected validation failure returned as data.
type ValidationError struct {
	Code    Code
	Context string
}

func (e *ValidationError) Error() string {
	if e.Context == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Context
}

// Is matches any ValidationError with the same code, so callers can use
// errors.Is(err, trade.ErrInsufficientAllowance).
func (e *ValidationError) Is(target error) bool {
	var t *ValidationError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrInvalidAmount                    = &ValidationError{Code: CodeInvalidAmount}
	ErrInvalidTrade                     = &ValidationError{Code: CodeInvalidTrade}
	ErrInsufficientAllowance            = &ValidationError{Code: CodeInsufficientAllowance}
	ErrInsufficientETHGas               = &ValidationError{Code: CodeInsufficientETHGas}
	ErrInsufficientSelectedTokenBalance = &ValidationError{Code: CodeInsufficientSelectedTokenBalance}
	ErrInsufficientReserves             = &ValidationError{Code: CodeInsufficientReserves}
)

var (
	// ErrSnapshotIncomplete is returned when a field the validator needs is
	// still loading. Callers should gate on Ready instead of hitting it.
	ErrSnapshotIncomplete = errors.New("snapshot incomplete")
	// ErrMalformedSnapshot signals a snapshot that is internally inconsistent
	// (a known amount that is nil or negative).
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)

func newError(code Code, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Context: fmt.Sprintf(format, args...)}
}

// CodeOf maps err to a code. Faults that are not validation errors are
// reported as InvalidTrade.
func CodeOf(err error) (Code, bool) {
	if err == nil {
		return "", false
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code, true
	}
	return CodeInvalidTrade, true
}
