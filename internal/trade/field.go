package trade

import "math/big"

// FieldState is the load state of a single snapshot value.
type FieldState uint8

const (
	// StateLoading means the value has not arrived yet. It is the zero state.
	StateLoading FieldState = iota
	// StateFailed means the read completed with an error.
	StateFailed
	// StateKnown means the value is present.
	StateKnown
)

func (s FieldState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateFailed:
		return "failed"
	case StateKnown:
		return "known"
	default:
		return "unknown"
	}
}

// Field holds one asynchronously loaded value. A zero Field is Loading, so a
// falsy but valid value (a zero balance) is never confused with "not loaded".
type Field[T any] struct {
	state FieldState
	value T
	err   error
}

func Loading[T any]() Field[T] {
	return Field[T]{}
}

func Failed[T any](err error) Field[T] {
	return Field[T]{state: StateFailed, err: err}
}

func Known[T any](v T) Field[T] {
	return Field[T]{state: StateKnown, value: v}
}

func (f Field[T]) State() FieldState { return f.state }

func (f Field[T]) IsLoading() bool { return f.state == StateLoading }

func (f Field[T]) IsFailed() bool { return f.state == StateFailed }

// Get returns the value and whether it is known.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.state == StateKnown
}

// Err returns the read error of a Failed field.
func (f Field[T]) Err() error { return f.err }

// Amount is a base-unit quantity loaded from chain.
type Amount = Field[*big.Int]

// KnownAmount copies v so the snapshot never aliases a caller's big.Int.
func KnownAmount(v *big.Int) Amount {
	if v == nil {
		return Known[*big.Int](nil)
	}
	return Known(new(big.Int).Set(v))
}
