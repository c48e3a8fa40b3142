package service

import "errors"

var (
	ErrSameToken             = errors.New("src and dst are equal")
	ErrPairMismatch          = errors.New("pair does not match src/dst")
	ErrEmptyReserves         = errors.New("empty reserves")
	ErrInsufficientLiquidity = errors.New("requested output exceeds pool reserves")

	// ErrNotReady is returned when the snapshot for a quote is still loading.
	ErrNotReady     = errors.New("market snapshot not ready")
	ErrUnknownToken = errors.New("unknown selected token")
	ErrInvalidKind  = errors.New("invalid trade kind")
)
