package market

import "errors"

var (
	// ErrUnknownToken is returned when binding a token with no configured pool.
	ErrUnknownToken = errors.New("unknown selected token")
	ErrClosed       = errors.New("aggregator closed")
)
