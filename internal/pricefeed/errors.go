package pricefeed

import "errors"

var (
	ErrUnexpectedStatus = errors.New("price feed returned non-200 status")
	ErrPriceNotFound    = errors.New("price not found in feed response")
	ErrNonPositivePrice = errors.New("price feed returned a non-positive price")
)
