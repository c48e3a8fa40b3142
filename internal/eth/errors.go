package eth

import "errors"

var (
	ErrPairMismatch    = errors.New("pair does not match src/dst")
	ErrUnexpectedReply = errors.New("unexpected contract reply")
)
