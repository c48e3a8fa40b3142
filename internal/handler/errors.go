package handler

import "github.com/gofiber/fiber/v3"

// ErrInvalidQueryParameters indicates that the request query string could not
// be parsed into the expected structure.
var ErrInvalidQueryParameters = fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")

// ErrSameAddresses is returned when src and dst addresses are identical.
var ErrSameAddresses = fiber.NewError(fiber.StatusBadRequest, "src and dst addresses cannot be the same")

// ErrAmountRequired is returned when neither src_amount nor dst_amount is set.
var ErrAmountRequired = fiber.NewError(fiber.StatusBadRequest, "src_amount or dst_amount is required")

// ErrAmbiguousAmount is returned when both src_amount and dst_amount are set.
var ErrAmbiguousAmount = fiber.NewError(fiber.StatusBadRequest, "only one of src_amount and dst_amount may be set")

// ErrInvalidAmountFormat is returned when the amount cannot be parsed as a
// base-10 integer.
var ErrInvalidAmountFormat = fiber.NewError(fiber.StatusBadRequest, "invalid amount format")

// ErrAmountNonPositive is returned when the amount is zero or negative.
var ErrAmountNonPositive = fiber.NewError(fiber.StatusBadRequest, "amount must be greater than zero")

// ErrSameTokenBadRequest maps a same-token validation failure to a 400 error.
var ErrSameTokenBadRequest = fiber.NewError(fiber.StatusBadRequest, "src and dst tokens cannot be the same")

// ErrEmptyReservesBadRequest maps empty-reserve pool state to a 400 error.
var ErrEmptyReservesBadRequest = fiber.NewError(fiber.StatusBadRequest, "pool has insufficient reserves")

// ErrPairMismatchBadRequest is returned when the pool does not hold src and dst.
var ErrPairMismatchBadRequest = fiber.NewError(fiber.StatusBadRequest, "pool does not trade src against dst")

// ErrEstimationFailedInternal signals a generic server-side estimation error.
var ErrEstimationFailedInternal = fiber.NewError(fiber.StatusInternalServerError, "estimation failed")

// ErrNotReady is returned while the market data a quote needs is loading,
// or when the crowdsale is not currently offered.
var ErrNotReady = fiber.NewError(fiber.StatusConflict, "market data not ready")

// ErrUnknownToken is returned for a token symbol with no configured pool.
var ErrUnknownToken = fiber.NewError(fiber.StatusBadRequest, "unknown token")

// ErrInvalidKind is returned for a kind other than buy, sell or crowdsale.
var ErrInvalidKind = fiber.NewError(fiber.StatusBadRequest, "kind must be buy, sell or crowdsale")

// ErrQuoteFailedInternal signals a generic server-side quoting error.
var ErrQuoteFailedInternal = fiber.NewError(fiber.StatusInternalServerError, "quote failed")

// NewAddressRequired returns a 400 Bad Request for a missing address field.
func NewAddressRequired(field string) error {
	return fiber.NewError(fiber.StatusBadRequest, field+" address is required")
}

// NewInvalidAddress returns a 400 Bad Request for an invalid address format.
func NewInvalidAddress(field string) error {
	return fiber.NewError(fiber.StatusBadRequest, "invalid "+field+" address")
}

// NewInvalidField returns a 400 Bad Request naming the rejected query field.
func NewInvalidField(field string) error {
	return fiber.NewError(fiber.StatusBadRequest, "invalid "+field)
}
