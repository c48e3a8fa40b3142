package handler

import (
	"context"
	"errors"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/nulln0ne/wines-storefront/internal/service"
	"github.com/nulln0ne/wines-storefront/internal/trade"
	"github.com/nulln0ne/wines-storefront/pkg/amount"
)

const (
	displayDecimals = 4
	usdDecimals     = 2
)

// Quoter is the storefront quoting surface. *service.QuoteService
// implements it.
type Quoter interface {
	Quote(ctx context.Context, c trade.Context, quantity string) (*service.Quote, error)
	Ready(ctx context.Context, c trade.Context) (bool, error)
	Price(ctx context.Context) (*service.Price, error)
}

var _ Quoter = (*service.QuoteService)(nil)

type QuoteHandler struct {
	BaseHandler
	service Quoter
}

func NewQuoteHandler(logger *slog.Logger, svc Quoter) *QuoteHandler {
	return &QuoteHandler{
		BaseHandler: newBaseHandler(logger),
		service:     svc,
	}
}

// QuoteRequest leaves quantity unchecked here: a bad quantity is a trade
// validation result, not a malformed request.
type QuoteRequest struct {
	Kind     string `query:"kind" validate:"required,oneof=buy sell crowdsale"`
	Quantity string `query:"quantity" validate:"max=78"`
	Account  string `query:"account" validate:"omitempty,eth_addr"`
	Token    string `query:"token" validate:"omitempty,alphanum,max=16"`
}

type QuoteResponse struct {
	Kind               string     `json:"kind"`
	Token              string     `json:"token"`
	InputValue         string     `json:"input_value,omitempty"`
	OutputValue        string     `json:"output_value,omitempty"`
	MaximumInputValue  string     `json:"maximum_input_value,omitempty"`
	MinimumOutputValue string     `json:"minimum_output_value,omitempty"`
	InputDisplay       string     `json:"input_display,omitempty"`
	OutputDisplay      string     `json:"output_display,omitempty"`
	USDValue           string     `json:"usd_value,omitempty"`
	BlockNumber        uint64     `json:"block_number"`
	Error              *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Action  string `json:"action"`
	Detail  string `json:"detail,omitempty"`
}

type ReadyResponse struct {
	Ready bool `json:"ready"`
}

type PriceResponse struct {
	PoolETH      string `json:"pool_eth"`
	PoolUSD      string `json:"pool_usd,omitempty"`
	CrowdsaleETH string `json:"crowdsale_eth,omitempty"`
	CrowdsaleUSD string `json:"crowdsale_usd,omitempty"`
	ETHUSD       string `json:"eth_usd,omitempty"`
	BlockNumber  uint64 `json:"block_number"`
}

// HandleQuote serves GET /v1/quote.
func (h *QuoteHandler) HandleQuote() fiber.Handler {
	return func(c fiber.Ctx) error {
		tc, req, err := h.parseContext(c)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		q, err := h.service.Quote(ctx, tc, req.Quantity)
		if err != nil {
			return h.handleServiceError(err)
		}
		return c.JSON(h.quoteResponse(q))
	}
}

// HandleReady serves GET /v1/ready.
func (h *QuoteHandler) HandleReady() fiber.Handler {
	return func(c fiber.Ctx) error {
		tc, _, err := h.parseContext(c)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		ready, err := h.service.Ready(ctx, tc)
		if err != nil {
			return h.handleServiceError(err)
		}
		return c.JSON(ReadyResponse{Ready: ready})
	}
}

// HandlePrice serves GET /v1/price.
func (h *QuoteHandler) HandlePrice() fiber.Handler {
	return func(c fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		p, err := h.service.Price(ctx)
		if err != nil {
			return h.handleServiceError(err)
		}
		return c.JSON(PriceResponse{
			PoolETH:      formatOrEmpty(p.PoolETH, displayDecimals),
			PoolUSD:      formatOrEmpty(p.PoolUSD, usdDecimals),
			CrowdsaleETH: formatOrEmpty(p.CrowdsaleETH, displayDecimals),
			CrowdsaleUSD: formatOrEmpty(p.CrowdsaleUSD, usdDecimals),
			ETHUSD:       formatOrEmpty(p.ETHUSD, usdDecimals),
			BlockNumber:  p.BlockNumber,
		})
	}
}

func (h *QuoteHandler) parseContext(c fiber.Ctx) (trade.Context, *QuoteRequest, error) {
	var req QuoteRequest
	if err := c.Bind().Query(&req); err != nil {
		h.logger.Debug("failed to bind query parameters", "err", err)
		return trade.Context{}, nil, ErrInvalidQueryParameters
	}

	if err := h.validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			if verrs[0].Field() == "Account" {
				return trade.Context{}, nil, NewInvalidAddress("account")
			}
			return trade.Context{}, nil, NewInvalidField(verrs[0].Tag() + " " + verrs[0].Field())
		}
		return trade.Context{}, nil, ErrInvalidQueryParameters
	}

	tc := trade.Context{
		SelectedToken: trade.ParseSymbol(req.Token),
		Kind:          trade.Kind(req.Kind),
	}
	if req.Account != "" {
		tc.Account = common.HexToAddress(req.Account)
	}
	return tc, &req, nil
}

func (h *QuoteHandler) quoteResponse(q *service.Quote) QuoteResponse {
	resp := QuoteResponse{
		Kind:        string(q.Context.Kind),
		Token:       string(q.Context.SelectedToken),
		BlockNumber: q.BlockNumber,
	}
	if q.Failure != nil {
		resp.Error = &ErrorBody{
			Code:    string(q.Failure.Code),
			Message: q.Failure.MessageKey(),
			Action:  q.Failure.Action(),
			Detail:  q.Failure.Detail,
		}
		return resp
	}

	p := q.Plan
	resp.InputValue = p.InputValue.String()
	resp.OutputValue = p.OutputValue.String()
	if p.MaximumInputValue != nil {
		resp.MaximumInputValue = p.MaximumInputValue.String()
	}
	if p.MinimumOutputValue != nil {
		resp.MinimumOutputValue = p.MinimumOutputValue.String()
	}
	resp.InputDisplay = displayOrEmpty(p.InputValue)
	resp.OutputDisplay = displayOrEmpty(p.OutputValue)
	resp.USDValue = formatOrEmpty(q.USDValue, usdDecimals)
	return resp
}

func (h *QuoteHandler) handleServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotReady):
		return ErrNotReady
	case errors.Is(err, service.ErrUnknownToken):
		return ErrUnknownToken
	case errors.Is(err, service.ErrInvalidKind):
		return ErrInvalidKind
	default:
		h.logger.Error("quote failed", "err", err)
		return ErrQuoteFailedInternal
	}
}

func formatOrEmpty(v *big.Int, display int) string {
	if v == nil {
		return ""
	}
	s, err := amount.Format(v, amount.Decimals, display)
	if err != nil {
		return ""
	}
	return s
}

func displayOrEmpty(v *big.Int) string {
	if v == nil {
		return ""
	}
	s, err := amount.FormatLessThan(v, amount.Decimals, displayDecimals)
	if err != nil {
		return ""
	}
	return s
}
