package handler

import (
	"context"
	"math/big"

	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v3"
	"github.com/nulln0ne/wines-storefront/internal/service"
)

// EstimateHandler serves raw Uniswap V2 swap estimates for any pool.
type EstimateHandler struct {
	BaseHandler
	service *service.EstimateService
}

func NewEstimateHandler(logger *slog.Logger, svc *service.EstimateService) *EstimateHandler {
	return &EstimateHandler{
		BaseHandler: newBaseHandler(logger),
		service:     svc,
	}
}

// EstimateRequest selects the direction by which amount is set: src_amount
// estimates the output, dst_amount the required input.
type EstimateRequest struct {
	Pool      string `query:"pool" json:"pool"`
	Src       string `query:"src" json:"src"`
	Dst       string `query:"dst" json:"dst"`
	AmountIn  string `query:"src_amount" json:"amount_in"`
	AmountOut string `query:"dst_amount" json:"amount_out"`
}

func (h *EstimateHandler) Handle() fiber.Handler {
	return func(c fiber.Ctx) error {
		req, err := h.parseAndValidateRequest(c)
		if err != nil {
			return err
		}

		pool := common.HexToAddress(req.Pool)
		src := common.HexToAddress(req.Src)
		dst := common.HexToAddress(req.Dst)

		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		if req.AmountOut != "" {
			amountOut, err := h.parseAmount(req.AmountOut)
			if err != nil {
				return err
			}
			amountIn, err := h.service.EstimateIn(ctx, pool, src, dst, amountOut)
			if err != nil {
				return h.handleServiceError(err)
			}
			h.logger.Debug("input estimate computed", "pool", req.Pool, "src", req.Src, "dst", req.Dst, "out", amountOut.String(), "in", amountIn.String())
			return c.SendString(amountIn.String())
		}

		amountIn, err := h.parseAmount(req.AmountIn)
		if err != nil {
			return err
		}
		amountOut, err := h.service.Estimate(ctx, pool, src, dst, amountIn)
		if err != nil {
			return h.handleServiceError(err)
		}

		h.logger.Debug("estimate computed", "pool", req.Pool, "src", req.Src, "dst", req.Dst, "in", amountIn.String(), "out", amountOut.String())
		return c.SendString(amountOut.String())
	}
}

func (h *EstimateHandler) parseAndValidateRequest(c fiber.Ctx) (*EstimateRequest, error) {
	var req EstimateRequest

	if err := c.Bind().Query(&req); err != nil {
		h.logger.Debug("failed to bind query parameters", "err", err)
		return nil, ErrInvalidQueryParameters
	}

	if err := h.validateAddresses(&req); err != nil {
		return nil, err
	}

	switch {
	case req.AmountIn == "" && req.AmountOut == "":
		return nil, ErrAmountRequired
	case req.AmountIn != "" && req.AmountOut != "":
		return nil, ErrAmbiguousAmount
	}

	return &req, nil
}

func (h *EstimateHandler) validateAddresses(req *EstimateRequest) error {
	// checked in order: pool, src, dst
	fields := []struct{ name, addr string }{
		{"pool", req.Pool},
		{"src", req.Src},
		{"dst", req.Dst},
	}

	for _, f := range fields {
		if f.addr == "" {
			return NewAddressRequired(f.name)
		}
		if !common.IsHexAddress(f.addr) {
			return NewInvalidAddress(f.name)
		}
	}

	if common.HexToAddress(req.Src) == common.HexToAddress(req.Dst) {
		return ErrSameAddresses
	}

	return nil
}

func (h *EstimateHandler) parseAmount(amountStr string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(amountStr, 10)
	if !ok {
		return nil, ErrInvalidAmountFormat
	}

	if amount.Sign() <= 0 {
		return nil, ErrAmountNonPositive
	}

	return amount, nil
}

func (h *EstimateHandler) handleServiceError(err error) error {
	switch err {
	case service.ErrSameToken:
		return ErrSameTokenBadRequest
	case service.ErrEmptyReserves, service.ErrInsufficientLiquidity:
		return ErrEmptyReservesBadRequest
	case service.ErrPairMismatch:
		return ErrPairMismatchBadRequest
	default:
		h.logger.Error("service estimate failed", "err", err)
		return ErrEstimationFailedInternal
	}
}
