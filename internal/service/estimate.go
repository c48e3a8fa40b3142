package service

import (
	"context"
	"errors"
	"math/big"

	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nulln0ne/wines-storefront/internal/eth"
	"github.com/nulln0ne/wines-storefront/pkg/uniswapv2"
)

// PairStateReader reads a pair's tokens and reserves from storage.
// *eth.Reader implements it.
type PairStateReader interface {
	PairState(ctx context.Context, pool common.Address) (eth.PairState, error)
}

var _ PairStateReader = (*eth.Reader)(nil)

// EstimateService prices arbitrary Uniswap V2 swaps from on-chain pair
// storage, fee included.
type EstimateService struct {
	BaseService
	pairs PairStateReader
}

func NewEstimateService(logger *slog.Logger, pairs PairStateReader) *EstimateService {
	return &EstimateService{
		BaseService: BaseService{logger: logger},
		pairs:       pairs,
	}
}

// Estimate returns the output of swapping amountIn of src into dst in pool.
func (e *EstimateService) Estimate(ctx context.Context, pool, src, dst common.Address, amountIn *big.Int) (*big.Int, error) {
	e.logger.Debug("estimating swap", "pool", pool.Hex(), "src", src.Hex(), "dst", dst.Hex(), "in", amountIn.String())

	reserveIn, reserveOut, err := e.reserves(ctx, pool, src, dst)
	if err != nil {
		return nil, err
	}

	var outAmt, tmp1, tmp2 big.Int
	out := uniswapv2.GetAmountOut(&outAmt, &tmp1, &tmp2, amountIn, reserveIn, reserveOut)
	e.logger.Debug("amount out computed", "out", out.String())
	return out, nil
}

// EstimateIn returns the src amount needed to receive amountOut of dst.
func (e *EstimateService) EstimateIn(ctx context.Context, pool, src, dst common.Address, amountOut *big.Int) (*big.Int, error) {
	e.logger.Debug("estimating swap input", "pool", pool.Hex(), "src", src.Hex(), "dst", dst.Hex(), "out", amountOut.String())

	reserveIn, reserveOut, err := e.reserves(ctx, pool, src, dst)
	if err != nil {
		return nil, err
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}

	var inAmt, tmp1, tmp2 big.Int
	in := uniswapv2.GetAmountIn(&inAmt, &tmp1, &tmp2, amountOut, reserveIn, reserveOut)
	e.logger.Debug("amount in computed", "in", in.String())
	return in, nil
}

func (e *EstimateService) reserves(ctx context.Context, pool, src, dst common.Address) (*big.Int, *big.Int, error) {
	if src == dst {
		return nil, nil, ErrSameToken
	}

	st, err := e.pairs.PairState(ctx, pool)
	if err != nil {
		return nil, nil, err
	}

	reserveIn, reserveOut, err := st.Oriented(src, dst)
	if errors.Is(err, eth.ErrPairMismatch) {
		return nil, nil, ErrPairMismatch
	}
	if err != nil {
		return nil, nil, err
	}

	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return nil, nil, ErrEmptyReserves
	}
	return reserveIn, reserveOut, nil
}
