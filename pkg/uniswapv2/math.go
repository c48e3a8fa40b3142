// Package uniswapv2 implements the constant-product pricing used by
// Uniswap V2 style pairs. All arithmetic is integer and truncating, matching
// the on-chain router.
package uniswapv2

import (
	"errors"
	"math/big"
)

// fee: 0.3% => multiplier 997/1000
var (
	feeMul = big.NewInt(997)
	feeDen = big.NewInt(1000)
	one    = big.NewInt(1)
)

var (
	ErrZeroReserves     = errors.New("uniswapv2: zero reserves")
	ErrExceedsReserves  = errors.New("uniswapv2: amount out exceeds reserves")
	ErrNonPositiveInput = errors.New("uniswapv2: amount must be positive")
)

func GetAmountOut(dst, t1, t2 *big.Int, amountIn, reserveIn, reserveOut *big.Int) *big.Int {
	// t1 = amountIn * 997
	t1.Mul(amountIn, feeMul)
	// t2 = reserveIn * 1000
	t2.Mul(reserveIn, feeDen)
	// t2 = t2 + t1  (denominator)
	t2.Add(t2, t1)
	// dst = t1 * reserveOut (numerator)
	dst.Mul(t1, reserveOut)
	// dst = dst / t2  (avoid aliasing z==y)
	return dst.Div(dst, t2)
}

// GetAmountIn is the router's inverse of GetAmountOut: the input needed to
// receive amountOut after the 0.3% fee, rounded up by one unit.
// The caller must ensure amountOut < reserveOut.
func GetAmountIn(dst, t1, t2 *big.Int, amountOut, reserveIn, reserveOut *big.Int) *big.Int {
	// t1 = reserveIn * amountOut * 1000
	t1.Mul(reserveIn, amountOut)
	t1.Mul(t1, feeDen)
	// t2 = (reserveOut - amountOut) * 997
	t2.Sub(reserveOut, amountOut)
	t2.Mul(t2, feeMul)
	dst.Div(t1, t2)
	return dst.Add(dst, one)
}

// QuoteIn returns the fee-less input required to take amountOut out of a
// pool holding reserveIn/reserveOut: amountOut*reserveIn/(reserveOut-amountOut).
func QuoteIn(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if err := checkReserves(reserveIn, reserveOut); err != nil {
		return nil, err
	}
	if amountOut == nil || amountOut.Sign() <= 0 {
		return nil, ErrNonPositiveInput
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, ErrExceedsReserves
	}
	den := new(big.Int).Sub(reserveOut, amountOut)
	num := new(big.Int).Mul(amountOut, reserveIn)
	return num.Div(num, den), nil
}

// QuoteOut returns the fee-less output for putting amountIn into a pool:
// amountIn*reserveOut/(reserveIn+amountIn).
func QuoteOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if err := checkReserves(reserveIn, reserveOut); err != nil {
		return nil, err
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrNonPositiveInput
	}
	den := new(big.Int).Add(reserveIn, amountIn)
	num := new(big.Int).Mul(amountIn, reserveOut)
	return num.Div(num, den), nil
}

func checkReserves(reserveIn, reserveOut *big.Int) error {
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return ErrZeroReserves
	}
	return nil
}
