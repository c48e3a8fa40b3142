package trade

import (
	"math/big"

	"github.com/nulln0ne/wines-storefront/pkg/amount"
)

var scale = amount.Unit(amount.Decimals)

// GetExchangeRate returns outputReserve/inputReserve scaled by 1e18,
// truncating. A nil or zero reserve yields InsufficientReserves.
func GetExchangeRate(inputReserve, outputReserve *big.Int) (*big.Int, error) {
	if inputReserve == nil || outputReserve == nil || inputReserve.Sign() <= 0 || outputReserve.Sign() <= 0 {
		return nil, newError(CodeInsufficientReserves, "cannot price against an empty pool")
	}
	r := new(big.Int).Mul(outputReserve, scale)
	return r.Div(r, inputReserve), nil
}

// CrossRate chains two scaled rates that share a denominator: a/b scaled by
// 1e18. Used to derive a token's USD rate through ETH.
func CrossRate(a, b *big.Int) (*big.Int, error) {
	if a == nil || b == nil || b.Sign() <= 0 {
		return nil, newError(CodeInsufficientReserves, "cannot cross an empty rate")
	}
	r := new(big.Int).Mul(a, scale)
	return r.Div(r, b), nil
}

// Dollarize converts a base-unit amount using a 1e18-scaled rate. A nil rate
// yields zero.
func Dollarize(amt, rate *big.Int) *big.Int {
	if amt == nil || rate == nil {
		return new(big.Int)
	}
	r := new(big.Int).Mul(amt, rate)
	return r.Div(r, scale)
}
