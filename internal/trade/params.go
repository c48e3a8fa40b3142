package trade

import (
	"math/big"

	"github.com/nulln0ne/wines-storefront/pkg/amount"
)

const bpsDenominator = 10_000

// Params are the tunable constants of quoting and readiness.
type Params struct {
	// Decimals of the WINES token.
	Decimals int
	// SlippageBps is the proportional margin applied to quotes: maximum
	// input is marked up, minimum output marked down by this many basis
	// points. Pending product sign-off; defaults to 100.
	SlippageBps int64
	// MinGasReserve is the native balance below which trades are refused.
	MinGasReserve *big.Int
	// CrowdsaleReadyOffset is how many whole tokens must remain under the
	// cap for the crowdsale to be offered at all.
	CrowdsaleReadyOffset int64
}

// DefaultParams: 1% margin, 0.01 ETH gas reserve, offset of 6 tokens.
func DefaultParams() Params {
	return Params{
		Decimals:             amount.Decimals,
		SlippageBps:          100,
		MinGasReserve:        new(big.Int).Div(amount.Unit(amount.Decimals), big.NewInt(100)),
		CrowdsaleReadyOffset: 6,
	}
}

func (p Params) markUp(v *big.Int) *big.Int {
	r := new(big.Int).Mul(v, big.NewInt(bpsDenominator+p.SlippageBps))
	return r.Div(r, big.NewInt(bpsDenominator))
}

func (p Params) markDown(v *big.Int) *big.Int {
	r := new(big.Int).Mul(v, big.NewInt(bpsDenominator-p.SlippageBps))
	return r.Div(r, big.NewInt(bpsDenominator))
}

func (p Params) minGasReserve() *big.Int {
	if p.MinGasReserve == nil {
		return new(big.Int)
	}
	return p.MinGasReserve
}
