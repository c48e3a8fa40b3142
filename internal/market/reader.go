// Package market keeps a live trade.Snapshot for one account and selected
// token, refreshed from the chain.
package market

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nulln0ne/wines-storefront/internal/trade"
)

// Reader is the chain surface the aggregator depends on. *eth.Reader
// satisfies it.
type Reader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	EtherBalance(ctx context.Context, account common.Address) (*big.Int, error)
	BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error)
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	TotalSupply(ctx context.Context, token common.Address) (*big.Int, error)
	Cap(ctx context.Context, token common.Address) (*big.Int, error)
	CrowdsaleOpen(ctx context.Context, sale common.Address) (bool, error)
	CrowdsaleRate(ctx context.Context, sale common.Address) (*big.Int, error)
	Reserves(ctx context.Context, pair, base common.Address) (baseReserve, quoteReserve *big.Int, err error)
}

// Pool is a selectable token and its pair against wrapped ether.
type Pool struct {
	Token common.Address `toml:"token"`
	Pair  common.Address `toml:"pair"`
}

// Addresses are the storefront contracts.
type Addresses struct {
	WINES     common.Address
	WINESPair common.Address
	Crowdsale common.Address
	// Spender is the address allowances are checked against.
	Spender common.Address
	// Tokens lists the non-native selectable tokens.
	Tokens map[trade.Symbol]Pool
}

// Lookup returns the pool of a non-native symbol.
func (a Addresses) Lookup(sym trade.Symbol) (Pool, bool) {
	p, ok := a.Tokens[sym]
	return p, ok
}

// Supports reports whether sym can be selected.
func (a Addresses) Supports(sym trade.Symbol) bool {
	if sym.IsNative() {
		return true
	}
	_, ok := a.Tokens[sym]
	return ok
}
