package trade

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Symbol identifies the asset a quantity is denominated in.
type Symbol string

const (
	SymbolETH   Symbol = "ETH"
	SymbolWINES Symbol = "WINES"
	SymbolDAI   Symbol = "DAI"
)

// IsNative reports whether the symbol is the chain's native currency, which
// needs no allowance.
func (s Symbol) IsNative() bool { return s == SymbolETH }

// ParseSymbol normalises user input; empty input selects ETH.
func ParseSymbol(s string) Symbol {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return SymbolETH
	}
	return Symbol(s)
}

// Kind is the active trade kind.
type Kind string

const (
	KindBuy       Kind = "buy"
	KindSell      Kind = "sell"
	KindCrowdsale Kind = "crowdsale"
)

func (k Kind) Valid() bool {
	switch k {
	case KindBuy, KindSell, KindCrowdsale:
		return true
	}
	return false
}

// Context is the caller state a snapshot and a validation are keyed to.
// It is passed by value and never shared.
type Context struct {
	Account       common.Address
	SelectedToken Symbol
	Kind          Kind
}

// HasAccount reports whether a wallet is connected.
func (c Context) HasAccount() bool {
	return c.Account != (common.Address{})
}

// Key identifies the chain reads a context depends on. The trade kind is not
// part of it: switching kinds reuses the same balances and reserves.
func (c Context) Key() string {
	return c.Account.Hex() + "/" + string(c.SelectedToken)
}

// Plan is the outcome of a successful validation. Buy and crowdsale plans
// carry MaximumInputValue, sell plans carry MinimumOutputValue.
type Plan struct {
	Kind               Kind
	InputValue         *big.Int
	OutputValue        *big.Int
	MaximumInputValue  *big.Int
	MinimumOutputValue *big.Int
}
