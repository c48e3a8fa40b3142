package trade

import (
	"errors"
	"math/big"

	"github.com/nulln0ne/wines-storefront/pkg/amount"
	"github.com/nulln0ne/wines-storefront/pkg/uniswapv2"
)

// Validator turns a requested WINES quantity and a market snapshot into a
// trade plan or a validation error. It holds no state besides its params, so
// identical inputs always produce identical results.
type Validator struct {
	params Params
}

func NewValidator(params Params) *Validator {
	return &Validator{params: params}
}

func (v *Validator) Params() Params { return v.params }

// Validate dispatches on kind.
func (v *Validator) Validate(kind Kind, quantity string, snap Snapshot) (Plan, error) {
	switch kind {
	case KindBuy:
		return v.ValidateBuy(quantity, snap)
	case KindSell:
		return v.ValidateSell(quantity, snap)
	case KindCrowdsale:
		return v.ValidateCrowdsale(quantity, snap)
	default:
		return Plan{}, newError(CodeInvalidTrade, "unknown trade kind %q", kind)
	}
}

// ValidateBuy quotes spending the selected token to receive quantity WINES.
func (v *Validator) ValidateBuy(quantity string, snap Snapshot) (Plan, error) {
	out, err := v.parseQuantity(quantity)
	if err != nil {
		return Plan{}, err
	}
	if err := snap.checkFields(pricingFields(KindBuy, snap.SelectedToken)); err != nil {
		return Plan{}, err
	}

	in, err := quoteBuy(out, snap)
	if err != nil {
		return Plan{}, err
	}
	maxIn := v.params.markUp(in)

	if err := v.checkAccount(KindBuy, snap, maxIn); err != nil {
		return Plan{}, err
	}
	return Plan{Kind: KindBuy, InputValue: in, OutputValue: out, MaximumInputValue: maxIn}, nil
}

// ValidateSell quotes selling quantity WINES for the selected token.
func (v *Validator) ValidateSell(quantity string, snap Snapshot) (Plan, error) {
	in, err := v.parseQuantity(quantity)
	if err != nil {
		return Plan{}, err
	}
	if err := snap.checkFields(pricingFields(KindSell, snap.SelectedToken)); err != nil {
		return Plan{}, err
	}

	out, err := quoteSell(in, snap)
	if err != nil {
		return Plan{}, err
	}
	minOut := v.params.markDown(out)

	if err := v.checkAccount(KindSell, snap, in); err != nil {
		return Plan{}, err
	}
	return Plan{Kind: KindSell, InputValue: in, OutputValue: out, MinimumOutputValue: minOut}, nil
}

// ValidateCrowdsale quotes buying quantity WINES from the sale contract at
// its fixed rate.
func (v *Validator) ValidateCrowdsale(quantity string, snap Snapshot) (Plan, error) {
	out, err := v.parseQuantity(quantity)
	if err != nil {
		return Plan{}, err
	}
	// A closed sale is final whatever else the snapshot holds.
	if open, ok := snap.CrowdsaleOpen.Get(); ok && !open {
		return Plan{}, newError(CodeInvalidTrade, "crowdsale is closed")
	}
	if snap.CrowdsaleOpen.IsFailed() {
		return Plan{}, newError(CodeInvalidTrade, "crowdsale state failed to load")
	}
	if err := snap.checkFields(pricingFields(KindCrowdsale, snap.SelectedToken)); err != nil {
		return Plan{}, err
	}
	if snap.CrowdsaleOpen.IsLoading() {
		return Plan{}, ErrSnapshotIncomplete
	}

	rate, err := snap.amount(FieldCrowdsaleRateETH)
	if err != nil {
		return Plan{}, err
	}
	if rate.Sign() == 0 {
		return Plan{}, newError(CodeInsufficientReserves, "crowdsale rate is zero")
	}
	tokenCap, err := snap.amount(FieldTokenCap)
	if err != nil {
		return Plan{}, err
	}
	supply, err := snap.amount(FieldTokenSupply)
	if err != nil {
		return Plan{}, err
	}
	remaining := new(big.Int).Sub(tokenCap, supply)
	if out.Cmp(remaining) > 0 {
		return Plan{}, newError(CodeInvalidTrade, "requested %s exceeds remaining %s", out, remaining)
	}

	in := new(big.Int).Mul(out, scale)
	in.Div(in, rate)
	maxIn := v.params.markUp(in)

	if err := v.checkAccount(KindCrowdsale, snap, maxIn); err != nil {
		return Plan{}, err
	}
	return Plan{Kind: KindCrowdsale, InputValue: in, OutputValue: out, MaximumInputValue: maxIn}, nil
}

func (v *Validator) parseQuantity(quantity string) (*big.Int, error) {
	n, err := amount.ParseWholeTokens(quantity, v.params.Decimals)
	if err != nil {
		return nil, newError(CodeInvalidAmount, "%q is not a whole token count", quantity)
	}
	if n.Sign() == 0 {
		return nil, newError(CodeInvalidAmount, "quantity must be greater than zero")
	}
	return n, nil
}

// quoteBuy prices out WINES in the selected token. Non-native tokens route
// through ETH: WINES is priced in ETH, then that ETH in the token.
func quoteBuy(out *big.Int, snap Snapshot) (*big.Int, error) {
	wEth, wTok, err := winesReserves(snap)
	if err != nil {
		return nil, err
	}
	ethIn, err := uniswapv2.QuoteIn(out, wEth, wTok)
	if err != nil {
		return nil, reserveError(err, "WINES pool")
	}
	if snap.SelectedToken.IsNative() {
		return ethIn, nil
	}

	sEth, sTok, err := selectedReserves(snap)
	if err != nil {
		return nil, err
	}
	tokIn, err := uniswapv2.QuoteIn(ethIn, sTok, sEth)
	if err != nil {
		return nil, reserveError(err, string(snap.SelectedToken)+" pool")
	}
	return tokIn, nil
}

func quoteSell(in *big.Int, snap Snapshot) (*big.Int, error) {
	wEth, wTok, err := winesReserves(snap)
	if err != nil {
		return nil, err
	}
	ethOut, err := uniswapv2.QuoteOut(in, wTok, wEth)
	if err != nil {
		return nil, reserveError(err, "WINES pool")
	}
	out := ethOut
	if !snap.SelectedToken.IsNative() {
		sEth, sTok, err := selectedReserves(snap)
		if err != nil {
			return nil, err
		}
		if out, err = uniswapv2.QuoteOut(ethOut, sEth, sTok); err != nil {
			return nil, reserveError(err, string(snap.SelectedToken)+" pool")
		}
	}
	if out.Sign() == 0 {
		return nil, newError(CodeInsufficientReserves, "output rounds to zero")
	}
	return out, nil
}

func winesReserves(snap Snapshot) (eth, tok *big.Int, err error) {
	if eth, err = snap.amount(FieldReserveWINESETH); err != nil {
		return nil, nil, err
	}
	if tok, err = snap.amount(FieldReserveWINESToken); err != nil {
		return nil, nil, err
	}
	return eth, tok, nil
}

func selectedReserves(snap Snapshot) (eth, tok *big.Int, err error) {
	if eth, err = snap.amount(FieldReserveSelectedTokenETH); err != nil {
		return nil, nil, err
	}
	if tok, err = snap.amount(FieldReserveSelectedTokenToken); err != nil {
		return nil, nil, err
	}
	return eth, tok, nil
}

func reserveError(err error, pool string) error {
	switch {
	case errors.Is(err, uniswapv2.ErrExceedsReserves):
		return newError(CodeInsufficientReserves, "%s cannot supply the requested amount", pool)
	case errors.Is(err, uniswapv2.ErrZeroReserves), errors.Is(err, uniswapv2.ErrNonPositiveInput):
		return newError(CodeInsufficientReserves, "%s is empty", pool)
	default:
		return err
	}
}

// checkAccount runs the wallet checks in order: gas, balance, allowance.
// Without a connected wallet the plan is a pure quote.
func (v *Validator) checkAccount(kind Kind, snap Snapshot, required *big.Int) error {
	if !snap.HasAccount {
		return nil
	}
	if err := snap.checkFields(accountFields(kind, snap.SelectedToken)); err != nil {
		return err
	}

	ethBalance, err := snap.amount(FieldBalanceETH)
	if err != nil {
		return err
	}
	if ethBalance.Cmp(v.params.minGasReserve()) < 0 {
		return newError(CodeInsufficientETHGas, "native balance %s below gas reserve", ethBalance)
	}

	balanceField, allowanceField := FieldBalanceSelectedToken, FieldAllowanceSelectedToken
	native := snap.SelectedToken.IsNative()
	if kind == KindSell {
		balanceField, allowanceField = FieldBalanceWINES, FieldAllowanceWINES
		native = false
	}

	balance, err := snap.amount(balanceField)
	if err != nil {
		return err
	}
	if balance.Cmp(required) < 0 {
		return newError(CodeInsufficientSelectedTokenBalance, "%s %s below required %s", balanceField, balance, required)
	}

	if native {
		return nil
	}
	allowance, err := snap.amount(allowanceField)
	if err != nil {
		return err
	}
	if allowance.Cmp(required) < 0 {
		return newError(CodeInsufficientAllowance, "%s %s below required %s", allowanceField, allowance, required)
	}
	return nil
}
