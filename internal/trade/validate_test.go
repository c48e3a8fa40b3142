package trade

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAccount = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), scale)
}

// marketSnapshot is a connected-wallet snapshot with ample balances and
// allowances: WINES pool 1000 ETH / 500 WINES, DAI pool 100 ETH / 200000 DAI,
// crowdsale open at 1000 WINES per ETH with 100 of 1000 tokens sold.
func marketSnapshot(token Symbol) Snapshot {
	s := NewSnapshot(Context{Account: testAccount, SelectedToken: token})
	return s.
		With(FieldBalanceETH, KnownAmount(e18(1_000_000))).
		With(FieldBalanceSelectedToken, KnownAmount(e18(1_000_000))).
		With(FieldBalanceWINES, KnownAmount(e18(1_000))).
		With(FieldAllowanceSelectedToken, KnownAmount(e18(1_000_000))).
		With(FieldAllowanceWINES, KnownAmount(e18(1_000_000))).
		With(FieldReserveWINESETH, KnownAmount(e18(1_000))).
		With(FieldReserveWINESToken, KnownAmount(e18(500))).
		With(FieldReserveSelectedTokenETH, KnownAmount(e18(100))).
		With(FieldReserveSelectedTokenToken, KnownAmount(e18(200_000))).
		With(FieldCrowdsaleRateETH, KnownAmount(e18(1_000))).
		With(FieldTokenCap, KnownAmount(e18(1_000))).
		With(FieldTokenSupply, KnownAmount(e18(100))).
		WithCrowdsaleOpen(Known(true))
}

func newTestValidator() *Validator {
	return NewValidator(DefaultParams())
}

func requireCode(t *testing.T, err error, want Code) {
	t.Helper()
	require.Error(t, err)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected a ValidationError, got %v", err)
	assert.Equal(t, want, ve.Code, "error: %v", err)
}

func TestValidateBuy_ETH(t *testing.T) {
	plan, err := newTestValidator().ValidateBuy("10", marketSnapshot(SymbolETH))
	require.NoError(t, err)

	// 10e18 * 1000e18 / (500e18 - 10e18)
	wantIn := new(big.Int).Mul(e18(10), e18(1_000))
	wantIn.Div(wantIn, e18(490))
	wantMax := new(big.Int).Mul(wantIn, big.NewInt(10_100))
	wantMax.Div(wantMax, big.NewInt(10_000))

	assert.Equal(t, KindBuy, plan.Kind)
	assert.Equal(t, e18(10).String(), plan.OutputValue.String())
	assert.Equal(t, "20408163265306122448", plan.InputValue.String())
	assert.Equal(t, wantIn.String(), plan.InputValue.String())
	assert.Equal(t, wantMax.String(), plan.MaximumInputValue.String())
	assert.Nil(t, plan.MinimumOutputValue)
}

func TestValidateBuy_TokenRoutesThroughETH(t *testing.T) {
	plan, err := newTestValidator().ValidateBuy("10", marketSnapshot(SymbolDAI))
	require.NoError(t, err)

	ethIn := new(big.Int).Mul(e18(10), e18(1_000))
	ethIn.Div(ethIn, e18(490))
	// DAI in for ethIn out of the DAI pool
	wantIn := new(big.Int).Mul(ethIn, e18(200_000))
	wantIn.Div(wantIn, new(big.Int).Sub(e18(100), ethIn))

	assert.Equal(t, wantIn.String(), plan.InputValue.String())
	assert.True(t, plan.MaximumInputValue.Cmp(plan.InputValue) > 0)
}

func TestValidateBuy_ExhaustedPoolIgnoresWallet(t *testing.T) {
	snap := marketSnapshot(SymbolDAI).
		With(FieldBalanceETH, KnownAmount(big.NewInt(0))).
		With(FieldBalanceSelectedToken, KnownAmount(big.NewInt(0))).
		With(FieldAllowanceSelectedToken, KnownAmount(big.NewInt(0)))

	for _, q := range []string{"500", "501", "100000"} {
		_, err := newTestValidator().ValidateBuy(q, snap)
		requireCode(t, err, CodeInsufficientReserves)
	}
}

func TestValidateBuy_SecondHopExhausted(t *testing.T) {
	snap := marketSnapshot(SymbolDAI).With(FieldReserveSelectedTokenETH, KnownAmount(e18(1)))
	_, err := newTestValidator().ValidateBuy("10", snap)
	requireCode(t, err, CodeInsufficientReserves)
}

func TestValidateBuy_ZeroReserves(t *testing.T) {
	snap := marketSnapshot(SymbolETH).With(FieldReserveWINESETH, KnownAmount(big.NewInt(0)))
	_, err := newTestValidator().ValidateBuy("1", snap)
	requireCode(t, err, CodeInsufficientReserves)
}

func TestValidateBuy_WalletChecks(t *testing.T) {
	tests := []struct {
		name  string
		token Symbol
		edit  func(Snapshot) Snapshot
		want  Code
	}{
		{
			name:  "no gas",
			token: SymbolDAI,
			edit: func(s Snapshot) Snapshot {
				return s.With(FieldBalanceETH, KnownAmount(big.NewInt(1_000)))
			},
			want: CodeInsufficientETHGas,
		},
		{
			name:  "token balance short",
			token: SymbolDAI,
			edit: func(s Snapshot) Snapshot {
				return s.With(FieldBalanceSelectedToken, KnownAmount(e18(1)))
			},
			want: CodeInsufficientSelectedTokenBalance,
		},
		{
			name:  "allowance short with ample balance",
			token: SymbolDAI,
			edit: func(s Snapshot) Snapshot {
				return s.With(FieldAllowanceSelectedToken, KnownAmount(big.NewInt(0)))
			},
			want: CodeInsufficientAllowance,
		},
		{
			name:  "eth balance failed",
			token: SymbolETH,
			edit: func(s Snapshot) Snapshot {
				return s.With(FieldBalanceETH, Failed[*big.Int](errors.New("rpc down")))
			},
			want: CodeInvalidTrade,
		},
		{
			name:  "reserve failed",
			token: SymbolETH,
			edit: func(s Snapshot) Snapshot {
				return s.With(FieldReserveWINESToken, Failed[*big.Int](errors.New("rpc down")))
			},
			want: CodeInvalidTrade,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := newTestValidator().ValidateBuy("10", tc.edit(marketSnapshot(tc.token)))
			requireCode(t, err, tc.want)
			assert.Equal(t, Plan{}, plan, "a failed validation never returns a plan")
		})
	}
}

func TestValidateBuy_NativeNeedsNoAllowance(t *testing.T) {
	snap := marketSnapshot(SymbolETH).With(FieldAllowanceSelectedToken, KnownAmount(big.NewInt(0)))
	_, err := newTestValidator().ValidateBuy("10", snap)
	require.NoError(t, err)
}

func TestValidateBuy_ExactAllowanceIsEnough(t *testing.T) {
	v := newTestValidator()
	plan, err := v.ValidateBuy("10", marketSnapshot(SymbolDAI))
	require.NoError(t, err)

	snap := marketSnapshot(SymbolDAI).With(FieldAllowanceSelectedToken, KnownAmount(plan.MaximumInputValue))
	_, err = v.ValidateBuy("10", snap)
	require.NoError(t, err)

	short := new(big.Int).Sub(plan.MaximumInputValue, big.NewInt(1))
	snap = marketSnapshot(SymbolDAI).With(FieldAllowanceSelectedToken, KnownAmount(short))
	_, err = v.ValidateBuy("10", snap)
	requireCode(t, err, CodeInsufficientAllowance)
}

func TestValidateBuy_WithoutAccountQuotesOnly(t *testing.T) {
	snap := NewSnapshot(Context{SelectedToken: SymbolETH}).
		With(FieldReserveWINESETH, KnownAmount(e18(1_000))).
		With(FieldReserveWINESToken, KnownAmount(e18(500)))

	plan, err := newTestValidator().ValidateBuy("10", snap)
	require.NoError(t, err)
	assert.Equal(t, "20408163265306122448", plan.InputValue.String())
}

func TestValidateBuy_LoadingFieldIsPrecondition(t *testing.T) {
	snap := marketSnapshot(SymbolETH).With(FieldBalanceSelectedToken, Loading[*big.Int]())
	_, err := newTestValidator().ValidateBuy("10", snap)
	assert.ErrorIs(t, err, ErrSnapshotIncomplete)

	var ve *ValidationError
	assert.False(t, errors.As(err, &ve))
}

func TestValidateBuy_MalformedSnapshot(t *testing.T) {
	snap := marketSnapshot(SymbolETH).With(FieldReserveWINESETH, Known[*big.Int](nil))
	_, err := newTestValidator().ValidateBuy("10", snap)
	require.ErrorIs(t, err, ErrMalformedSnapshot)

	code, ok := CodeOf(err)
	assert.True(t, ok)
	assert.Equal(t, CodeInvalidTrade, code)
}

func TestValidateSell_ETH(t *testing.T) {
	plan, err := newTestValidator().ValidateSell("10", marketSnapshot(SymbolETH))
	require.NoError(t, err)

	// 10e18 * 1000e18 / (500e18 + 10e18)
	wantOut := new(big.Int).Mul(e18(10), e18(1_000))
	wantOut.Div(wantOut, e18(510))
	wantMin := new(big.Int).Mul(wantOut, big.NewInt(9_900))
	wantMin.Div(wantMin, big.NewInt(10_000))

	assert.Equal(t, KindSell, plan.Kind)
	assert.Equal(t, e18(10).String(), plan.InputValue.String())
	assert.Equal(t, wantOut.String(), plan.OutputValue.String())
	assert.Equal(t, wantMin.String(), plan.MinimumOutputValue.String())
	assert.Nil(t, plan.MaximumInputValue)
}

func TestValidateSell_Token(t *testing.T) {
	plan, err := newTestValidator().ValidateSell("10", marketSnapshot(SymbolDAI))
	require.NoError(t, err)

	ethOut := new(big.Int).Mul(e18(10), e18(1_000))
	ethOut.Div(ethOut, e18(510))
	wantOut := new(big.Int).Mul(ethOut, e18(200_000))
	wantOut.Div(wantOut, new(big.Int).Add(e18(100), ethOut))
	assert.Equal(t, wantOut.String(), plan.OutputValue.String())
}

func TestValidateSell_WalletChecks(t *testing.T) {
	v := newTestValidator()

	snap := marketSnapshot(SymbolETH).With(FieldBalanceWINES, KnownAmount(e18(5)))
	_, err := v.ValidateSell("10", snap)
	requireCode(t, err, CodeInsufficientSelectedTokenBalance)

	// WINES always needs router allowance, even when receiving ETH.
	snap = marketSnapshot(SymbolETH).With(FieldAllowanceWINES, KnownAmount(e18(9)))
	_, err = v.ValidateSell("10", snap)
	requireCode(t, err, CodeInsufficientAllowance)

	snap = marketSnapshot(SymbolETH).With(FieldAllowanceWINES, Failed[*big.Int](errors.New("boom")))
	_, err = v.ValidateSell("10", snap)
	requireCode(t, err, CodeInvalidTrade)
}

func TestValidateCrowdsale(t *testing.T) {
	plan, err := newTestValidator().ValidateCrowdsale("10", marketSnapshot(SymbolETH))
	require.NoError(t, err)

	// 10e18 * 1e18 / 1000e18 = 0.01 ETH
	assert.Equal(t, "10000000000000000", plan.InputValue.String())
	assert.Equal(t, "10100000000000000", plan.MaximumInputValue.String())
	assert.Equal(t, e18(10).String(), plan.OutputValue.String())
}

func TestValidateCrowdsale_ClosedRegardlessOfFields(t *testing.T) {
	snap := NewSnapshot(Context{Account: testAccount, SelectedToken: SymbolETH}).
		WithCrowdsaleOpen(Known(false)).
		With(FieldBalanceETH, Failed[*big.Int](errors.New("x")))

	_, err := newTestValidator().ValidateCrowdsale("10", snap)
	requireCode(t, err, CodeInvalidTrade)

	_, err = newTestValidator().ValidateCrowdsale("10", marketSnapshot(SymbolETH).WithCrowdsaleOpen(Known(false)))
	requireCode(t, err, CodeInvalidTrade)
}

func TestValidateCrowdsale_CapAndRate(t *testing.T) {
	v := newTestValidator()

	// 900 remain under the cap
	_, err := v.ValidateCrowdsale("900", marketSnapshot(SymbolETH))
	require.NoError(t, err)

	_, err = v.ValidateCrowdsale("901", marketSnapshot(SymbolETH))
	requireCode(t, err, CodeInvalidTrade)

	snap := marketSnapshot(SymbolETH).With(FieldCrowdsaleRateETH, KnownAmount(big.NewInt(0)))
	_, err = v.ValidateCrowdsale("1", snap)
	requireCode(t, err, CodeInsufficientReserves)
}

func TestValidateCrowdsale_WalletChecks(t *testing.T) {
	snap := marketSnapshot(SymbolDAI).With(FieldAllowanceSelectedToken, KnownAmount(big.NewInt(0)))
	_, err := newTestValidator().ValidateCrowdsale("10", snap)
	requireCode(t, err, CodeInsufficientAllowance)

	snap = marketSnapshot(SymbolETH).With(FieldBalanceSelectedToken, KnownAmount(big.NewInt(1)))
	_, err = newTestValidator().ValidateCrowdsale("10", snap)
	requireCode(t, err, CodeInsufficientSelectedTokenBalance)
}

func TestValidate_InvalidQuantity(t *testing.T) {
	v := newTestValidator()
	snap := marketSnapshot(SymbolETH)
	for _, kind := range []Kind{KindBuy, KindSell, KindCrowdsale} {
		for _, q := range []string{"0", "", "-1", "abc", "1.5"} {
			plan, err := v.Validate(kind, q, snap)
			requireCode(t, err, CodeInvalidAmount)
			assert.Equal(t, Plan{}, plan)
		}
	}
}

func TestValidate_UnknownKind(t *testing.T) {
	_, err := newTestValidator().Validate(Kind("redeem"), "1", marketSnapshot(SymbolETH))
	requireCode(t, err, CodeInvalidTrade)
}

func TestValidate_Idempotent(t *testing.T) {
	v := newTestValidator()
	snap := marketSnapshot(SymbolDAI)
	for _, kind := range []Kind{KindBuy, KindSell, KindCrowdsale} {
		first, err1 := v.Validate(kind, "7", snap)
		second, err2 := v.Validate(kind, "7", snap)
		assert.Equal(t, err1, err2)
		assert.Equal(t, first, second)
	}
	// the snapshot itself is untouched
	assert.Equal(t, e18(500).String(), mustAmount(t, snap.ReserveWINESToken()).String())
}

func TestValidate_CustomSlippage(t *testing.T) {
	params := DefaultParams()
	params.SlippageBps = 250
	plan, err := NewValidator(params).ValidateBuy("10", marketSnapshot(SymbolETH))
	require.NoError(t, err)

	want := new(big.Int).Mul(plan.InputValue, big.NewInt(10_250))
	want.Div(want, big.NewInt(10_000))
	assert.Equal(t, want.String(), plan.MaximumInputValue.String())
}

func mustAmount(t *testing.T, f Amount) *big.Int {
	t.Helper()
	v, ok := f.Get()
	require.True(t, ok)
	return v
}
