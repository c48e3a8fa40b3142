package trade

import (
	"fmt"
	"math/big"
	"time"
)

// FieldName names an amount-valued snapshot field.
type FieldName int

const (
	FieldBalanceETH FieldName = iota
	FieldBalanceSelectedToken
	FieldBalanceWINES
	FieldAllowanceSelectedToken
	FieldAllowanceWINES
	FieldReserveWINESETH
	FieldReserveWINESToken
	FieldReserveSelectedTokenETH
	FieldReserveSelectedTokenToken
	FieldCrowdsaleRateETH
	FieldTokenCap
	FieldTokenSupply
	numFields
)

var fieldNames = [numFields]string{
	"balanceETH",
	"balanceSelectedToken",
	"balanceWINES",
	"allowanceSelectedToken",
	"allowanceWINES",
	"reserveWINES_ETH",
	"reserveWINES_Token",
	"reserveSelectedToken_ETH",
	"reserveSelectedToken_Token",
	"crowdsaleExchangeRateETH",
	"tokenCap",
	"tokenSupply",
}

func (n FieldName) String() string {
	if n < 0 || n >= numFields {
		return "unknown"
	}
	return fieldNames[n]
}

// Snapshot is a read-only bundle of market values. It is replaced wholesale
// on every change; use the With helpers to derive a modified copy.
type Snapshot struct {
	SelectedToken Symbol
	HasAccount    bool

	amounts       [numFields]Amount
	CrowdsaleOpen Field[bool]

	BlockNumber uint64
	UpdatedAt   time.Time
}

// NewSnapshot returns an all-Loading snapshot for ctx.
func NewSnapshot(ctx Context) Snapshot {
	return Snapshot{
		SelectedToken: ctx.SelectedToken,
		HasAccount:    ctx.HasAccount(),
	}
}

// Get returns the named amount field.
func (s Snapshot) Get(n FieldName) Amount {
	if n < 0 || n >= numFields {
		return Loading[*big.Int]()
	}
	return s.amounts[n]
}

// With returns a copy of s with field n replaced.
func (s Snapshot) With(n FieldName, f Amount) Snapshot {
	if n >= 0 && n < numFields {
		s.amounts[n] = f
	}
	return s
}

// WithCrowdsaleOpen returns a copy of s with the crowdsale state replaced.
func (s Snapshot) WithCrowdsaleOpen(f Field[bool]) Snapshot {
	s.CrowdsaleOpen = f
	return s
}

func (s Snapshot) BalanceETH() Amount                { return s.amounts[FieldBalanceETH] }
func (s Snapshot) BalanceSelectedToken() Amount      { return s.amounts[FieldBalanceSelectedToken] }
func (s Snapshot) BalanceWINES() Amount              { return s.amounts[FieldBalanceWINES] }
func (s Snapshot) AllowanceSelectedToken() Amount    { return s.amounts[FieldAllowanceSelectedToken] }
func (s Snapshot) AllowanceWINES() Amount            { return s.amounts[FieldAllowanceWINES] }
func (s Snapshot) ReserveWINESETH() Amount           { return s.amounts[FieldReserveWINESETH] }
func (s Snapshot) ReserveWINESToken() Amount         { return s.amounts[FieldReserveWINESToken] }
func (s Snapshot) ReserveSelectedTokenETH() Amount   { return s.amounts[FieldReserveSelectedTokenETH] }
func (s Snapshot) ReserveSelectedTokenToken() Amount { return s.amounts[FieldReserveSelectedTokenToken] }
func (s Snapshot) CrowdsaleRateETH() Amount          { return s.amounts[FieldCrowdsaleRateETH] }
func (s Snapshot) TokenCap() Amount                  { return s.amounts[FieldTokenCap] }
func (s Snapshot) TokenSupply() Amount               { return s.amounts[FieldTokenSupply] }

// pricingFields lists the amount fields a kind needs to compute a quote.
func pricingFields(kind Kind, token Symbol) []FieldName {
	switch kind {
	case KindBuy, KindSell:
		if token.IsNative() {
			return []FieldName{FieldReserveWINESETH, FieldReserveWINESToken}
		}
		return []FieldName{
			FieldReserveWINESETH, FieldReserveWINESToken,
			FieldReserveSelectedTokenETH, FieldReserveSelectedTokenToken,
		}
	case KindCrowdsale:
		return []FieldName{FieldCrowdsaleRateETH, FieldTokenCap, FieldTokenSupply}
	}
	return nil
}

// accountFields lists the wallet-dependent fields a kind checks.
func accountFields(kind Kind, token Symbol) []FieldName {
	switch kind {
	case KindBuy, KindCrowdsale:
		if token.IsNative() {
			return []FieldName{FieldBalanceETH, FieldBalanceSelectedToken}
		}
		return []FieldName{FieldBalanceETH, FieldBalanceSelectedToken, FieldAllowanceSelectedToken}
	case KindSell:
		return []FieldName{FieldBalanceETH, FieldBalanceWINES, FieldAllowanceWINES}
	}
	return nil
}

// RequiredFields returns every amount field the validator for kind reads.
func RequiredFields(kind Kind, token Symbol, hasAccount bool) []FieldName {
	fields := pricingFields(kind, token)
	if hasAccount {
		fields = append(fields, accountFields(kind, token)...)
	}
	return fields
}

// checkFields applies the load-state policy to the named fields: any Failed
// field makes the trade invalid, any Loading field makes the snapshot
// incomplete. Failure wins over loading.
func (s Snapshot) checkFields(fields []FieldName) error {
	for _, n := range fields {
		if s.Get(n).IsFailed() {
			return newError(CodeInvalidTrade, "%s failed to load", n)
		}
	}
	for _, n := range fields {
		if s.Get(n).IsLoading() {
			return ErrSnapshotIncomplete
		}
	}
	return nil
}

// amount returns a known, well-formed amount.
func (s Snapshot) amount(n FieldName) (*big.Int, error) {
	v, ok := s.Get(n).Get()
	if !ok {
		return nil, ErrSnapshotIncomplete
	}
	if v == nil || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMalformedSnapshot, n)
	}
	return v, nil
}
