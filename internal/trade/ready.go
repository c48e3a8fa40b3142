package trade

import (
	"math/big"

	"github.com/nulln0ne/wines-storefront/pkg/amount"
)

// Ready reports whether snap holds enough data to attempt validating the
// active kind of ctx. It says nothing about whether validation would pass.
func Ready(ctx Context, snap Snapshot, params Params) bool {
	if !ctx.Kind.Valid() || snap.SelectedToken != ctx.SelectedToken || snap.HasAccount != ctx.HasAccount() {
		return false
	}
	for _, n := range RequiredFields(ctx.Kind, ctx.SelectedToken, ctx.HasAccount()) {
		if snap.Get(n).IsLoading() {
			return false
		}
	}
	if ctx.Kind == KindCrowdsale {
		return crowdsaleAvailable(snap, params)
	}
	return true
}

// crowdsaleAvailable requires an open sale with more than
// CrowdsaleReadyOffset whole tokens left under the cap. A field that failed
// to load leaves the verdict to the validator.
func crowdsaleAvailable(snap Snapshot, params Params) bool {
	tokenCap, supply := snap.TokenCap(), snap.TokenSupply()
	switch {
	case snap.CrowdsaleOpen.IsLoading():
		return false
	case snap.CrowdsaleOpen.IsFailed(), tokenCap.IsFailed(), supply.IsFailed():
		return true
	}

	open, _ := snap.CrowdsaleOpen.Get()
	c, _ := tokenCap.Get()
	s, _ := supply.Get()
	if !open || c == nil || s == nil {
		return false
	}
	offset := new(big.Int).Mul(big.NewInt(params.CrowdsaleReadyOffset), amount.Unit(params.Decimals))
	return c.Cmp(offset.Add(offset, s)) > 0
}
