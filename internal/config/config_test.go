package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nulln0ne/wines-storefront/internal/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	winesAddr = "0x00000000000000000000000000000000000000aa"
	pairAddr  = "0x0000000000000000000000000000000000000abc"
	saleAddr  = "0x0000000000000000000000000000000000000cde"
	routeAddr = "0x0000000000000000000000000000000000005678"
)

// setBaseEnv sets the required variables and clears the optional ones.
func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ETH_RPC_URL", "http://localhost:8545")
	t.Setenv("WINES_TOKEN_ADDRESS", winesAddr)
	t.Setenv("WINES_PAIR_ADDRESS", pairAddr)
	t.Setenv("CROWDSALE_ADDRESS", saleAddr)
	t.Setenv("ROUTER_ADDRESS", routeAddr)
	for _, key := range []string{
		"STOREFRONT_CONFIG", "ADDR", "LOG_LEVEL", "LOG_FORMAT", "SLIPPAGE_BPS", "MIN_GAS_RESERVE_WEI",
		"CROWDSALE_READY_OFFSET", "REFRESH_INTERVAL", "SNAPSHOT_MAX_AGE",
		"SNAPSHOT_CACHE_SIZE", "PRICE_FEED_URL", "PRICE_FEED_TTL",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":1337", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 15*time.Second, cfg.RefreshInterval.Duration)

	p := cfg.Params()
	assert.Equal(t, int64(100), p.SlippageBps)
	assert.Equal(t, int64(6), p.CrowdsaleReadyOffset)
	assert.Equal(t, "10000000000000000", p.MinGasReserve.String())

	addrs := cfg.Addresses()
	assert.Equal(t, common.HexToAddress(winesAddr), addrs.WINES)
	assert.Equal(t, common.HexToAddress(routeAddr), addrs.Spender)
	assert.Empty(t, addrs.Tokens)
}

func TestFromEnv_MissingRPC(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ETH_RPC_URL", "")

	_, err := FromEnv()
	assert.ErrorIs(t, err, ErrMissingRPCEndpoint)
}

func TestFromEnv_AddressErrors(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CROWDSALE_ADDRESS", "")
	_, err := FromEnv()
	assert.ErrorIs(t, err, ErrMissingAddress)

	t.Setenv("CROWDSALE_ADDRESS", "0xnope")
	_, err = FromEnv()
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestFromEnv_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"SLIPPAGE_BPS":           "lots",
		"CROWDSALE_READY_OFFSET": "-1",
		"MIN_GAS_RESERVE_WEI":    "0.01",
		"REFRESH_INTERVAL":       "soon",
		"SNAPSHOT_CACHE_SIZE":    "big",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(key, val)
			_, err := FromEnv()
			assert.ErrorIs(t, err, ErrInvalidValue)
		})
	}
}

func TestFromEnv_File(t *testing.T) {
	setBaseEnv(t)

	path := filepath.Join(t.TempDir(), "storefront.toml")
	body := `
log_level = "debug"
slippage_bps = 50
refresh_interval = "5s"

[tokens.dai]
token = "0x00000000000000000000000000000000000000dd"
pair = "0x0000000000000000000000000000000000000dac"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("STOREFRONT_CONFIG", path)
	// environment wins over the file
	t.Setenv("SLIPPAGE_BPS", "25")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.RefreshInterval.Duration)
	assert.Equal(t, int64(25), cfg.Params().SlippageBps)

	pool, ok := cfg.Addresses().Lookup(trade.SymbolDAI)
	require.True(t, ok)
	assert.Equal(t, common.HexToAddress("0x0000000000000000000000000000000000000dac"), pool.Pair)
}

func TestFromEnv_ReservedTokenSymbol(t *testing.T) {
	setBaseEnv(t)

	path := filepath.Join(t.TempDir(), "storefront.toml")
	body := `
[tokens.ETH]
token = "0x00000000000000000000000000000000000000dd"
pair = "0x0000000000000000000000000000000000000dac"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("STOREFRONT_CONFIG", path)

	_, err := FromEnv()
	assert.ErrorIs(t, err, ErrInvalidValue)
}
