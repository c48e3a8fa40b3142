// Package config loads service configuration from the environment and an
// optional TOML file.
package config

import (
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/nulln0ne/wines-storefront/internal/market"
	"github.com/nulln0ne/wines-storefront/internal/trade"
)

// TokenConfig is a selectable ERC-20 and its pair against wrapped ether.
type TokenConfig struct {
	Token string `toml:"token"`
	Pair  string `toml:"pair"`
}

type Config struct {
	Addr        string `toml:"addr"`
	RPCEndpoint string `toml:"eth_rpc_url"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`

	WINESToken string `toml:"wines_token"`
	WINESPair  string `toml:"wines_pair"`
	Crowdsale  string `toml:"crowdsale"`
	Router     string `toml:"router"`
	// Tokens maps a symbol such as "DAI" to its contracts.
	Tokens map[string]TokenConfig `toml:"tokens"`

	SlippageBps          int64    `toml:"slippage_bps"`
	MinGasReserveWei     string   `toml:"min_gas_reserve_wei"`
	CrowdsaleReadyOffset int64    `toml:"crowdsale_ready_offset"`
	RefreshInterval      duration `toml:"refresh_interval"`
	SnapshotMaxAge       duration `toml:"snapshot_max_age"`
	SnapshotCacheSize    int      `toml:"snapshot_cache_size"`

	PriceFeedURL string   `toml:"price_feed_url"`
	PriceFeedTTL duration `toml:"price_feed_ttl"`
}

// duration decodes TOML strings such as "15s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Addr:                 ":1337",
		LogLevel:             "info",
		LogFormat:            "text",
		SlippageBps:          100,
		MinGasReserveWei:     "10000000000000000",
		CrowdsaleReadyOffset: 6,
		RefreshInterval:      duration{15 * time.Second},
		SnapshotMaxAge:       duration{15 * time.Second},
		SnapshotCacheSize:    256,
		PriceFeedTTL:         duration{time.Minute},
	}
}

// FromEnv builds the configuration: defaults, then the TOML file named by
// STOREFRONT_CONFIG if set, then environment variables. The result is
// validated.
func FromEnv() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("STOREFRONT_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	setStr(&cfg.Addr, "ADDR")
	setStr(&cfg.RPCEndpoint, "ETH_RPC_URL")
	setStr(&cfg.LogLevel, "LOG_LEVEL")
	setStr(&cfg.LogFormat, "LOG_FORMAT")

	setStr(&cfg.WINESToken, "WINES_TOKEN_ADDRESS")
	setStr(&cfg.WINESPair, "WINES_PAIR_ADDRESS")
	setStr(&cfg.Crowdsale, "CROWDSALE_ADDRESS")
	setStr(&cfg.Router, "ROUTER_ADDRESS")

	setStr(&cfg.MinGasReserveWei, "MIN_GAS_RESERVE_WEI")
	setStr(&cfg.PriceFeedURL, "PRICE_FEED_URL")

	for key, dst := range map[string]*int64{
		"SLIPPAGE_BPS":           &cfg.SlippageBps,
		"CROWDSALE_READY_OFFSET": &cfg.CrowdsaleReadyOffset,
	} {
		if err := setInt64(dst, key); err != nil {
			return err
		}
	}
	if err := setInt(&cfg.SnapshotCacheSize, "SNAPSHOT_CACHE_SIZE"); err != nil {
		return err
	}
	for key, dst := range map[string]*duration{
		"REFRESH_INTERVAL": &cfg.RefreshInterval,
		"SNAPSHOT_MAX_AGE": &cfg.SnapshotMaxAge,
		"PRICE_FEED_TTL":   &cfg.PriceFeedTTL,
	} {
		if err := setDuration(dst, key); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.RPCEndpoint == "" {
		return ErrMissingRPCEndpoint
	}

	for _, a := range []struct{ name, addr string }{
		{"WINES_TOKEN_ADDRESS", c.WINESToken},
		{"WINES_PAIR_ADDRESS", c.WINESPair},
		{"CROWDSALE_ADDRESS", c.Crowdsale},
		{"ROUTER_ADDRESS", c.Router},
	} {
		if err := checkAddress(a.name, a.addr); err != nil {
			return err
		}
	}
	for sym, t := range c.Tokens {
		if trade.ParseSymbol(sym).IsNative() || trade.ParseSymbol(sym) == trade.SymbolWINES {
			return fmt.Errorf("%w: tokens.%s is reserved", ErrInvalidValue, sym)
		}
		if err := checkAddress("tokens."+sym+".token", t.Token); err != nil {
			return err
		}
		if err := checkAddress("tokens."+sym+".pair", t.Pair); err != nil {
			return err
		}
	}

	if c.SlippageBps < 0 || c.SlippageBps >= 10_000 {
		return fmt.Errorf("%w: slippage_bps %d outside [0, 10000)", ErrInvalidValue, c.SlippageBps)
	}
	if c.CrowdsaleReadyOffset < 0 {
		return fmt.Errorf("%w: crowdsale_ready_offset %d is negative", ErrInvalidValue, c.CrowdsaleReadyOffset)
	}
	if _, err := c.minGasReserve(); err != nil {
		return err
	}
	if c.RefreshInterval.Duration <= 0 {
		return fmt.Errorf("%w: refresh_interval must be positive", ErrInvalidValue)
	}
	return nil
}

// Params returns the quoting parameters.
func (c *Config) Params() trade.Params {
	p := trade.DefaultParams()
	p.SlippageBps = c.SlippageBps
	p.CrowdsaleReadyOffset = c.CrowdsaleReadyOffset
	if reserve, err := c.minGasReserve(); err == nil {
		p.MinGasReserve = reserve
	}
	return p
}

// Addresses returns the storefront contracts. Call after Validate.
func (c *Config) Addresses() market.Addresses {
	tokens := make(map[trade.Symbol]market.Pool, len(c.Tokens))
	for sym, t := range c.Tokens {
		tokens[trade.ParseSymbol(sym)] = market.Pool{
			Token: common.HexToAddress(t.Token),
			Pair:  common.HexToAddress(t.Pair),
		}
	}
	return market.Addresses{
		WINES:     common.HexToAddress(c.WINESToken),
		WINESPair: common.HexToAddress(c.WINESPair),
		Crowdsale: common.HexToAddress(c.Crowdsale),
		Spender:   common.HexToAddress(c.Router),
		Tokens:    tokens,
	}
}

func (c *Config) minGasReserve() (*big.Int, error) {
	v, ok := new(big.Int).SetString(c.MinGasReserveWei, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: min_gas_reserve_wei %q", ErrInvalidValue, c.MinGasReserveWei)
	}
	return v, nil
}

func checkAddress(name, addr string) error {
	if addr == "" {
		return fmt.Errorf("%w: %s", ErrMissingAddress, name)
	}
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("%w: %s=%q", ErrInvalidAddress, name, addr)
	}
	return nil
}
