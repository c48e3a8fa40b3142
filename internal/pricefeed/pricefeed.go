// Package pricefeed fetches the USD price of ether from a CoinGecko-style
// simple price endpoint. Prices are for display only.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/nulln0ne/wines-storefront/pkg/amount"
	"github.com/shopspring/decimal"
)

const (
	DefaultURL      = "https://api.coingecko.com/api/v3/simple/price"
	defaultCoinID   = "ethereum"
	defaultCurrency = "usd"
	defaultTTL      = time.Minute
	defaultTimeout  = 10 * time.Second
)

type Feed struct {
	logger   *slog.Logger
	client   *http.Client
	baseURL  string
	coinID   string
	currency string
	cache    *expirable.LRU[string, decimal.Decimal]
}

// New returns a feed for baseURL (DefaultURL when empty). Prices are cached
// for ttl; a zero ttl means one minute.
func New(logger *slog.Logger, baseURL string, ttl time.Duration) *Feed {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Feed{
		logger:   logger,
		client:   &http.Client{Timeout: defaultTimeout},
		baseURL:  baseURL,
		coinID:   defaultCoinID,
		currency: defaultCurrency,
		cache:    expirable.NewLRU[string, decimal.Decimal](8, nil, ttl),
	}
}

// ETHPrice returns the USD price of one ether.
func (f *Feed) ETHPrice(ctx context.Context) (decimal.Decimal, error) {
	key := f.coinID + "/" + f.currency
	if p, ok := f.cache.Get(key); ok {
		return p, nil
	}

	p, err := f.fetch(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	f.cache.Add(key, p)
	f.logger.Debug("eth price refreshed", "price", p.String())
	return p, nil
}

// ETHRate returns the USD price of one ether scaled by 1e18, the form the
// trade rate helpers take.
func (f *Feed) ETHRate(ctx context.Context) (*big.Int, error) {
	p, err := f.ETHPrice(ctx)
	if err != nil {
		return nil, err
	}
	return p.Shift(amount.Decimals).BigInt(), nil
}

func (f *Feed) fetch(ctx context.Context) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("ids", f.coinID)
	q.Set("vs_currencies", f.currency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("build price request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("price request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	// json.Number keeps the exact digits the feed sent.
	var data map[string]map[string]json.Number
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode price response: %w", err)
	}

	raw, ok := data[f.coinID][f.currency]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s/%s", ErrPriceNotFound, f.coinID, f.currency)
	}
	price, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse price %q: %w", raw, err)
	}
	if !price.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrNonPositivePrice, price)
	}
	return price, nil
}
