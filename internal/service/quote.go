package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nulln0ne/wines-storefront/internal/eth"
	"github.com/nulln0ne/wines-storefront/internal/market"
	"github.com/nulln0ne/wines-storefront/internal/metrics"
	"github.com/nulln0ne/wines-storefront/internal/pricefeed"
	"github.com/nulln0ne/wines-storefront/internal/trade"
	"github.com/nulln0ne/wines-storefront/pkg/amount"
)

const (
	defaultCacheSize = 256
	defaultMaxAge    = 15 * time.Second
)

var (
	_ market.Reader = (*eth.Reader)(nil)
	_ ETHPricer     = (*pricefeed.Feed)(nil)
)

// ETHPricer reports the USD price of one ether scaled by 1e18.
// *pricefeed.Feed implements it.
type ETHPricer interface {
	ETHRate(ctx context.Context) (*big.Int, error)
}

type QuoteConfig struct {
	Addresses market.Addresses
	Params    trade.Params
	// MaxAge is how old a snapshot may be before a quote refreshes it.
	MaxAge time.Duration
	// CacheSize bounds the number of (account, token) snapshots kept.
	CacheSize int
}

// QuoteService validates storefront trades against live market snapshots.
// It keeps one aggregator per account and selected token; the least
// recently used ones are closed when the cache is full. The wallet-less ETH
// view behind Price lives outside the cache for the life of the service.
type QuoteService struct {
	BaseService
	reader    market.Reader
	addrs     market.Addresses
	validator *trade.Validator
	maxAge    time.Duration
	prices    ETHPricer

	market *market.Aggregator

	mu    sync.Mutex
	cache *lru.Cache[string, *market.Aggregator]
}

// NewQuoteService builds the service. prices and m may be nil.
func NewQuoteService(logger *slog.Logger, reader market.Reader, cfg QuoteConfig, prices ETHPricer, m *metrics.Metrics) (*QuoteService, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = defaultMaxAge
	}
	cache, err := lru.NewWithEvict(cfg.CacheSize, func(key string, agg *market.Aggregator) {
		logger.Debug("closing evicted snapshot", "key", key)
		agg.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot cache: %w", err)
	}
	marketAgg := market.New(reader, cfg.Addresses, logger, m)
	if err := marketAgg.Bind(marketContext); err != nil {
		return nil, fmt.Errorf("market snapshot: %w", err)
	}
	return &QuoteService{
		BaseService: BaseService{logger: logger, metrics: m},
		reader:      reader,
		addrs:       cfg.Addresses,
		validator:   trade.NewValidator(cfg.Params),
		maxAge:      cfg.MaxAge,
		prices:      prices,
		market:      marketAgg,
		cache:       cache,
	}, nil
}

// Failure describes a trade that did not validate.
type Failure struct {
	Code   trade.Code
	Detail string
}

func (f Failure) MessageKey() string { return f.Code.MessageKey() }

// Action is the UI affordance for the failure: "unlock" when an approval
// fixes it, "disabled" otherwise.
func (f Failure) Action() string {
	if f.Code.Remediable() {
		return "unlock"
	}
	return "disabled"
}

// Quote is the outcome of one validation. Exactly one of Plan and Failure
// is set.
type Quote struct {
	Context trade.Context
	Plan    *trade.Plan
	Failure *Failure
	// USDValue is the USD value of the selected-token side of the plan,
	// scaled by 1e18. Nil when no price is available.
	USDValue    *big.Int
	BlockNumber uint64
}

// Quote validates buying, selling or crowdsale-buying quantity WINES for c.
// It returns ErrNotReady while the snapshot the kind needs is still loading;
// validation failures are reported in Quote.Failure, not as errors.
func (s *QuoteService) Quote(ctx context.Context, c trade.Context, quantity string) (*Quote, error) {
	if !c.Kind.Valid() {
		return nil, ErrInvalidKind
	}
	snap, err := s.snapshot(ctx, c)
	if err != nil {
		return nil, err
	}
	if !trade.Ready(c, snap, s.validator.Params()) {
		s.metrics.Quote(string(c.Kind), "not_ready")
		return nil, ErrNotReady
	}

	q := &Quote{Context: c, BlockNumber: snap.BlockNumber}
	plan, err := s.validator.Validate(c.Kind, quantity, snap)
	if errors.Is(err, trade.ErrSnapshotIncomplete) {
		s.metrics.Quote(string(c.Kind), "not_ready")
		return nil, ErrNotReady
	}
	if err != nil {
		code, _ := trade.CodeOf(err)
		s.logger.Debug("trade rejected", "kind", c.Kind, "token", c.SelectedToken, "quantity", quantity, "err", err)
		s.metrics.Quote(string(c.Kind), string(code))
		q.Failure = &Failure{Code: code, Detail: err.Error()}
		return q, nil
	}

	s.metrics.Quote(string(c.Kind), "ok")
	q.Plan = &plan
	q.USDValue = s.usdValue(ctx, c.SelectedToken, plan, snap)
	s.logger.Debug("quote computed", "kind", c.Kind, "token", c.SelectedToken, "in", plan.InputValue, "out", plan.OutputValue)
	return q, nil
}

// Ready reports whether c can be quoted from the current snapshot.
func (s *QuoteService) Ready(ctx context.Context, c trade.Context) (bool, error) {
	if !c.Kind.Valid() {
		return false, ErrInvalidKind
	}
	snap, err := s.snapshot(ctx, c)
	if err != nil {
		return false, err
	}
	return trade.Ready(c, snap, s.validator.Params()), nil
}

// Price summarises the WINES price. ETH amounts are per whole WINES, all
// values scaled by 1e18. Crowdsale and USD values are nil when unknown.
type Price struct {
	PoolETH      *big.Int
	PoolUSD      *big.Int
	CrowdsaleETH *big.Int
	CrowdsaleUSD *big.Int
	ETHUSD       *big.Int
	BlockNumber  uint64
}

// Price returns the current WINES price from the pool and the crowdsale.
func (s *QuoteService) Price(ctx context.Context) (*Price, error) {
	snap, err := s.snapshot(ctx, marketContext)
	if err != nil {
		return nil, err
	}

	winesReserve, ok1 := snap.ReserveWINESToken().Get()
	ethReserve, ok2 := snap.ReserveWINESETH().Get()
	if !ok1 || !ok2 {
		return nil, ErrNotReady
	}
	poolETH, err := trade.GetExchangeRate(winesReserve, ethReserve)
	if err != nil {
		return nil, err
	}

	p := &Price{PoolETH: poolETH, BlockNumber: snap.BlockNumber}
	if rate, ok := snap.CrowdsaleRateETH().Get(); ok && rate.Sign() > 0 {
		p.CrowdsaleETH, _ = trade.CrossRate(amount.Unit(amount.Decimals), rate)
	}

	if ethUSD := s.ethUSD(ctx); ethUSD != nil {
		p.ETHUSD = ethUSD
		p.PoolUSD = trade.Dollarize(p.PoolETH, ethUSD)
		if p.CrowdsaleETH != nil {
			p.CrowdsaleUSD = trade.Dollarize(p.CrowdsaleETH, ethUSD)
		}
	}
	return p, nil
}

// Run keeps the wallet-less ETH snapshot behind Price fresh until ctx ends.
// It returns ErrClosed if the service is closed first.
func (s *QuoteService) Run(ctx context.Context, interval time.Duration) error {
	s.market.Run(ctx, interval)
	if ctx.Err() == nil {
		return market.ErrClosed
	}
	return nil
}

// Close shuts down the market aggregator and every cached one.
func (s *QuoteService) Close() {
	s.market.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
}

// marketContext is the context of the public, wallet-less ETH view.
var marketContext = trade.Context{SelectedToken: trade.SymbolETH, Kind: trade.KindBuy}

func (s *QuoteService) aggregator(c trade.Context) (*market.Aggregator, error) {
	if c.Key() == marketContext.Key() {
		return s.market, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if agg, ok := s.cache.Get(c.Key()); ok {
		return agg, nil
	}

	agg := market.New(s.reader, s.addrs, s.logger, s.metrics)
	if err := agg.Bind(c); err != nil {
		agg.Close()
		if errors.Is(err, market.ErrUnknownToken) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownToken, c.SelectedToken)
		}
		return nil, err
	}
	s.cache.Add(c.Key(), agg)
	s.logger.Debug("snapshot created", "key", c.Key())
	return agg, nil
}

// snapshot returns the snapshot for c, refreshing it first when it is older
// than maxAge.
func (s *QuoteService) snapshot(ctx context.Context, c trade.Context) (trade.Snapshot, error) {
	agg, err := s.aggregator(c)
	if err != nil {
		return trade.Snapshot{}, err
	}

	snap := agg.Snapshot()
	if !snap.UpdatedAt.IsZero() && time.Since(snap.UpdatedAt) <= s.maxAge {
		return snap, nil
	}
	if err := agg.Refresh(ctx); err != nil && !errors.Is(err, market.ErrClosed) {
		return trade.Snapshot{}, err
	}
	return agg.Snapshot(), nil
}

func (s *QuoteService) ethUSD(ctx context.Context) *big.Int {
	if s.prices == nil {
		return nil
	}
	rate, err := s.prices.ETHRate(ctx)
	if err != nil {
		s.logger.Warn("eth price unavailable", "err", err)
		return nil
	}
	return rate
}

// usdValue prices the selected-token side of plan: the input of buys and
// crowdsale purchases, the output of sells. Other tokens are converted to
// ether through their pool first.
func (s *QuoteService) usdValue(ctx context.Context, token trade.Symbol, plan trade.Plan, snap trade.Snapshot) *big.Int {
	side := plan.InputValue
	if plan.Kind == trade.KindSell {
		side = plan.OutputValue
	}

	ethValue := side
	if !token.IsNative() {
		tokenReserve, _ := snap.ReserveSelectedTokenToken().Get()
		ethReserve, _ := snap.ReserveSelectedTokenETH().Get()
		ethPerToken, err := trade.GetExchangeRate(tokenReserve, ethReserve)
		if err != nil {
			return nil
		}
		ethValue = trade.Dollarize(side, ethPerToken)
	}

	ethUSD := s.ethUSD(ctx)
	if ethUSD == nil {
		return nil
	}
	return trade.Dollarize(ethValue, ethUSD)
}
