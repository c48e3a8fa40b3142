package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nulln0ne/wines-storefront/internal/metrics"
	"github.com/nulln0ne/wines-storefront/internal/trade"
	"github.com/nulln0ne/wines-storefront/pkg/amount"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentReads bounds the RPC calls one refresh keeps in flight.
const maxConcurrentReads = 8

// Aggregator owns the snapshot for one bound trade context. Readers get a
// consistent value from Snapshot at any time; refreshes replace it field by
// field. Results of reads started before the latest Bind are discarded.
type Aggregator struct {
	reader  Reader
	addrs   Addresses
	logger  *slog.Logger
	metrics *metrics.Metrics

	snap atomic.Pointer[trade.Snapshot]

	mu     sync.Mutex
	bound  trade.Context
	gen    uint64
	genCtx context.Context
	cancel context.CancelFunc
	closed bool
}

// New returns an aggregator with nothing bound. m may be nil.
func New(reader Reader, addrs Addresses, logger *slog.Logger, m *metrics.Metrics) *Aggregator {
	genCtx, cancel := context.WithCancel(context.Background())
	a := &Aggregator{
		reader:  reader,
		addrs:   addrs,
		logger:  logger,
		metrics: m,
		genCtx:  genCtx,
		cancel:  cancel,
	}
	empty := trade.Snapshot{}
	a.snap.Store(&empty)
	return a
}

// Snapshot returns the current snapshot by value.
func (a *Aggregator) Snapshot() trade.Snapshot {
	return *a.snap.Load()
}

// Context returns the currently bound trade context.
func (a *Aggregator) Context() trade.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bound
}

// Bind switches the aggregator to c. Changing the account or the selected
// token resets every field to Loading and invalidates reads in flight;
// changing only the trade kind keeps the snapshot.
func (a *Aggregator) Bind(c trade.Context) error {
	if !a.addrs.Supports(c.SelectedToken) {
		return fmt.Errorf("%w: %q", ErrUnknownToken, c.SelectedToken)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}

	if a.gen > 0 && a.bound.Key() == c.Key() {
		a.bound = c
		return nil
	}

	a.cancel()
	a.gen++
	a.genCtx, a.cancel = context.WithCancel(context.Background())
	a.bound = c
	snap := trade.NewSnapshot(c)
	a.snap.Store(&snap)
	a.logger.Debug("snapshot rebound", "account", c.Account.Hex(), "token", c.SelectedToken, "generation", a.gen)
	return nil
}

// Refresh reads every field of the bound context once. A failing read marks
// its field Failed; it is not returned. The returned error is non-nil only
// when ctx ends or the aggregator is closed.
func (a *Aggregator) Refresh(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	gen, bound, genCtx := a.gen, a.bound, a.genCtx
	a.mu.Unlock()

	if gen == 0 {
		return nil
	}

	start := time.Now()
	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(genCtx, cancel)
	defer stop()

	var blockNumber atomic.Uint64
	g, gctx := errgroup.WithContext(readCtx)
	g.SetLimit(maxConcurrentReads)

	g.Go(func() error {
		if bn, err := a.reader.BlockNumber(gctx); err == nil {
			blockNumber.Store(bn)
		}
		return nil
	})
	g.Go(func() error {
		open, err := a.reader.CrowdsaleOpen(gctx, a.addrs.Crowdsale)
		a.applyOpen(gctx, gen, open, err)
		return nil
	})
	for _, r := range a.reads(bound) {
		r := r
		g.Go(func() error {
			vals, err := r.fetch(gctx)
			a.apply(gctx, gen, r.fields, vals, err)
			return nil
		})
	}
	_ = g.Wait()

	a.mu.Lock()
	if gen == a.gen {
		snap := a.Snapshot()
		if bn := blockNumber.Load(); bn > 0 {
			snap.BlockNumber = bn
		}
		snap.UpdatedAt = time.Now()
		a.snap.Store(&snap)
	}
	a.mu.Unlock()

	a.metrics.Refresh(time.Since(start))
	return ctx.Err()
}

// Run refreshes immediately and then on every tick until ctx ends.
func (a *Aggregator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := a.Refresh(ctx); err != nil {
			if !errors.Is(err, ErrClosed) && ctx.Err() == nil {
				a.logger.Warn("snapshot refresh failed", "err", err)
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Close cancels reads in flight. Later calls to Bind and Refresh fail.
func (a *Aggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.gen++
	a.cancel()
}

func (a *Aggregator) apply(ctx context.Context, gen uint64, fields []trade.FieldName, vals []*big.Int, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.current(ctx, gen, err) {
		return
	}

	snap := a.Snapshot()
	for i, n := range fields {
		var f trade.Amount
		if err != nil {
			f = trade.Failed[*big.Int](err)
		} else {
			f = trade.KnownAmount(vals[i])
		}
		snap = snap.With(n, f)
		a.metrics.FieldRead(n.String(), f.State().String())
	}
	if err != nil {
		a.logger.Debug("snapshot read failed", "fields", fields, "err", err)
	}
	a.snap.Store(&snap)
}

func (a *Aggregator) applyOpen(ctx context.Context, gen uint64, open bool, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.current(ctx, gen, err) {
		return
	}

	f := trade.Known(open)
	if err != nil {
		f = trade.Failed[bool](err)
		a.logger.Debug("snapshot read failed", "field", "crowdsaleOpen", "err", err)
	}
	snap := a.Snapshot().WithCrowdsaleOpen(f)
	a.metrics.FieldRead("crowdsaleOpen", f.State().String())
	a.snap.Store(&snap)
}

// current reports whether a completed read may be applied. Callers hold mu.
func (a *Aggregator) current(ctx context.Context, gen uint64, err error) bool {
	if gen != a.gen {
		a.metrics.StaleDropped()
		a.logger.Debug("dropping stale read", "generation", gen, "current", a.gen)
		return false
	}
	// An aborted refresh leaves the previous value in place.
	if err != nil && ctx.Err() != nil {
		return false
	}
	return true
}

type read struct {
	fields []trade.FieldName
	fetch  func(ctx context.Context) ([]*big.Int, error)
}

func single(f func(ctx context.Context) (*big.Int, error)) func(context.Context) ([]*big.Int, error) {
	return func(ctx context.Context) ([]*big.Int, error) {
		v, err := f(ctx)
		if err != nil {
			return nil, err
		}
		return []*big.Int{v}, nil
	}
}

func pair(f func(ctx context.Context) (*big.Int, *big.Int, error)) func(context.Context) ([]*big.Int, error) {
	return func(ctx context.Context) ([]*big.Int, error) {
		a, b, err := f(ctx)
		if err != nil {
			return nil, err
		}
		return []*big.Int{a, b}, nil
	}
}

// reads lists the chain reads for c. Account reads are skipped without a
// wallet and the selected token's pool is skipped for ETH.
func (a *Aggregator) reads(c trade.Context) []read {
	r, addrs := a.reader, a.addrs
	reads := []read{
		{
			fields: []trade.FieldName{trade.FieldReserveWINESToken, trade.FieldReserveWINESETH},
			fetch: pair(func(ctx context.Context) (*big.Int, *big.Int, error) {
				return r.Reserves(ctx, addrs.WINESPair, addrs.WINES)
			}),
		},
		{
			fields: []trade.FieldName{trade.FieldCrowdsaleRateETH},
			fetch: single(func(ctx context.Context) (*big.Int, error) {
				rate, err := r.CrowdsaleRate(ctx, addrs.Crowdsale)
				if err != nil {
					return nil, err
				}
				// tokens per wei, scaled to the 18-decimal exchange-rate form
				return new(big.Int).Mul(rate, amount.Unit(amount.Decimals)), nil
			}),
		},
		{
			fields: []trade.FieldName{trade.FieldTokenCap},
			fetch: single(func(ctx context.Context) (*big.Int, error) {
				return r.Cap(ctx, addrs.WINES)
			}),
		},
		{
			fields: []trade.FieldName{trade.FieldTokenSupply},
			fetch: single(func(ctx context.Context) (*big.Int, error) {
				return r.TotalSupply(ctx, addrs.WINES)
			}),
		},
	}

	selected, hasPool := addrs.Lookup(c.SelectedToken)
	if !c.SelectedToken.IsNative() && hasPool {
		reads = append(reads, read{
			fields: []trade.FieldName{trade.FieldReserveSelectedTokenToken, trade.FieldReserveSelectedTokenETH},
			fetch: pair(func(ctx context.Context) (*big.Int, *big.Int, error) {
				return r.Reserves(ctx, selected.Pair, selected.Token)
			}),
		})
	}

	if !c.HasAccount() {
		return reads
	}

	account := c.Account
	etherFields := []trade.FieldName{trade.FieldBalanceETH}
	if c.SelectedToken.IsNative() {
		etherFields = append(etherFields, trade.FieldBalanceSelectedToken)
	}
	reads = append(reads,
		read{
			fields: etherFields,
			fetch: func(ctx context.Context) ([]*big.Int, error) {
				v, err := r.EtherBalance(ctx, account)
				if err != nil {
					return nil, err
				}
				out := make([]*big.Int, len(etherFields))
				for i := range out {
					out[i] = v
				}
				return out, nil
			},
		},
		read{
			fields: []trade.FieldName{trade.FieldBalanceWINES},
			fetch: single(func(ctx context.Context) (*big.Int, error) {
				return r.BalanceOf(ctx, addrs.WINES, account)
			}),
		},
		read{
			fields: []trade.FieldName{trade.FieldAllowanceWINES},
			fetch: single(func(ctx context.Context) (*big.Int, error) {
				return r.Allowance(ctx, addrs.WINES, account, addrs.Spender)
			}),
		},
	)
	if !c.SelectedToken.IsNative() && hasPool {
		reads = append(reads,
			read{
				fields: []trade.FieldName{trade.FieldBalanceSelectedToken},
				fetch: single(func(ctx context.Context) (*big.Int, error) {
					return r.BalanceOf(ctx, selected.Token, account)
				}),
			},
			read{
				fields: []trade.FieldName{trade.FieldAllowanceSelectedToken},
				fetch: single(func(ctx context.Context) (*big.Int, error) {
					return r.Allowance(ctx, selected.Token, account, addrs.Spender)
				}),
			},
		)
	}
	return reads
}
