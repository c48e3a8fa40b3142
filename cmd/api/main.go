package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/joho/godotenv"
	"github.com/nulln0ne/wines-storefront/internal/config"
	"github.com/nulln0ne/wines-storefront/internal/eth"
	"github.com/nulln0ne/wines-storefront/internal/handler"
	"github.com/nulln0ne/wines-storefront/internal/logging"
	"github.com/nulln0ne/wines-storefront/internal/metrics"
	"github.com/nulln0ne/wines-storefront/internal/pricefeed"
	"github.com/nulln0ne/wines-storefront/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	reader, err := eth.Dial(ctx, cfg.RPCEndpoint, 0)
	if err != nil {
		return fmt.Errorf("failed to connect to Ethereum node: %w", err)
	}
	defer reader.Close()

	feed := pricefeed.New(logger, cfg.PriceFeedURL, cfg.PriceFeedTTL.Duration)
	quoteService, err := service.NewQuoteService(logger, reader, service.QuoteConfig{
		Addresses: cfg.Addresses(),
		Params:    cfg.Params(),
		MaxAge:    cfg.SnapshotMaxAge.Duration,
		CacheSize: cfg.SnapshotCacheSize,
	}, feed, m)
	if err != nil {
		return err
	}
	defer quoteService.Close()

	go func() {
		if err := quoteService.Run(ctx, cfg.RefreshInterval.Duration); err != nil {
			logger.Error("market refresher stopped", "err", err)
		}
	}()

	estimateService := service.NewEstimateService(logger, reader)
	estimateHandler := handler.NewEstimateHandler(logger, estimateService)
	quoteHandler := handler.NewQuoteHandler(logger, quoteService)

	app := fiber.New()
	app.Get("/estimate", estimateHandler.Handle())
	app.Get("/v1/quote", quoteHandler.HandleQuote())
	app.Get("/v1/ready", quoteHandler.HandleReady())
	app.Get("/v1/price", quoteHandler.HandlePrice())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	app.Get("/healthz", handler.Health())

	logger.Info("starting storefront api", "addr", cfg.Addr, "tokens", len(cfg.Tokens))

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.Addr)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			_ = app.Shutdown()
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(3 * time.Second); err != nil {
		logger.Warn("shutdown", "err", err)
	}
	return nil
}
