package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/valutatrade/config"
	"github.com/vadiminshakov/valutatrade/internal/clients"
	"github.com/vadiminshakov/valutatrade/internal/domain"
	"github.com/vadiminshakov/valutatrade/internal/services/auth"
	"github.com/vadiminshakov/valutatrade/internal/services/ledger"
	"github.com/vadiminshakov/valutatrade/internal/services/provider"
	"github.com/vadiminshakov/valutatrade/internal/services/rates"
	"github.com/vadiminshakov/valutatrade/internal/services/updater"
	"github.com/vadiminshakov/valutatrade/internal/storage/portfolios"
	"github.com/vadiminshakov/valutatrade/internal/storage/ratecache"
	"github.com/vadiminshakov/valutatrade/internal/storage/trades"
	"github.com/vadiminshakov/valutatrade/internal/storage/users"
	"github.com/vadiminshakov/valutatrade/internal/tui"
)

func main() {
	cfg, err := config.Get()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "cannot create data dir:", err)
		os.Exit(1)
	}

	// log to a file so zap output does not fight the interactive screen
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{filepath.Join(cfg.DataDir, "valutatrade.log")}
	logCfg.ErrorOutputPaths = logCfg.OutputPaths
	logger, err := logCfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot init logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rateStore, err := ratecache.NewStore(cfg.DataDir, logger)
	if err != nil {
		return err
	}
	portfolioStore, err := portfolios.NewStore(cfg.DataDir)
	if err != nil {
		return err
	}
	userStore, err := users.NewStore(cfg.DataDir)
	if err != nil {
		return err
	}
	journal, err := trades.NewJournal(filepath.Join(cfg.DataDir, "trades"))
	if err != nil {
		return err
	}
	defer journal.Close()

	providers := buildProviders(cfg, logger)
	aggregator := provider.NewAggregator(providers, rateStore, cfg.RequestTimeout, logger)
	resolver := rates.NewResolver(rateStore, aggregator, cfg.BaseCurrency, cfg.RatesTTL, logger)
	ledgerSvc := ledger.New(resolver, portfolioStore, journal, cfg.BaseCurrency, logger)
	authSvc := auth.New(userStore, logger)

	session := tui.NewSession(authSvc, ledgerSvc, resolver, cfg.BaseCurrency)
	upd := updater.New(aggregator, cfg.UpdateInterval, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return upd.Run(gctx)
	})
	g.Go(func() error {
		defer stop()
		return session.Run(gctx)
	})

	logger.Info("started",
		zap.String("base_currency", cfg.BaseCurrency),
		zap.Int("providers", len(providers)),
		zap.String("data_dir", cfg.DataDir))

	return g.Wait()
}

// buildProviders wires every rate source that has its credentials
// configured. Binance and Bybit serve public spot tickers and are always
// enabled.
func buildProviders(cfg config.Config, logger *zap.Logger) []provider.RateProvider {
	cryptoAssets := domain.CryptoCodes()
	fiats := domain.FiatCodes()

	providers := []provider.RateProvider{
		provider.NewBinanceProvider(clients.NewBinanceClient(cfg.BinanceAPIKey, cfg.BinanceAPISecret), cryptoAssets, cfg.BaseCurrency),
		provider.NewBybitProvider(clients.NewBybitClient(cfg.BybitAPIKey, cfg.BybitAPISecret, cfg.RequestTimeout), cryptoAssets, cfg.BaseCurrency),
	}

	if cfg.ExchangeRateAPIKey != "" {
		providers = append(providers,
			provider.NewExchangeRateProvider(nil, cfg.ExchangeRateAPIKey, fiats, cfg.BaseCurrency))
	} else {
		logger.Warn("EXCHANGERATE_API_KEY not set, fiat rates limited to the bootstrap snapshot")
	}

	if cfg.HyperliquidPrivateKey != "" {
		hl, err := clients.NewHyperliquidClient(cfg.HyperliquidPrivateKey, clients.HyperliquidAPIURL)
		if err != nil {
			logger.Warn("hyperliquid client init failed, provider disabled", zap.Error(err))
		} else {
			providers = append(providers,
				provider.NewHyperliquidProvider(hl.Exchange().Info(), cryptoAssets, cfg.BaseCurrency))
		}
	}

	return providers
}
