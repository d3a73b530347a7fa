package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/valutatrade/internal/domain"
)

const (
	defaultDataDir        = "data"
	defaultBaseCurrency   = "USD"
	defaultRatesTTL       = 300 * time.Second
	defaultUpdateInterval = 600 * time.Second
	defaultRequestTimeout = 10 * time.Second
)

type Config struct {
	DataDir        string
	BaseCurrency   string
	RatesTTL       time.Duration
	UpdateInterval time.Duration
	RequestTimeout time.Duration

	BinanceAPIKey         string
	BinanceAPISecret      string
	BybitAPIKey           string
	BybitAPISecret        string
	ExchangeRateAPIKey    string
	HyperliquidPrivateKey string
}

type ConfigTmp struct {
	DataDir        string        `yaml:"data_dir,omitempty"`
	BaseCurrency   string        `yaml:"base_currency,omitempty"`
	RatesTTL       time.Duration `yaml:"rates_ttl,omitempty"`
	UpdateInterval time.Duration `yaml:"update_interval,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
}

// Get builds the config from flags, an optional yaml file and the
// environment. API credentials come from the environment only (an .env
// file is honored when present).
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	dataDir := flag.String("datadir", defaultDataDir, "directory for persisted state")
	base := flag.String("base", defaultBaseCurrency, "base (reference) currency code")
	ttl := flag.Duration("ratesttl", defaultRatesTTL, "rate snapshot freshness window")
	interval := flag.Duration("updateinterval", defaultUpdateInterval, "background rate refresh interval")
	timeout := flag.Duration("requesttimeout", defaultRequestTimeout, "per-provider request timeout")
	flag.Parse()

	cfg := Config{
		DataDir:        *dataDir,
		BaseCurrency:   *base,
		RatesTTL:       *ttl,
		UpdateInterval: *interval,
		RequestTimeout: *timeout,
	}

	if *configPath != "" {
		var err error
		cfg, err = getYaml(*configPath, cfg)
		if err != nil {
			return Config{}, err
		}
	}

	cur, err := domain.ResolveCurrency(cfg.BaseCurrency)
	if err != nil {
		return Config{}, fmt.Errorf("invalid base currency %q: %w", cfg.BaseCurrency, err)
	}
	cfg.BaseCurrency = cur.Code

	if cfg.RatesTTL <= 0 {
		return Config{}, fmt.Errorf("rates ttl must be positive, got %s", cfg.RatesTTL)
	}
	if cfg.UpdateInterval <= 0 {
		return Config{}, fmt.Errorf("update interval must be positive, got %s", cfg.UpdateInterval)
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("request timeout must be positive, got %s", cfg.RequestTimeout)
	}

	// missing .env is fine, credentials may come from the real environment
	_ = godotenv.Load()

	cfg.BinanceAPIKey = strings.TrimSpace(os.Getenv("BINANCE_API_KEY"))
	cfg.BinanceAPISecret = strings.TrimSpace(os.Getenv("BINANCE_API_SECRET"))
	cfg.BybitAPIKey = strings.TrimSpace(os.Getenv("BYBIT_API_KEY"))
	cfg.BybitAPISecret = strings.TrimSpace(os.Getenv("BYBIT_API_SECRET"))
	cfg.ExchangeRateAPIKey = strings.TrimSpace(os.Getenv("EXCHANGERATE_API_KEY"))
	cfg.HyperliquidPrivateKey = strings.TrimSpace(os.Getenv("HYPERLIQUID_PRIVATE_KEY"))

	return cfg, nil
}

func getYaml(path string, cfg Config) (Config, error) {
	var tmp ConfigTmp

	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	if tmp.DataDir != "" {
		cfg.DataDir = tmp.DataDir
	}
	if tmp.BaseCurrency != "" {
		cfg.BaseCurrency = tmp.BaseCurrency
	}
	if tmp.RatesTTL != 0 {
		cfg.RatesTTL = tmp.RatesTTL
	}
	if tmp.UpdateInterval != 0 {
		cfg.UpdateInterval = tmp.UpdateInterval
	}
	if tmp.RequestTimeout != 0 {
		cfg.RequestTimeout = tmp.RequestTimeout
	}

	return cfg, nil
}
