package config

import (
	"errors"
	"flag"
	"fmt"
	"github.com/joho/godotenv"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	defaultServerAddress        = ":8080"
	defaultDatabaseDSN          = ""
	defaultLogLevel             = "debug"
	defaultBaseURL              = "http://localhost:3000"
	defaultCurrency             = "eur"
	defaultEmailPort            = 587
	defaultRateRPS              = 5.0
	defaultRateBurst            = 10
	defaultPendingSweepInterval = 5 * time.Minute
	defaultPendingStaleAfter    = 30 * time.Minute
)

type Config struct {
	ServerAddr  string
	DatabaseDSN string
	LogLevel    string
	BaseURL     string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeBackendURL    string
	Currency            string

	EmailHost     string
	EmailPort     int
	EmailUser     string
	EmailPassword string
	EmailFrom     string

	AuthTokenKey string

	RateRPS   float64
	RateBurst int
	// TrustProxy takes client address from X-Forwarded-For and X-Real-IP,
	// only safe behind a proxy that overwrites them
	TrustProxy bool

	PendingSweepInterval time.Duration
	PendingStaleAfter    time.Duration
}

var (
	once      sync.Once
	singleton *Config
	errConfig error
)

// New returns new Config. It parses .env file, command line and environment variables only once.
func New() (*Config, error) {
	once.Do(func() {
		// .env is optional, real environment wins over it
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			errConfig = fmt.Errorf("load .env: %w", err)
			return
		}

		singleton, errConfig = parse(flag.CommandLine, os.Args[1:], os.Getenv)
	})

	return singleton, errConfig
}

// parse reads flags from args, then environment variables override them
func parse(fs *flag.FlagSet, args []string, getenv func(string) string) (*Config, error) {
	cfg := Config{
		Currency:             defaultCurrency,
		EmailPort:            defaultEmailPort,
		RateRPS:              defaultRateRPS,
		RateBurst:            defaultRateBurst,
		PendingSweepInterval: defaultPendingSweepInterval,
		PendingStaleAfter:    defaultPendingStaleAfter,
	}

	// initialize flags
	fs.StringVar(&cfg.ServerAddr, "a", defaultServerAddress, "storefront server address")
	fs.StringVar(&cfg.DatabaseDSN, "d", defaultDatabaseDSN, "storefront database DSN")
	fs.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")
	fs.StringVar(&cfg.BaseURL, "b", defaultBaseURL, "public storefront base URL")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// if environment variable is set, then using it
	strVars := map[string]*string{
		"RUN_ADDRESS":           &cfg.ServerAddr,
		"DATABASE_URI":          &cfg.DatabaseDSN,
		"LOG_LEVEL":             &cfg.LogLevel,
		"BASE_URL":              &cfg.BaseURL,
		"STRIPE_SECRET_KEY":     &cfg.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET": &cfg.StripeWebhookSecret,
		"STRIPE_API_URL":        &cfg.StripeBackendURL,
		"CURRENCY":              &cfg.Currency,
		"EMAIL_SERVER_HOST":     &cfg.EmailHost,
		"EMAIL_SERVER_USER":     &cfg.EmailUser,
		"EMAIL_SERVER_PASSWORD": &cfg.EmailPassword,
		"EMAIL_FROM":            &cfg.EmailFrom,
		"AUTH_TOKEN_KEY":        &cfg.AuthTokenKey,
	}
	for name, dst := range strVars {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}

	if v := getenv("EMAIL_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("EMAIL_SERVER_PORT: %w", err)
		}
		cfg.EmailPort = port
	}
	if v := getenv("RATE_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("RATE_RPS: %w", err)
		}
		cfg.RateRPS = rps
	}
	if v := getenv("RATE_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("RATE_BURST: %w", err)
		}
		cfg.RateBurst = burst
	}
	if v := getenv("TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("TRUST_PROXY: %w", err)
		}
		cfg.TrustProxy = trust
	}
	if v := getenv("PENDING_SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("PENDING_SWEEP_INTERVAL: %w", err)
		}
		cfg.PendingSweepInterval = d
	}
	if v := getenv("PENDING_STALE_AFTER"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("PENDING_STALE_AFTER: %w", err)
		}
		cfg.PendingStaleAfter = d
	}

	return &cfg, nil
}
