// Package config loads the process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

// Store backends
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config describes every knob of the server and the CLI
type Config struct {
	Store        string        `env:"WEALTHSIM_STORE"         envDefault:"sqlite"`
	SQLitePath   string        `env:"WEALTHSIM_SQLITE_PATH"   envDefault:"wealthsim.db"`
	DBConnStr    string        `env:"DB_CONN_STR"`
	APIToken     string        `env:"API_TOKEN"               envDefault:"dev-token"`
	GRPCAddr     string        `env:"WEALTHSIM_GRPC_ADDR"     envDefault:":8080"`
	StartingCash string        `env:"WEALTHSIM_STARTING_CASH" envDefault:"10000"`
	Throttle     time.Duration `env:"WEALTHSIM_THROTTLE"      envDefault:"2s"`
	Debounce     time.Duration `env:"WEALTHSIM_DEBOUNCE"      envDefault:"300ms"`
	SettleDelay  time.Duration `env:"WEALTHSIM_SETTLE_DELAY"  envDefault:"50ms"`
	MarketTZ     string        `env:"WEALTHSIM_MARKET_TZ"     envDefault:"Local"`
	FreshViews   []string      `env:"WEALTHSIM_FRESH_VIEWS"   envDefault:"portfolio,networth" envSeparator:","`
	DayEvery     time.Duration `env:"WEALTHSIM_DAY_EVERY"     envDefault:"0s"`
	LogLevel     string        `env:"WEALTHSIM_LOG_LEVEL"     envDefault:"info"`
	OTelEndpoint string        `env:"WEALTHSIM_OTEL_ENDPOINT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the environment
func Load() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the env tags cannot express
func (c *Config) Validate() error {
	var errs []error
	switch c.Store {
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("WEALTHSIM_SQLITE_PATH is required for the sqlite store"))
		}
	case StorePostgres:
		if c.DBConnStr == "" {
			errs = append(errs, errors.New("DB_CONN_STR is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("WEALTHSIM_STORE must be %q or %q, got %q", StoreSQLite, StorePostgres, c.Store))
	}
	if _, err := c.StartingCashAmount(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.MarketLocation(); err != nil {
		errs = append(errs, err)
	}
	if c.Throttle < 0 || c.Debounce < 0 || c.SettleDelay < 0 || c.DayEvery < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	return errors.Join(errs...)
}

// StartingCashAmount parses the starting cash
func (c *Config) StartingCashAmount() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.StartingCash)
	if err != nil {
		return decimal.Zero, fmt.Errorf("WEALTHSIM_STARTING_CASH: %w", err)
	}
	return d, nil
}

// MarketLocation resolves the time zone of the trading window
func (c *Config) MarketLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.MarketTZ)
	if err != nil {
		return nil, fmt.Errorf("WEALTHSIM_MARKET_TZ: %w", err)
	}
	return loc, nil
}
