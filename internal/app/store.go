package app

import (
	"context"
	"fmt"
	"io"

	"github.com/simaogato/wealthsim-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/wealthsim-backend/internal/adapter/repository/sqlite"
	"github.com/simaogato/wealthsim-backend/internal/config"
	"github.com/simaogato/wealthsim-backend/internal/domain"
	"github.com/simaogato/wealthsim-backend/internal/usecase/market"
	"github.com/simaogato/wealthsim-backend/internal/usecase/refresh"
)

// OpenStore opens the persistent store selected by cfg
func OpenStore(ctx context.Context, cfg *config.Config) (domain.KeyValueStore, io.Closer, error) {
	switch cfg.Store {
	case config.StorePostgres:
		db, err := postgres.NewDB(ctx, cfg.DBConnStr)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return postgres.NewKVStore(db), db, nil
	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// OptionsFromConfig translates the environment configuration into Options
func OptionsFromConfig(cfg *config.Config, store domain.KeyValueStore) (Options, error) {
	cash, err := cfg.StartingCashAmount()
	if err != nil {
		return Options{}, err
	}
	loc, err := cfg.MarketLocation()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Store:        store,
		StartingCash: cash,
		Market:       market.DefaultHours(loc),
		Refresh: refresh.Config{
			Throttle:    cfg.Throttle,
			Debounce:    cfg.Debounce,
			SettleDelay: cfg.SettleDelay,
			FreshViews:  cfg.FreshViews,
		},
	}, nil
}
