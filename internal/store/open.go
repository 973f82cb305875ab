package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/kkfinancial/loan-consult/internal/config"
	"github.com/kkfinancial/loan-consult/internal/leads"
)

// Closer is a leads.Store that holds resources.
type Closer interface {
	leads.Store
	Close() error
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig, opts ...Option) (Closer, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", config.DriverMemory:
		return NewMemory(opts...), nil
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.Path, opts...)
	case config.DriverRedis:
		return OpenRedis(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.Prefix,
		}, opts...)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
