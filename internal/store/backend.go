package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/promptlens/promptlens/internal/config"
	"github.com/promptlens/promptlens/internal/kv"
	"github.com/promptlens/promptlens/internal/kv/rediskv"
)

// Backend is an opened key/value store.
type Backend struct {
	kv.Store
	Driver string
	close  func() error
}

// Close releases the backend.
func (b *Backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend opens the key/value store selected by cfg.Driver and prepares
// its schema.
func OpenBackend(ctx context.Context, cfg config.StoreConfig) (*Backend, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", driverLibsql:
		s, err := Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return &Backend{Store: s, Driver: driverLibsql, close: s.Close}, nil
	case "redis":
		s, err := rediskv.Open(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: s, Driver: driver, close: s.Close}, nil
	case "memory":
		return &Backend{Store: kv.NewMemory(), Driver: driver}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}
