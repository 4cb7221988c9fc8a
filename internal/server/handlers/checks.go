package handlers

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/promptlens/promptlens/internal/kv"
	"github.com/promptlens/promptlens/internal/prompt"
)

const storeProbeKey = "health:probe"

// StoreChecker reports whether the key-value store answers a read. A missing
// key is healthy.
func StoreChecker(store kv.Store) HealthChecker {
	return CheckerFunc(func(ctx context.Context) error {
		if store == nil {
			return fmt.Errorf("store not configured")
		}
		_, err := store.Get(ctx, storeProbeKey)
		if err != nil && !stderrors.Is(err, kv.ErrNotFound) {
			return fmt.Errorf("read probe key: %w", err)
		}
		return nil
	})
}

// PromptsChecker reports whether the loader holds a loaded tree.
func PromptsChecker(loader *prompt.Loader) HealthChecker {
	return CheckerFunc(func(context.Context) error {
		if loader == nil {
			return fmt.Errorf("loader not configured")
		}
		if !loader.Loaded() {
			return fmt.Errorf("prompts not loaded")
		}
		return nil
	})
}
