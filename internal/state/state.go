// Package state persists small pieces of user state (pins, history,
// preferences and temporary prompt sources) in a kv.Store. Writes are
// last-write-wins; concurrent writers may lose updates.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/promptlens/promptlens/internal/kv"
)

// Storage keys.
const (
	KeyPins          = "pins"
	KeyHistory       = "history"
	KeyTempDirs      = "temp_dirs"
	KeyDefaultAction = "prefs:default_action"
)

func loadJSON(ctx context.Context, store kv.Store, key string, dst any) error {
	if store == nil {
		return errors.New("state store is not configured")
	}
	raw, err := store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func saveJSON(ctx context.Context, store kv.Store, key string, value any) error {
	if store == nil {
		return errors.New("state store is not configured")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
