package state

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/promptlens/promptlens/internal/kv"
	"github.com/promptlens/promptlens/internal/prompt"
)

var _ prompt.TempSourceProvider = (*TempDirs)(nil)

// TempDirs stores time-boxed prompt directories.
type TempDirs struct {
	store kv.Store
	now   func() time.Time
}

// NewTempDirs returns a temporary source store over store.
func NewTempDirs(store kv.Store) *TempDirs {
	return &TempDirs{store: store, now: time.Now}
}

// List returns every stored source, expired or not.
func (t *TempDirs) List(ctx context.Context) ([]prompt.TempSource, error) {
	var sources []prompt.TempSource
	if err := loadJSON(ctx, t.store, KeyTempDirs, &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

// Add registers path for ttl. Adding an existing path renews it.
func (t *TempDirs) Add(ctx context.Context, path string, ttl time.Duration) (prompt.TempSource, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return prompt.TempSource{}, errors.New("directory is required")
	}
	path = filepath.Clean(path)

	sources, err := t.List(ctx)
	if err != nil {
		return prompt.TempSource{}, err
	}
	added := prompt.TempSource{Path: path, AddedAt: t.now().UTC(), TTL: ttl}
	next := make([]prompt.TempSource, 0, len(sources)+1)
	for _, src := range sources {
		if src.Path != path {
			next = append(next, src)
		}
	}
	next = append(next, added)
	return added, saveJSON(ctx, t.store, KeyTempDirs, next)
}

// Remove deletes path and reports whether it was registered.
func (t *TempDirs) Remove(ctx context.Context, path string) (bool, error) {
	path = filepath.Clean(strings.TrimSpace(path))
	sources, err := t.List(ctx)
	if err != nil {
		return false, err
	}
	next := make([]prompt.TempSource, 0, len(sources))
	for _, src := range sources {
		if src.Path != path {
			next = append(next, src)
		}
	}
	if len(next) == len(sources) {
		return false, nil
	}
	return true, saveJSON(ctx, t.store, KeyTempDirs, next)
}

// Active returns sources not expired at now and prunes expired ones.
func (t *TempDirs) Active(ctx context.Context, now time.Time) ([]prompt.TempSource, error) {
	sources, err := t.List(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]prompt.TempSource, 0, len(sources))
	for _, src := range sources {
		if !src.Expired(now) {
			active = append(active, src)
		}
	}
	if len(active) != len(sources) {
		if err := saveJSON(ctx, t.store, KeyTempDirs, active); err != nil {
			return nil, err
		}
	}
	return active, nil
}
