package state

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/promptlens/promptlens/internal/kv"
)

// DefaultHistoryLimit caps the history length when no limit is configured.
const DefaultHistoryLimit = 50

// HistoryEntry records one use of a prompt.
type HistoryEntry struct {
	Identifier string    `json:"identifier"`
	UsedAt     time.Time `json:"usedAt"`
}

// History is a most-recent-first list of used prompts.
type History struct {
	store kv.Store
	limit int
	now   func() time.Time
}

// NewHistory returns a history store capped at limit entries.
func NewHistory(store kv.Store, limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{store: store, limit: limit, now: time.Now}
}

// List returns entries, most recent first.
func (h *History) List(ctx context.Context) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	if err := loadJSON(ctx, h.store, KeyHistory, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Record moves id to the front of the history.
func (h *History) Record(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("prompt identifier is required")
	}
	entries, err := h.List(ctx)
	if err != nil {
		return err
	}

	next := make([]HistoryEntry, 0, len(entries)+1)
	next = append(next, HistoryEntry{Identifier: id, UsedAt: h.now().UTC()})
	for _, entry := range entries {
		if entry.Identifier == id {
			continue
		}
		if len(next) >= h.limit {
			break
		}
		next = append(next, entry)
	}
	return saveJSON(ctx, h.store, KeyHistory, next)
}

// Clear removes all entries.
func (h *History) Clear(ctx context.Context) error {
	if h.store == nil {
		return errors.New("state store is not configured")
	}
	return h.store.Remove(ctx, KeyHistory)
}
