package state

import (
	"context"
	"errors"
	"strings"

	"github.com/promptlens/promptlens/internal/kv"
)

// Pins is the ordered list of pinned prompt identifiers.
type Pins struct {
	store kv.Store
}

// NewPins returns a pin store over store.
func NewPins(store kv.Store) *Pins {
	return &Pins{store: store}
}

// List returns pinned identifiers in pin order.
func (p *Pins) List(ctx context.Context) ([]string, error) {
	var ids []string
	if err := loadJSON(ctx, p.store, KeyPins, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Pin appends id. Pinning an already pinned id is a no-op.
func (p *Pins) Pin(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("prompt identifier is required")
	}
	ids, err := p.List(ctx)
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	return saveJSON(ctx, p.store, KeyPins, append(ids, id))
}

// Unpin removes id and reports whether it was pinned.
func (p *Pins) Unpin(ctx context.Context, id string) (bool, error) {
	ids, err := p.List(ctx)
	if err != nil {
		return false, err
	}
	kept := make([]string, 0, len(ids))
	removed := false
	for _, existing := range ids {
		if existing == id {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	if !removed {
		return false, nil
	}
	return true, saveJSON(ctx, p.store, KeyPins, kept)
}

// IsPinned reports whether id is pinned.
func (p *Pins) IsPinned(ctx context.Context, id string) (bool, error) {
	set, err := p.Set(ctx)
	if err != nil {
		return false, err
	}
	return set[id], nil
}

// Set returns the pinned identifiers as a set.
func (p *Pins) Set(ctx context.Context) (map[string]bool, error) {
	ids, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
