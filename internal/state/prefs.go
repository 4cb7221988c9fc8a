package state

import (
	"context"
	"errors"
	"strings"

	"github.com/promptlens/promptlens/internal/kv"
)

// Preferences holds the few persisted user preferences.
type Preferences struct {
	store kv.Store
}

// NewPreferences returns a preference store over store.
func NewPreferences(store kv.Store) *Preferences {
	return &Preferences{store: store}
}

// DefaultAction returns the stored default action, or "" when unset.
func (p *Preferences) DefaultAction(ctx context.Context) (string, error) {
	if p.store == nil {
		return "", errors.New("state store is not configured")
	}
	value, err := p.store.Get(ctx, KeyDefaultAction)
	if errors.Is(err, kv.ErrNotFound) {
		return "", nil
	}
	return value, err
}

// SetDefaultAction stores the default action. An empty action clears it.
func (p *Preferences) SetDefaultAction(ctx context.Context, action string) error {
	if p.store == nil {
		return errors.New("state store is not configured")
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return p.store.Remove(ctx, KeyDefaultAction)
	}
	return p.store.Set(ctx, KeyDefaultAction, action)
}
