package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/promptlens/promptlens/internal/kv"
)

// TreeCacheKey is the kv key holding the serialized prompt tree.
const TreeCacheKey = "prompt_tree"

// TreeCache persists a resolved tree tagged with its source signature.
type TreeCache interface {
	LoadTree(ctx context.Context, signature string) ([]*Node, bool, error)
	SaveTree(ctx context.Context, signature string, nodes []*Node) error
}

// KVTreeCache stores the tree as JSON in a kv.Store.
type KVTreeCache struct {
	Store kv.Store
	Key   string
}

type cachedTree struct {
	Signature string  `json:"signature"`
	Prompts   []*Node `json:"prompts"`
}

// NewKVTreeCache returns a cache under TreeCacheKey.
func NewKVTreeCache(store kv.Store) *KVTreeCache {
	return &KVTreeCache{Store: store, Key: TreeCacheKey}
}

// LoadTree returns the cached tree when its signature matches.
func (c *KVTreeCache) LoadTree(ctx context.Context, signature string) ([]*Node, bool, error) {
	if c == nil || c.Store == nil {
		return nil, false, nil
	}
	raw, err := c.Store.Get(ctx, c.key())
	if errors.Is(err, kv.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load prompt tree: %w", err)
	}

	var cached cachedTree
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&cached); err != nil {
		return nil, false, fmt.Errorf("decode prompt tree: %w", err)
	}
	if cached.Signature != signature {
		return nil, false, nil
	}
	// Restored properties must render exactly like freshly parsed ones.
	normalizeNodes(cached.Prompts)
	return cached.Prompts, true, nil
}

// SaveTree replaces the cached tree.
func (c *KVTreeCache) SaveTree(ctx context.Context, signature string, nodes []*Node) error {
	if c == nil || c.Store == nil {
		return nil
	}
	data, err := json.Marshal(cachedTree{Signature: signature, Prompts: nodes})
	if err != nil {
		return fmt.Errorf("encode prompt tree: %w", err)
	}
	if err := c.Store.Set(ctx, c.key(), string(data)); err != nil {
		return fmt.Errorf("save prompt tree: %w", err)
	}
	return nil
}

func (c *KVTreeCache) key() string {
	if c.Key == "" {
		return TreeCacheKey
	}
	return c.Key
}
