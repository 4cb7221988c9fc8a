// Package rediskv implements kv.Store on redis.
package rediskv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	goredis "github.com/redis/go-redis/v9"

	"github.com/promptlens/promptlens/internal/config"
	"github.com/promptlens/promptlens/internal/kv"
)

var _ kv.Store = (*Store)(nil)

// Store keeps values under a common key prefix.
type Store struct {
	rdb    *goredis.Client
	prefix string
}

// Open connects to redis and waits until it answers a ping.
func Open(ctx context.Context, cfg config.RedisConfig) (*Store, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	err := retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return rdb.Ping(pingCtx).Err()
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
	)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return New(rdb, cfg.Prefix), nil
}

// New wraps an existing client.
func New(rdb *goredis.Client, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

// Get returns the value for key, or kv.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := s.check(key); err != nil {
		return "", err
	}
	value, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key without expiry.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.check(key); err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.check(key); err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Keys returns the sorted keys starting with prefix, without the store prefix.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	if s == nil || s.rdb == nil {
		return nil, errors.New("redis store is not initialized")
	}
	var keys []string
	iter := s.rdb.Scan(ctx, 0, s.key(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the client.
func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *Store) key(key string) string {
	return s.prefix + key
}

func (s *Store) check(key string) error {
	if s == nil || s.rdb == nil {
		return errors.New("redis store is not initialized")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("key is required")
	}
	return nil
}
