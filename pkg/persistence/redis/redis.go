// Package redis provides a Redis-backed slot store.
//
// Keys are laid out as <prefix>:<slot key>, e.g.
//
//	builder:workflow-builder:v1        => current document
//	builder:workflow-events:<id>       => event log of a published workflow
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/persistence"
)

const (
	defaultPrefix = "builder:"
	scanBatch     = 100
)

// Slots implements persistence.Slots on a Redis client.
type Slots struct {
	client goredis.UniversalClient
	prefix string
}

var _ persistence.Slots = (*Slots)(nil)

// NewSlots wraps an existing client. prefix is optional (default "builder:");
// a missing trailing ":" is added.
func NewSlots(client goredis.UniversalClient, prefix string) *Slots {
	if prefix == "" {
		prefix = defaultPrefix
	}

	if !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}

	return &Slots{client: client, prefix: prefix}
}

// NewPersistence connects to databaseURL (redis://...) and returns a typed cache.
func NewPersistence(ctx context.Context, databaseURL, prefix string) (persistence.Persistence, error) {
	opts, err := goredis.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := goredis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return persistence.NewCache(NewSlots(client, prefix)), nil
}

func (s *Slots) key(key string) string {
	return s.prefix + key
}

func (s *Slots) Get(ctx context.Context, key string) ([]byte, error) {
	body, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, persistence.ErrSlotNotFound
		}

		return nil, persistence.NewSlotError("Get", key, err)
	}

	return body, nil
}

func (s *Slots) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return persistence.NewSlotError("Put", key, err)
	}

	return nil
}

func (s *Slots) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return persistence.NewSlotError("Delete", key, err)
	}

	return nil
}

// Clear deletes every key under the prefix. SCAN is used instead of KEYS so a
// large keyspace does not block the server.
func (s *Slots) Clear(ctx context.Context) error {
	var cursor uint64

	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("failed to scan slots: %w", err)
		}

		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete slots: %w", err)
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (s *Slots) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (s *Slots) Close(_ context.Context) error {
	return s.client.Close()
}
