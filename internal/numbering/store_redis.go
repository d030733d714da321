package numbering

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps counters as plain integer keys and commits with WATCH/MULTI.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore constructs a RedisStore. Keys are "<prefix>:<doc type>:<scope>".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "counter"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(docType DocType, scope string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, docType, scope)
}

func readCounter(ctx context.Context, c redis.Cmdable, key string) (int64, bool, error) {
	v, err := c.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// Read implements Store.
func (s *RedisStore) Read(ctx context.Context, docType DocType, scope string) (int64, bool, error) {
	v, found, err := readCounter(ctx, s.client, s.key(docType, scope))
	if err != nil {
		return 0, false, fmt.Errorf("numbering: read counter: %w", err)
	}
	return v, found, nil
}

// Commit implements Store.
func (s *RedisStore) Commit(ctx context.Context, docType DocType, scope string, prev, next int64) error {
	if err := checkCommit(docType, prev, next); err != nil {
		return err
	}
	key := s.key(docType, scope)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, _, err := readCounter(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != prev {
			return ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrConflict), errors.Is(err, redis.TxFailedErr):
		return ErrConflict
	default:
		return fmt.Errorf("numbering: commit counter: %w", err)
	}
}
