package savestate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis.
// It is safe for concurrent use.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore connects a store with the given options. A ttl of 0 keeps
// saved states until they are deleted.
func NewRedisStore(opts *redis.Options, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: redis.NewClient(opts), ttl: ttl}
}

// Close closes the Redis connection. Implements io.Closer.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Ping verifies Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Client returns the underlying Redis client, e.g. to share it with a RedisJournal.
func (s *RedisStore) Client() *redis.Client {
	return s.rdb
}

// Put stores data for team and records team in the match index.
func (s *RedisStore) Put(ctx context.Context, matchID string, team int, data []byte) error {
	if matchID == "" {
		return fmt.Errorf("match id cannot be empty")
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, StateKey(matchID, team), data, s.ttl)
	pipe.SAdd(ctx, StateIndexKey(matchID), team)
	if s.ttl > 0 {
		pipe.Expire(ctx, StateIndexKey(matchID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write AI state to Redis: %w", err)
	}
	return nil
}

// Get returns the state saved for team, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, matchID string, team int) ([]byte, error) {
	data, err := s.rdb.Get(ctx, StateKey(matchID, team)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read AI state from Redis: %w", err)
	}
	return data, nil
}

// Delete removes the state saved for team. Deleting a missing state is not an error.
func (s *RedisStore) Delete(ctx context.Context, matchID string, team int) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, StateKey(matchID, team))
	pipe.SRem(ctx, StateIndexKey(matchID), team)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete AI state from Redis: %w", err)
	}
	return nil
}

// Teams lists every team with saved state in ascending order.
func (s *RedisStore) Teams(ctx context.Context, matchID string) ([]int, error) {
	members, err := s.rdb.SMembers(ctx, StateIndexKey(matchID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list AI states: %w", err)
	}

	teams := make([]int, 0, len(members))
	for _, m := range members {
		team, err := strconv.Atoi(m)
		if err != nil {
			return nil, fmt.Errorf("invalid team '%s' in state index: %w", m, err)
		}
		teams = append(teams, team)
	}
	sort.Ints(teams)
	return teams, nil
}
