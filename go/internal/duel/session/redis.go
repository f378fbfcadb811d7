package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/timeduel/go/internal/models"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "duel:session:"

// RedisStore keeps sessions as JSON documents with a sliding TTL. The race
// lock is a hash of round -> holder written with HSETNX.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func sessionKey(matchID uuid.UUID) string {
	return keyPrefix + matchID.String()
}

func raceKey(matchID uuid.UUID) string {
	return keyPrefix + matchID.String() + ":race"
}

func (r *RedisStore) Create(ctx context.Context, s *models.LiveSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	ok, err := r.rdb.SetNX(ctx, sessionKey(s.MatchID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if !ok {
		return ErrExists
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, matchID uuid.UUID) (*models.LiveSession, error) {
	data, err := r.rdb.Get(ctx, sessionKey(matchID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	var s models.LiveSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *models.LiveSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(s.MatchID), data, r.ttl)
		pipe.Expire(ctx, raceKey(s.MatchID), r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, matchID uuid.UUID) error {
	if err := r.rdb.Del(ctx, sessionKey(matchID), raceKey(matchID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *RedisStore) AcquireRaceLock(ctx context.Context, matchID uuid.UUID, round int, userID string) (string, bool, error) {
	key := raceKey(matchID)
	field := strconv.Itoa(round)

	set, err := r.rdb.HSetNX(ctx, key, field, userID).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire race lock: %w", err)
	}
	if set {
		if err := r.rdb.Expire(ctx, key, r.ttl).Err(); err != nil {
			return "", false, fmt.Errorf("failed to set race lock ttl: %w", err)
		}
		return userID, true, nil
	}

	holder, err := r.rdb.HGet(ctx, key, field).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to read race lock: %w", err)
	}
	return holder, holder == userID, nil
}
