// Package statestore keeps short-lived OAuth state tokens in Redis so that an
// authorization started on one instance can complete on another.
package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("oauth state not found or expired")

const keyPrefix = "oauth_state:"

// Entry is what an authorization flow remembers between redirect and callback.
type Entry struct {
	UserID   int64  `json:"user_id"`
	Timezone string `json:"timezone"`
}

type Store interface {
	Put(ctx context.Context, state string, e Entry) error
	Take(ctx context.Context, state string) (*Entry, error)
}

type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) Store {
	return &redisStore{rdb: rdb, ttl: ttl}
}

func (s *redisStore) Put(ctx context.Context, state string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	ok, err := s.rdb.SetNX(ctx, keyPrefix+state, data, s.ttl).Result()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if !ok {
		return fmt.Errorf("oauth state %q already in use", state)
	}
	return nil
}

// Take returns the entry for state and deletes it, so a state can be
// redeemed only once.
func (s *redisStore) Take(ctx context.Context, state string) (*Entry, error) {
	data, err := s.rdb.GetDel(ctx, keyPrefix+state).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		slog.Info(err.Error())
		return nil, err
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
