package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix  = "pos:cart:"
	redisMaxRetries = 5
)

// ErrConflict is returned when a cart kept changing under optimistic retries.
var ErrConflict = errors.New("cart modified concurrently, please retry")

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore keeps carts as JSON documents so several API instances can
// serve the same till. Updates use WATCH/MULTI optimistic transactions.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) key(k string) string {
	return redisKeyPrefix + k
}

func (s *redisStore) Get(ctx context.Context, key string) (*Cart, error) {
	return s.load(ctx, s.client, s.key(key))
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *redisStore) load(ctx context.Context, cmd stringGetter, key string) (*Cart, error) {
	raw, err := cmd.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	c := New()
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if c.Lines == nil {
		c.Lines = []Line{}
	}
	return c, nil
}

func (s *redisStore) Update(ctx context.Context, key string, fn func(*Cart) error) (*Cart, error) {
	rkey := s.key(key)
	var result *Cart

	txf := func(tx *redis.Tx) error {
		c, err := s.load(ctx, tx, rkey)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		raw, err := json.Marshal(c)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, rkey, raw, s.ttl)
			return nil
		})
		if err == nil {
			result = c
		}
		return err
	}

	for i := 0; i < redisMaxRetries; i++ {
		err := s.client.Watch(ctx, txf, rkey)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, ErrConflict
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}
