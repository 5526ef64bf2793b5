package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisBackend persists entries in Redis using native key TTL instead of
// the application-side expiry bookkeeping MemoryBackend does — letting
// multiple engine replicas share the same timeframe/phase/trend state.
// Out-of-order protection is a GET-then-SET compare, not a Lua script: the
// spec's own serialization assumption ("writes to a store for a given key
// are serialized") means the race window between the GET and the SET is
// not expected to be hit in practice, and this keeps the backend mockable
// with the plain redismock expectations the rest of this pack uses.
type RedisBackend struct {
	client redis.UniversalClient
}

// NewRedisBackend connects to addr/db.
func NewRedisBackend(addr string, db int) *RedisBackend {
	return &RedisBackend{client: redis.NewClient(&redis.Options{Addr: addr, DB: db})}
}

type envelope struct {
	Value      json.RawMessage `json:"value"`
	ReceivedAt int64           `json:"received_at_unix_ms"`
}

func (r *RedisBackend) Put(key string, valueJSON []byte, ttl time.Duration, receivedAt time.Time) (bool, error) {
	ctx := context.Background()

	existingRaw, err := r.client.Get(ctx, key).Bytes()
	if err != nil && err != redis.Nil {
		return false, err
	}
	if err == nil {
		var existing envelope
		if err := json.Unmarshal(existingRaw, &existing); err != nil {
			return false, err
		}
		if receivedAt.UnixMilli() < existing.ReceivedAt {
			return false, nil
		}
	}

	env, err := json.Marshal(envelope{Value: valueJSON, ReceivedAt: receivedAt.UnixMilli()})
	if err != nil {
		return false, err
	}
	if err := r.client.Set(ctx, key, env, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisBackend) Get(key string) ([]byte, bool, error) {
	raw, err := r.client.Get(context.Background(), key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false, err
	}
	return env.Value, true, nil
}

func (r *RedisBackend) Delete(key string) error {
	return r.client.Del(context.Background(), key).Err()
}
