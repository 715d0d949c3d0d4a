package history

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	conlang "github.com/supastishn/conlang-translator"
)

// DefaultRedisKey is the key the history list is stored under.
const DefaultRedisKey = "conlang:history"

// RedisStore persists the history as a single JSON value in Redis, letting
// several processes share one history.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a RedisStore from a connection URL.
func NewRedisStore(url, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return NewRedisStoreFromClient(redis.NewClient(opts), key), nil
}

// NewRedisStoreFromClient creates a RedisStore from an existing client.
func NewRedisStoreFromClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// Load reads the persisted list. A missing key reads as an empty history.
func (r *RedisStore) Load() ([]conlang.HistoryEntry, error) {
	ctx := context.Background()
	data, err := r.client.Get(ctx, r.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []conlang.HistoryEntry
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Save writes the list. Saving an empty list deletes the key.
func (r *RedisStore) Save(entries []conlang.HistoryEntry) error {
	ctx := context.Background()
	if len(entries) == 0 {
		return r.client.Del(ctx, r.key).Err()
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, data, 0).Err()
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Verify RedisStore implements Persister
var _ Persister = (*RedisStore)(nil)
