package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/MrEthical07/pinlock/store"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "pinlock"

const initDefaultsScript = `
if redis.call("HLEN", KEYS[1]) > 0 then
  return 0
end
for i = 1, #ARGV, 2 do
  redis.call("HSET", KEYS[1], ARGV[i], ARGV[i + 1])
end
return 1
`

var initDefaultsLua = redis.NewScript(initDefaultsScript)

// Store is a Redis-backed store.Backend.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

var _ store.Backend = (*Store)(nil)

// New creates a Store on client. An empty prefix selects DefaultPrefix.
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) recordKey(key string) string {
	return s.prefix + ":rec:" + key
}

func (s *Store) collectionKey(collection string) string {
	return s.prefix + ":col:" + collection
}

func (s *Store) settingsKey() string {
	return s.prefix + ":settings"
}

// Get returns the record stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.redis.Get(ctx, s.recordKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return data, nil
}

// Put stores value under key without expiry. Session expiry is evaluated
// lazily by the session manager, not by Redis TTLs.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := s.redis.Set(ctx, s.recordKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Delete removes key; missing keys are ignored.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.recordKey(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// GetSetting returns a setting value and whether it exists.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	value, err := s.redis.HGet(ctx, s.settingsKey(), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return value, true, nil
}

// SetSetting creates or replaces a setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if err := s.redis.HSet(ctx, s.settingsKey(), key, value).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// PutItem creates or replaces an item in collection.
func (s *Store) PutItem(ctx context.Context, collection, id string, data []byte) error {
	if !store.IsCollection(collection) {
		return fmt.Errorf("%w: %q", store.ErrUnknownCollection, collection)
	}
	if err := s.redis.HSet(ctx, s.collectionKey(collection), id, data).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Count returns the number of items in collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if !store.IsCollection(collection) {
		return 0, fmt.Errorf("%w: %q", store.ErrUnknownCollection, collection)
	}
	n, err := s.redis.HLen(ctx, s.collectionKey(collection)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return int(n), nil
}

// Wipe deletes every collection, the settings hash and the named records in
// one MULTI/EXEC transaction.
func (s *Store) Wipe(ctx context.Context, recordKeys ...string) error {
	keys := make([]string, 0, len(store.Collections)+1+len(recordKeys))
	for _, c := range store.Collections {
		keys = append(keys, s.collectionKey(c))
	}
	keys = append(keys, s.settingsKey())
	for _, k := range recordKeys {
		keys = append(keys, s.recordKey(k))
	}

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// InitDefaults seeds store.DefaultSettings when the settings hash is empty.
func (s *Store) InitDefaults(ctx context.Context) error {
	defaults := store.DefaultSettings()
	names := make([]string, 0, len(defaults))
	for k := range defaults {
		names = append(names, k)
	}
	sort.Strings(names)

	args := make([]interface{}, 0, len(names)*2)
	for _, k := range names {
		args = append(args, k, defaults[k])
	}

	if err := initDefaultsLua.Run(ctx, s.redis, []string{s.settingsKey()}, args...).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}
