package redis

import (
	"context"
	"errors"
	"slices"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"vendite/backend/internal/store"
)

const scanBatch = 500

type Store struct {
	client *goredis.Client
	// namespace is prepended to every key so several deployments can share a database.
	namespace string
}

func New(addr string, password string, db int, namespace string) *Store {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Store{client: client, namespace: namespace}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.namespace+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	return s.client.Set(ctx, s.namespace+key, value, 0).Err()
}

func (s *Store) Create(ctx context.Context, key string, value []byte) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, s.namespace+key, value, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrExists
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	removed, err := s.client.Del(ctx, s.namespace+key).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Scan(ctx context.Context, prefix string) ([]store.Entry, error) {
	pattern := s.namespace + escapeGlob(prefix) + "*"
	keys := make([]string, 0, scanBatch)
	iter := s.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)

	entries := make([]store.Entry, 0, len(keys))
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		values, err := s.client.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			str, ok := v.(string)
			if !ok {
				// deleted between SCAN and MGET
				continue
			}
			entries = append(entries, store.Entry{
				Key:   strings.TrimPrefix(keys[start+i], s.namespace),
				Value: []byte(str),
			})
		}
	}
	return entries, nil
}

func escapeGlob(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return replacer.Replace(s)
}
