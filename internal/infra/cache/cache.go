package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	memoryStorage "github.com/gofiber/storage/memory/v2"
	"github.com/redis/go-redis/v9"

	"pdf-service/internal/config"
	"pdf-service/internal/domain"
)

const keyPrefix = "pdfcache:"

// Store keeps rendered PDFs. Get returns nil bytes on a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// Key hashes the html and every option that affects the output.
func Key(html string, opts domain.RenderOptions) string {
	h := sha256.New()
	h.Write([]byte(html))
	h.Write([]byte{0})
	h.Write([]byte(opts.Format))
	for _, m := range []string{opts.Margin.Top, opts.Margin.Right, opts.Margin.Bottom, opts.Margin.Left} {
		h.Write([]byte{0})
		h.Write([]byte(m))
	}
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatBool(opts.PrintBackground)))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// RedisStore caches PDFs in Redis.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return data, err
}

func (s *RedisStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.rdb.Set(ctx, key, data, ttl).Err()
}

// MemoryStore caches PDFs inside the process.
type MemoryStore struct {
	s *memoryStorage.Storage
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{s: memoryStorage.New()}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	return m.s.Get(key)
}

func (m *MemoryStore) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return m.s.Set(key, data, ttl)
}

// New builds the store selected by cfg. It returns nil when caching is disabled.
func New(cfg config.Config) Store {
	if !cfg.Cache.Enabled {
		return nil
	}
	if cfg.Cache.Backend == "redis" {
		return NewRedisStore(redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisHost,
			DB:   cfg.Cache.RedisDB,
		}))
	}
	return NewMemoryStore()
}
