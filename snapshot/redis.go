package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures RedisStore's connection, following the
// teacher's cache.CacheConfig shape.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 3 * time.Second
	}
	return c
}

// RedisStore persists a Snapshot as a single Redis hash, one field per
// channel id, so a single failed channel's corrupt payload does not
// block loading every other channel's.
type RedisStore struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

// NewRedisStore dials Redis and verifies the connection with Ping.
// hashKey is the Redis key the snapshot hash is stored under (e.g.
// "cyre:snapshot"). logger defaults to slog.Default() when nil,
// matching the teacher's cache.NewRedisCache.
func NewRedisStore(cfg RedisConfig, hashKey string, logger *slog.Logger) (*RedisStore, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err, "addr", cfg.Addr)
		return nil, fmt.Errorf("snapshot: connect to redis at %s: %w", cfg.Addr, err)
	}

	return &RedisStore{client: client, key: hashKey, logger: logger}, nil
}

// NewRedisStoreFromClient wraps an already-constructed *redis.Client,
// for callers using alicebob/miniredis/v2 in tests.
func NewRedisStoreFromClient(client *redis.Client, hashKey string, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{client: client, key: hashKey, logger: logger}
}

func (r *RedisStore) Save(ctx context.Context, snap Snapshot) error {
	if len(snap) == 0 {
		return nil
	}

	fields := make(map[string]any, len(snap))
	for id, raw := range snap {
		fields[id] = string(raw)
	}

	if err := r.client.HSet(ctx, r.key, fields).Err(); err != nil {
		r.logger.Error("failed to save snapshot to redis", "key", r.key, "error", err)
		return fmt.Errorf("snapshot: hset %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context) (Snapshot, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		if err == redis.Nil {
			return Snapshot{}, nil
		}
		r.logger.Error("failed to load snapshot from redis", "key", r.key, "error", err)
		return nil, fmt.Errorf("snapshot: hgetall %s: %w", r.key, err)
	}

	snap := make(Snapshot, len(fields))
	for id, value := range fields {
		snap[id] = json.RawMessage(value)
	}
	return snap, nil
}

// Close releases the underlying Redis client's connections.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
