package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/condor-estates/condorbot/config"
	"github.com/condor-estates/condorbot/logger"
)

const redisKeyPrefix = "condorbot:collections:"

// redisStore keeps each collection as one JSON value under a prefixed key.
type redisStore struct {
	client *redis.Client
}

// OpenRedis connects to redis and verifies connectivity with a short ping.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.STORE.Error("redis connect failed",
			slog.String("event", "redis.connect"),
			slog.String("host", cfg.Addr),
			slog.String("err", err.Error()),
		)
		_ = client.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	logger.STORE.Info("redis connected",
		slog.String("event", "redis.connect"),
		slog.String("host", cfg.Addr),
		slog.Int("db", cfg.DB),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return &redisStore{client: client}, nil
}

func (s *redisStore) Load(ctx context.Context, collection string, v any) error {
	raw, err := s.client.Get(ctx, redisKeyPrefix+collection).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: load collection %s: %w", collection, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("store: decode collection %s: %w", collection, err)
	}
	return nil
}

func (s *redisStore) Save(ctx context.Context, collection string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode collection %s: %w", collection, err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+collection, raw, 0).Err(); err != nil {
		return fmt.Errorf("store: save collection %s: %w", collection, err)
	}
	logger.STORE.Debug("collection saved",
		slog.String("event", "collection.save"),
		slog.String("backend", "redis"),
		slog.String("collection", collection),
	)
	return nil
}

func (s *redisStore) Close() error { return s.client.Close() }
