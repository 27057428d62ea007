package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of the go-redis client the store uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps the cursor under <prefix>:cursor:<mode>.
type RedisStore struct {
	client    RedisClient
	key       string
	startPage int
	logger    *slog.Logger
}

func NewRedisStore(client RedisClient, prefix, mode string, startPage int, logger *slog.Logger) *RedisStore {
	if startPage < 1 {
		startPage = 1
	}
	key := fmt.Sprintf("%s:cursor:%s", prefix, mode)
	return &RedisStore{
		client:    client,
		key:       key,
		startPage: startPage,
		logger:    logger.With("component", "progress", "key", key),
	}
}

func (s *RedisStore) Key() string { return s.key }

func (s *RedisStore) Load(ctx context.Context) (int, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return s.startPage, nil
	}
	if err != nil {
		return s.startPage, fmt.Errorf("failed to load progress: %w", err)
	}

	page, err := strconv.Atoi(val)
	if err != nil || page < 1 {
		s.logger.Warn("ignoring unusable progress value", "value", val)
		return s.startPage, nil
	}

	s.logger.Info("resuming from saved page", "page", page)
	return page, nil
}

func (s *RedisStore) Save(ctx context.Context, page int) error {
	if err := validate(page); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, page, 0).Err(); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	s.logger.Debug("progress saved", "page", page)
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear progress: %w", err)
	}
	s.logger.Info("progress cleared")
	return nil
}
