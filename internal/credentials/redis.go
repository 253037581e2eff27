package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore 把槽位保存在 Redis 中，适合多个实例共享同一个 API Key
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisClient 解析 REDIS_URL 并检查连接
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		// ParseURL 不支持 host:port 形式，回退为直接地址
		opts = &redis.Options{Addr: url}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedisStore 创建 Redis 凭据存储
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key() string {
	return s.prefix + SlotAPIKey
}

func (s *RedisStore) Save(ctx context.Context, key string) error {
	if err := s.client.Set(ctx, s.key(), key, 0).Err(); err != nil {
		return fmt.Errorf("failed to save api key: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) (string, bool, error) {
	key, err := s.client.Get(ctx, s.key()).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load api key: %w", err)
	}
	return key, true, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("failed to clear api key: %w", err)
	}
	return nil
}

// Close 关闭底层 Redis 连接
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
