package credentials

import (
	"context"
	"fmt"

	"github.com/NeuroVisionAG/Nano-Format/common"
)

// SlotAPIKey 持久化 API Key 的固定槽位
const SlotAPIKey = "gemini-api-key"

// Store 凭据存储接口：单个槽位的键值读写，不做任何格式校验，也不访问 GenAI 服务
type Store interface {
	// Save 持久化 API Key，覆盖已有的值
	Save(ctx context.Context, key string) error
	// Load 读取已保存的 API Key，ok 为 false 表示不存在
	Load(ctx context.Context) (key string, ok bool, err error)
	// Clear 删除已保存的 API Key，不存在时不报错
	Clear(ctx context.Context) error
}

// NewStoreFromConfig 根据 CREDENTIAL_STORE 创建凭据存储
func NewStoreFromConfig(ctx context.Context, cfg *common.Config) (Store, error) {
	switch cfg.CredentialStore {
	case common.CredentialStoreRedis:
		client, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		common.WithField("key_prefix", cfg.RedisKeyPrefix).Info("Using Redis credential store")
		return NewRedisStore(client, cfg.RedisKeyPrefix), nil
	case common.CredentialStoreFile, "":
		store := NewFileStore(cfg.CredentialFile)
		common.WithField("path", store.Path()).Info("Using file credential store")
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported credential store: %s", cfg.CredentialStore)
	}
}
