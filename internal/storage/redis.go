package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"resume-match-go/internal/config"
	"resume-match-go/internal/types"
)

// ErrProfileNotCached 画像缓存未命中。调用方应重新抽取画像并回填。
var ErrProfileNotCached = redis.Nil

const profileKeyPrefix = "profile:"

// ProfileCache 基于Redis的结构化画像缓存。
// 画像抽取是确定性的纯文本运算，但批量排序场景下同一份文档会被反复抽取，
// 缓存命中可以跳过整个抽取管线。
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProfileCache 创建画像缓存并验证连接
func NewProfileCache(cfg *config.RedisConfig) (*ProfileCache, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis地址不能为空")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("连接Redis失败 %s: %w", cfg.Address, err)
	}

	return &ProfileCache{
		client: client,
		ttl:    time.Duration(cfg.ProfileTTLHours) * time.Hour,
	}, nil
}

// profileKey 生成缓存key
func profileKey(documentID string) string {
	return profileKeyPrefix + documentID
}

// GetProfile 读取缓存的画像。未命中返回 ErrProfileNotCached。
func (c *ProfileCache) GetProfile(ctx context.Context, documentID string) (*types.ExtractedProfile, error) {
	data, err := c.client.Get(ctx, profileKey(documentID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrProfileNotCached
		}
		return nil, fmt.Errorf("读取画像缓存失败: %w", err)
	}

	var profile types.ExtractedProfile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		// 缓存损坏按未命中处理，让调用方重新抽取覆盖
		return nil, ErrProfileNotCached
	}
	return &profile, nil
}

// PutProfile 写入画像缓存。ttl为0时不过期。
func (c *ProfileCache) PutProfile(ctx context.Context, documentID string, profile *types.ExtractedProfile) error {
	if profile == nil {
		return fmt.Errorf("画像不能为空")
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("序列化画像失败: %w", err)
	}

	if err := c.client.Set(ctx, profileKey(documentID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("写入画像缓存失败: %w", err)
	}
	return nil
}

// InvalidateProfile 删除缓存的画像（文档内容变更后调用）
func (c *ProfileCache) InvalidateProfile(ctx context.Context, documentID string) error {
	if err := c.client.Del(ctx, profileKey(documentID)).Err(); err != nil {
		return fmt.Errorf("删除画像缓存失败: %w", err)
	}
	return nil
}

// Ping 检查Redis连接
func (c *ProfileCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close 关闭Redis连接
func (c *ProfileCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
