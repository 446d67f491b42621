// Package redis 提供 Redis 缓存操作的封装
// 使用 github.com/redis/go-redis/v9 作为底层客户端
package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"lingyin_social_server/internal/config"

	"github.com/redis/go-redis/v9"
)

// cacheService CacheService/AsyncCacheService 接口的实现
type cacheService struct {
	client *redis.Client
}

// Init 初始化 Redis 连接并返回缓存服务实例
// 同时启动异步缓存更新 Worker Pool
func Init() AsyncCacheService {
	conf := config.GetConfig()
	addr := conf.RedisConfig.Host + ":" + strconv.Itoa(conf.RedisConfig.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: conf.RedisConfig.Password,
		DB:       conf.RedisConfig.Db,

		// 连接池配置
		PoolSize:     50, // 最大连接数
		MinIdleConns: 15, // 最小空闲连接，与 Worker 数量匹配
	})

	// 启动 15 个 Worker，缓冲区大小 3000，供各 Service 共享
	InitCacheWorker(15, 3000)

	return &cacheService{client: client}
}

// Set 设置键值对并指定过期时间
func (s *cacheService) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Get 获取键对应的值，键不存在返回空字符串和 nil
func (s *cacheService) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

// GetOrError 获取键对应的值，键不存在返回 redis.Nil
func (s *cacheService) GetOrError(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

// Delete 删除键（如果存在）
func (s *cacheService) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// DeleteByPattern 删除匹配模式的所有键
// 使用 SCAN 渐进遍历，避免 KEYS 阻塞
func (s *cacheService) DeleteByPattern(ctx context.Context, pattern string) error {
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// SubmitTask 提交异步缓存任务
func (s *cacheService) SubmitTask(action func()) {
	SubmitCacheTask(action)
}

// IsNil 判断错误是否为键不存在
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
