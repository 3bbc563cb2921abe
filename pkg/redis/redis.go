package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"NetworkingServer/config"

	goredis "github.com/redis/go-redis/v9"
)

// ErrEmptyAddr 启用了 Redis 但没有配置地址
var ErrEmptyAddr = errors.New("redis addr is empty")

// Connect 创建客户端并 Ping 一次
// 未启用时返回 (nil, nil)：限流与分布式锁按降级模式运行（见 TryLock）
// Ping 失败会关闭客户端，调用方拿到 nil 即可走降级
func Connect(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, ErrEmptyAddr
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PoolTimeout:     cfg.PoolTimeout,
		ConnMaxIdleTime: cfg.ConnMaxIdle,
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: cfg.MinRetryBackoff,
		MaxRetryBackoff: cfg.MaxRetryBackoff,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout(cfg))
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// pingTimeout 建连加一次读写，未配置时 3s
func pingTimeout(cfg config.RedisConfig) time.Duration {
	d := cfg.DialTimeout + cfg.ReadTimeout
	if d <= 0 {
		return 3 * time.Second
	}
	return d
}
