package redis

import (
	"context"
	"errors"
	"time"

	"NetworkingServer/pkg/id"

	goredis "github.com/redis/go-redis/v9"
)

// unlockScript 只删除自己持有的锁，避免误删他人续上的锁
var unlockScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ErrLockNotHeld 释放时锁已过期或已被他人持有
var ErrLockNotHeld = errors.New("redis lock not held")

// Lock 一把已获取的锁
// client 为 nil 表示降级锁：不做任何互斥，Unlock 为空操作
type Lock struct {
	client *goredis.Client
	key    string
	token  string
}

// Key 锁的 Redis key
func (l *Lock) Key() string { return l.key }

// TryLock 尝试获取锁（SET key token NX PX ttl）
//   - 获取成功返回 (lock, true, nil)
//   - 已被他人持有返回 (nil, false, nil)
//   - client 为 nil 时直接返回降级锁，调用方依赖数据库条件更新兜底
func TryLock(ctx context.Context, client *goredis.Client, key string, ttl time.Duration) (*Lock, bool, error) {
	if client == nil {
		return &Lock{key: key}, true, nil
	}
	token := id.GenerateULID()
	ok, err := client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return &Lock{client: client, key: key, token: token}, true, nil
}

// Unlock 释放锁
func (l *Lock) Unlock(ctx context.Context) error {
	if l == nil || l.client == nil {
		return nil
	}
	n, err := unlockScript.Run(ctx, l.client, []string{l.key}, l.token).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}
