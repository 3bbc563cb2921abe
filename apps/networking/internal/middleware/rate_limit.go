package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"NetworkingServer/config"
	"NetworkingServer/consts"
	"NetworkingServer/pkg/logger"
	"NetworkingServer/pkg/result"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// ==================== Redis 令牌桶 Lua 脚本 ====================

// luaTokenBucket 原子地补充令牌并判断是否放行
//
//	KEYS[1]: 限流 key (rate:limit:ip:{ip})
//	ARGV[1]: 当前时间戳 (毫秒)
//	ARGV[2]: 令牌桶容量
//	ARGV[3]: 每秒产生的令牌数
//	ARGV[4]: 每次请求消耗的令牌数
//
// 返回 1 放行，0 限流
var luaTokenBucket = goredis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

local info = redis.call('HMGET', key, 'tokens', 'last_time')
local current_tokens = tonumber(info[1])
local last_time = tonumber(info[2])

-- 新桶按满桶初始化
if current_tokens == nil then
    current_tokens = capacity
    last_time = now
end

local time_diff = math.max(0, now - last_time)
local new_tokens = math.floor((time_diff * rate) / 1000)
if new_tokens > 0 then
    current_tokens = math.min(capacity, current_tokens + new_tokens)
    last_time = now
end

local allowed = 0
if current_tokens >= requested then
    current_tokens = current_tokens - requested
    allowed = 1
end

redis.call('HSET', key, 'tokens', current_tokens, 'last_time', last_time)

local fill_time = math.ceil(capacity / rate)
redis.call('EXPIRE', key, math.max(60, fill_time * 2))

return allowed
`)

// redisOpTimeout 单次 Redis 限流操作超时，Redis 慢时不拖住请求
const redisOpTimeout = 50 * time.Millisecond

// RedisRateLimiter 基于 Redis 的 IP 级别限流器
// client 为 nil 或 Redis 出错时降级放行
type RedisRateLimiter struct {
	client *goredis.Client
	rate   float64
	burst  int
}

// NewRedisRateLimiter rate: 每秒令牌数, burst: 桶容量
func NewRedisRateLimiter(client *goredis.Client, rate float64, burst int) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, rate: rate, burst: burst}
}

// Allow 是否允许通过
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	if r == nil || r.client == nil || r.rate <= 0 {
		return true
	}

	redisCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	allowed, err := luaTokenBucket.Run(redisCtx, r.client, []string{key}, time.Now().UnixMilli(), r.burst, r.rate, 1).Int64()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			logger.Warn(ctx, "Redis 限流检查超时，降级放行", logger.String("key", key), logger.ErrorField("error", err))
		} else {
			logger.Error(ctx, "Redis 限流检查失败，降级放行", logger.String("key", key), logger.ErrorField("error", err))
		}
		return true
	}
	return allowed == 1
}

// CheckBlacklist IP 是否在黑名单 Set 中，Redis 不可用时视为不在
func CheckBlacklist(ctx context.Context, client *goredis.Client, blacklistKey, ip string) bool {
	if client == nil || blacklistKey == "" {
		return false
	}
	redisCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	exists, err := client.SIsMember(redisCtx, blacklistKey, ip).Result()
	if err != nil {
		logger.Warn(ctx, "Redis 黑名单检查失败，降级放行", logger.String("ip", ip), logger.ErrorField("error", err))
		return false
	}
	return exists
}

// IPRateLimitMiddleware 黑名单 + IP 令牌桶
// 必须在 ClientIPMiddleware 之后使用
func IPRateLimitMiddleware(client *goredis.Client, cfg config.RateLimitConfig) gin.HandlerFunc {
	limiter := NewRedisRateLimiter(client, cfg.IPRate, cfg.IPBurst)

	return func(c *gin.Context) {
		ctx := NewContextWithGin(c)

		ip, ok := GetClientIPSafe(c)
		if !ok {
			logger.Warn(ctx, "无法获取客户端 IP，跳过限流检查", logger.String("path", c.Request.URL.Path))
			c.Next()
			return
		}

		if CheckBlacklist(ctx, client, cfg.BlacklistKey, ip) {
			logger.Warn(ctx, "IP 在黑名单中，拒绝访问",
				logger.String("ip", ip),
				logger.String("path", c.Request.URL.Path),
			)
			result.Fail(c, nil, consts.CodeIPBlocked)
			c.Abort()
			return
		}

		if !limiter.Allow(ctx, "rate:limit:ip:"+ip) {
			logger.Warn(ctx, "IP 请求被限流",
				logger.String("ip", ip),
				logger.String("path", c.Request.URL.Path),
			)
			result.Fail(c, nil, consts.CodeTooManyRequests)
			c.Abort()
			return
		}

		c.Next()
	}
}

// ==================== 单用户内存限流 ====================

// UserRateLimiter 每个用户一个令牌桶，用于发送请求等写接口
type UserRateLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
	r        rate.Limit
	b        int
}

// NewUserRateLimiter requestsPerSecond: 令牌产生速率, burst: 突发容量
func NewUserRateLimiter(requestsPerSecond float64, burst int) *UserRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &UserRateLimiter{
		limiters: make(map[int64]*rate.Limiter),
		r:        rate.Limit(requestsPerSecond),
		b:        burst,
	}
}

// GetLimiter 获取用户的令牌桶，不存在时创建
func (u *UserRateLimiter) GetLimiter(userID int64) *rate.Limiter {
	u.mu.Lock()
	defer u.mu.Unlock()

	limiter, ok := u.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(u.r, u.b)
		u.limiters[userID] = limiter
	}
	return limiter
}

// Cleanup 清理已回满的令牌桶（长时间未使用）
func (u *UserRateLimiter) Cleanup() {
	u.mu.Lock()
	defer u.mu.Unlock()

	for userID, limiter := range u.limiters {
		if limiter.Tokens() >= float64(u.b) {
			delete(u.limiters, userID)
		}
	}
}

// Len 当前令牌桶数量
func (u *UserRateLimiter) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.limiters)
}

// RunCleanup 周期性清理，直到 ctx 取消
func (u *UserRateLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u.Cleanup()
		}
	}
}

// UserRateLimitMiddleware 单用户限流
// 必须在 JWTAuth 之后使用
func UserRateLimitMiddleware(limiter *UserRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			result.Fail(c, nil, consts.CodeUnauthorized)
			c.Abort()
			return
		}

		if !limiter.GetLimiter(userID).Allow() {
			logger.Warn(NewContextWithGin(c), "用户请求被限流",
				logger.String("path", c.Request.URL.Path),
				logger.String("method", c.Request.Method),
			)
			result.Fail(c, nil, consts.CodeTooManyRequests)
			c.Abort()
			return
		}

		c.Next()
	}
}
