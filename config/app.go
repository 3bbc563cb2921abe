package config

import "time"

// AppConfig HTTP 服务基础配置。
type AppConfig struct {
	Name            string        `json:"name" yaml:"name"`                       // 服务名，用于日志与告警标题
	Addr            string        `json:"addr" yaml:"addr"`                       // 监听地址 host:port
	GinMode         string        `json:"ginMode" yaml:"ginMode"`                 // release | debug | test
	Debug           bool          `json:"debug" yaml:"debug"`                     // 调试模式：5xx 时在 error_message 中返回内部错误
	ReadTimeout     time.Duration `json:"readTimeout" yaml:"readTimeout"`         // 读取超时
	WriteTimeout    time.Duration `json:"writeTimeout" yaml:"writeTimeout"`       // 写入超时
	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"` // 优雅停机等待时间
	CORSOrigins     []string      `json:"corsOrigins" yaml:"corsOrigins"`         // 跨域白名单，空表示允许全部
	TrustedProxies  []string      `json:"trustedProxies" yaml:"trustedProxies"`   // 可信反向代理（CIDR 或 IP），空表示信任任意来源的转发头
}

// DefaultAppConfig 返回本地开发的默认配置。
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Name:            getenvString("APP_NAME", "networking"),
		Addr:            getenvString("APP_ADDR", "0.0.0.0:8080"),
		GinMode:         getenvString("GIN_MODE", "release"),
		Debug:           getenvBool("APP_DEBUG", false),
		ReadTimeout:     getenvDuration("APP_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getenvDuration("APP_WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getenvDuration("APP_SHUTDOWN_TIMEOUT", 30*time.Second),
		CORSOrigins:     splitCSV(getenvString("APP_CORS_ALLOW_ORIGINS", "")),
		TrustedProxies:  splitCSV(getenvString("APP_TRUSTED_PROXIES", "")),
	}
}

// JWTConfig 访问令牌校验配置。
// 令牌由登录服务（Telegram 登录）签发，这里只做校验；claims 中必须带 telegram_id。
type JWTConfig struct {
	Secret string        `json:"secret" yaml:"secret"` // HMAC 密钥
	Issuer string        `json:"issuer" yaml:"issuer"` // 可选，非空时校验 iss
	TTL    time.Duration `json:"ttl" yaml:"ttl"`       // 本地签发（测试/运维脚本）时使用的有效期
}

// DefaultJWTConfig 返回默认配置。
func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		Secret: getenvString("JWT_SECRET", "change-me"),
		Issuer: getenvString("JWT_ISSUER", ""),
		TTL:    getenvDuration("JWT_TTL", 24*time.Hour),
	}
}

// RateLimitConfig 限流配置。
type RateLimitConfig struct {
	IPRate       float64 `json:"ipRate" yaml:"ipRate"`             // IP 令牌桶：每秒令牌数
	IPBurst      int     `json:"ipBurst" yaml:"ipBurst"`           // IP 令牌桶容量
	BlacklistKey string  `json:"blacklistKey" yaml:"blacklistKey"` // IP 黑名单 Redis Set
	SendRate     float64 `json:"sendRate" yaml:"sendRate"`         // 单用户发送请求：每秒令牌数
	SendBurst    int     `json:"sendBurst" yaml:"sendBurst"`       // 单用户发送请求：突发容量
}

// DefaultRateLimitConfig 返回默认配置。
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		IPRate:       getenvFloat("RATE_LIMIT_IP_RATE", 10),
		IPBurst:      getenvInt("RATE_LIMIT_IP_BURST", 20),
		BlacklistKey: getenvString("RATE_LIMIT_BLACKLIST_KEY", "networking:blacklist:ips"),
		SendRate:     getenvFloat("RATE_LIMIT_SEND_RATE", 0.2),
		SendBurst:    getenvInt("RATE_LIMIT_SEND_BURST", 5),
	}
}
