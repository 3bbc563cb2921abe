package config

import "time"

// NotifyConfig 外部通知通道配置。
// Discord webhook 接收所有非 GET 请求的审计记录；Telegram 只接收 5xx/panic 告警。
// 两者都是尽力而为，未配置时对应通道静默关闭。
type NotifyConfig struct {
	DiscordWebhookURL string        `json:"discordWebhookUrl" yaml:"discordWebhookUrl"` // https://discord.com/api/webhooks/{id}/{token}
	DiscordUsername   string        `json:"discordUsername" yaml:"discordUsername"`     // webhook 展示名
	TelegramBotToken  string        `json:"-" yaml:"-"`                                 // bot token，不输出
	TelegramChatID    int64         `json:"telegramChatId" yaml:"telegramChatId"`       // 告警群 chat id
	Timeout           time.Duration `json:"timeout" yaml:"timeout"`                     // 单次投递超时
	Workers           int           `json:"workers" yaml:"workers"`                     // 异步投递协程池大小
}

// DefaultNotifyConfig 返回默认配置。
func DefaultNotifyConfig() NotifyConfig {
	return NotifyConfig{
		DiscordWebhookURL: getenvString("DISCORD_WEBHOOK_URL", ""),
		DiscordUsername:   getenvString("DISCORD_USERNAME", "API Logger"),
		TelegramBotToken:  getenvString("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:    int64(getenvInt("TELEGRAM_ALERT_CHAT_ID", 0)),
		Timeout:           getenvDuration("NOTIFY_TIMEOUT", 5*time.Second),
		Workers:           getenvInt("NOTIFY_WORKERS", 16),
	}
}
