package notify

import (
	"context"

	"NetworkingServer/config"
	"NetworkingServer/pkg/logger"
)

// Build 按配置组装通知通道；单个通道初始化失败只记日志，不阻塞启动
// sender 为 nil 时不启用 Kafka 审计
func Build(ctx context.Context, cfg config.NotifyConfig, sender JSONSender, auditTopic string) Notifier {
	var channels Multi

	if cfg.DiscordWebhookURL != "" {
		d, err := NewDiscordNotifier(cfg.DiscordWebhookURL, cfg.DiscordUsername, cfg.Timeout)
		if err != nil {
			logger.Warn(ctx, "Discord 通知初始化失败，已关闭", logger.ErrorField("error", err))
		} else {
			channels = append(channels, d)
		}
	}

	if cfg.TelegramBotToken != "" {
		t, err := NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.Timeout)
		if err != nil {
			logger.Warn(ctx, "Telegram 告警初始化失败，已关闭", logger.ErrorField("error", err))
		} else {
			channels = append(channels, t)
		}
	}

	if sender != nil && auditTopic != "" {
		channels = append(channels, NewKafkaNotifier(sender, auditTopic))
	}

	if len(channels) == 0 {
		return Nop{}
	}
	logger.Info(ctx, "通知通道已启用", logger.Int("channels", len(channels)))
	return channels
}
