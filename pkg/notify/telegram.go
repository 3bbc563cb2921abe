package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const maxTelegramText = 4000

// TelegramNotifier 把告警发到运维群，不转发审计记录
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier 创建 Telegram 告警通知器（会调用一次 getMe 校验 token）
func NewTelegramNotifier(token string, chatID int64, timeout time.Duration) (*TelegramNotifier, error) {
	if token == "" || chatID == 0 {
		return nil, fmt.Errorf("telegram token or chat id is empty")
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (t *TelegramNotifier) Audit(context.Context, AuditRecord) error { return nil }

// Alert 发送纯文本告警
// bot.Send 不支持 context，超时依赖 http.Client
func (t *TelegramNotifier) Alert(ctx context.Context, alert Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, formatAlert(alert))
	msg.DisableWebPagePreview = true
	_, err := t.bot.Send(msg)
	return err
}

func formatAlert(a Alert) string {
	var b strings.Builder
	title := a.Title
	if title == "" {
		title = "API Exception Occurred"
	}
	b.WriteString("🚨 " + title + "\n")
	if a.Method != "" || a.Route != "" {
		fmt.Fprintf(&b, "%s %s\n", a.Method, a.Route)
	}
	if a.TraceID != "" {
		fmt.Fprintf(&b, "trace_id: %s\n", a.TraceID)
	}
	if a.Message != "" {
		b.WriteString(a.Message + "\n")
	}
	if a.Stack != "" {
		b.WriteString("\n" + a.Stack)
	}
	return truncate(b.String(), maxTelegramText)
}
