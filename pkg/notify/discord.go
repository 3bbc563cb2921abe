package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Discord embed 颜色
const (
	colorSuccess = 3066993
	colorFailure = 15158332
	colorAlert   = 16711680

	maxFieldLen = 1000
)

// DiscordNotifier 通过 webhook 投递审计与告警 embed
type DiscordNotifier struct {
	session  *discordgo.Session
	id       string
	token    string
	username string
}

// ParseWebhookURL 从 https://discord.com/api/webhooks/{id}/{token} 解析 id 与 token
func ParseWebhookURL(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse discord webhook url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("invalid discord webhook url")
}

// NewDiscordNotifier 创建 Discord webhook 通知器
func NewDiscordNotifier(webhookURL, username string, timeout time.Duration) (*DiscordNotifier, error) {
	id, token, err := ParseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	// webhook 不需要 bot token
	session, err := discordgo.New("")
	if err != nil {
		return nil, err
	}
	session.Client = &http.Client{Timeout: timeout}
	if username == "" {
		username = "API Logger"
	}
	return &DiscordNotifier{session: session, id: id, token: token, username: username}, nil
}

func (d *DiscordNotifier) Audit(ctx context.Context, rec AuditRecord) error {
	_, err := d.session.WebhookExecute(d.id, d.token, false, &discordgo.WebhookParams{
		Username: d.username,
		Embeds:   []*discordgo.MessageEmbed{auditEmbed(rec)},
	}, discordgo.WithContext(ctx))
	return err
}

func (d *DiscordNotifier) Alert(ctx context.Context, alert Alert) error {
	_, err := d.session.WebhookExecute(d.id, d.token, false, &discordgo.WebhookParams{
		Username: "API Exception Bot",
		Embeds:   []*discordgo.MessageEmbed{alertEmbed(alert)},
	}, discordgo.WithContext(ctx))
	return err
}

func auditEmbed(rec AuditRecord) *discordgo.MessageEmbed {
	status := "SUCCESS"
	title := "✅ API SUCCESS"
	color := colorSuccess
	if !rec.Succeeded() {
		status = "FAILURE"
		title = "❌ API FAILURE"
		color = colorFailure
	}

	errorData := "None"
	if status == "FAILURE" && rec.ErrorData != nil {
		if b, err := json.MarshalIndent(rec.ErrorData, "", "  "); err == nil {
			errorData = truncate(string(b), maxFieldLen)
		}
	}

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return &discordgo.MessageEmbed{
		Title: title,
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Message", Value: nonEmpty(truncate(rec.Message, maxFieldLen))},
			{Name: "Method", Value: nonEmpty(rec.Method), Inline: true},
			{Name: "Status Code", Value: fmt.Sprintf("%d", rec.StatusCode), Inline: true},
			{Name: "Route", Value: nonEmpty(rec.Route)},
			{Name: "Trace ID", Value: nonEmpty(rec.TraceID)},
			{Name: "Error Data", Value: errorData},
		},
		Timestamp: ts.UTC().Format(time.RFC3339),
	}
}

func alertEmbed(a Alert) *discordgo.MessageEmbed {
	title := a.Title
	if title == "" {
		title = "🚨 API Exception Occurred"
	}
	return &discordgo.MessageEmbed{
		Title: title,
		Color: colorAlert,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Message", Value: nonEmpty(truncate(a.Message, maxFieldLen))},
			{Name: "Route", Value: nonEmpty(a.Route)},
			{Name: "Method", Value: nonEmpty(a.Method), Inline: true},
			{Name: "Trace ID", Value: nonEmpty(a.TraceID), Inline: true},
			{Name: "Stack Trace", Value: nonEmpty(truncate(a.Stack, maxFieldLen))},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Discord 拒绝空字段值
func nonEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
