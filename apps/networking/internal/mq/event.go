package mq

import (
	"context"
	"strconv"
	"time"

	"NetworkingServer/pkg/async"
	"NetworkingServer/pkg/logger"
	"NetworkingServer/pkg/util"
)

// EventType 领域事件类型
type EventType string

const (
	EventRequestCreated   EventType = "request.created"
	EventRequestResponded EventType = "request.responded"
	EventRequestRemoved   EventType = "request.removed"
	EventRefundCompleted  EventType = "refund.completed"
)

// Event 社交请求领域事件
// 以请求主键作为 Kafka key，同一请求的事件落在同一分区，保证顺序
type Event struct {
	Type        EventType `json:"type"`
	ID          int64     `json:"id"`
	RequestID   string    `json:"request_id"`
	SenderID    int64     `json:"sender_id"`
	ReceiverID  int64     `json:"receiver_id"`
	Status      string    `json:"status"`
	ActorID     int64     `json:"actor_id,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	RefundTxID  string    `json:"refund_tx_id,omitempty"`
	ReportCount int       `json:"report_count,omitempty"`
	IsBanned    bool      `json:"is_banned,omitempty"`
	TraceID     string    `json:"trace_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher 领域事件发布
// 发布是尽力而为：失败只记录日志，不影响业务结果
type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

// Sender Kafka 发送能力（*kafka.Producer 实现）
type Sender interface {
	SendJSON(ctx context.Context, topic, key string, v interface{}) error
}

// kafkaPublisher 基于 Kafka 的事件发布
type kafkaPublisher struct {
	sender Sender
	topic  string
}

// NewPublisher 创建事件发布器，sender 为 nil 时返回 Nop
func NewPublisher(sender Sender, topic string) Publisher {
	if sender == nil || topic == "" {
		return Nop{}
	}
	return &kafkaPublisher{sender: sender, topic: topic}
}

// Publish 异步投递，调用方不等待 broker 响应
func (p *kafkaPublisher) Publish(ctx context.Context, evt Event) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	if evt.TraceID == "" {
		evt.TraceID = util.GetTraceIDFromContext(ctx)
	}
	key := strconv.FormatInt(evt.ID, 10)

	async.RunSafe(ctx, func(runCtx context.Context) {
		if err := p.sender.SendJSON(runCtx, p.topic, key, evt); err != nil {
			logger.Warn(runCtx, "领域事件投递失败",
				logger.String("type", string(evt.Type)),
				logger.Int64("id", evt.ID),
				logger.ErrorField("error", err),
			)
		}
	})
}

// Nop 丢弃所有事件
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
