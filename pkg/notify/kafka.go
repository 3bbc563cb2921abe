package notify

import "context"

// JSONSender 按 topic 发送 JSON 消息，pkg/kafka.Producer 满足该接口
type JSONSender interface {
	SendJSON(ctx context.Context, topic, key string, v interface{}) error
}

// KafkaNotifier 把审计记录写入审计 topic，供数据仓库消费；告警不走 Kafka
type KafkaNotifier struct {
	sender JSONSender
	topic  string
}

// NewKafkaNotifier 创建 Kafka 审计通道
func NewKafkaNotifier(sender JSONSender, topic string) *KafkaNotifier {
	return &KafkaNotifier{sender: sender, topic: topic}
}

func (k *KafkaNotifier) Audit(ctx context.Context, rec AuditRecord) error {
	return k.sender.SendJSON(ctx, k.topic, rec.TraceID, rec)
}

func (k *KafkaNotifier) Alert(context.Context, Alert) error { return nil }
