package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"NetworkingServer/config"

	"github.com/segmentio/kafka-go"
)

// ==================== Producer 定义 ====================

// Producer Kafka 生产者（通用）
// writer 不绑定 topic，每条消息自带 topic，事件与审计共用一个连接池
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 创建 Kafka 生产者
func NewProducer(cfg config.KafkaConfig) *Producer {
	pc := cfg.ProducerConfig
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.Hash{},
			BatchSize:              pc.BatchSize,
			BatchTimeout:           pc.BatchTimeout,
			MaxAttempts:            pc.MaxAttempts,
			WriteTimeout:           pc.WriteTimeout,
			Async:                  pc.Async,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			Logger:                 InfoLogger(),
			ErrorLogger:            ErrorLogger(),
		},
	}
}

// buildMessage 组装一条 JSON 消息，同一 key 的消息落在同一分区
func buildMessage(topic, key string, v interface{}) (kafka.Message, error) {
	if topic == "" {
		return kafka.Message{}, fmt.Errorf("kafka topic is empty")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal kafka message: %w", err)
	}
	msg := kafka.Message{
		Topic: topic,
		Value: data,
		Time:  time.Now(),
	}
	if key != "" {
		msg.Key = []byte(key)
	}
	return msg, nil
}

// Send 发送原始字节到指定 topic
func (p *Producer) Send(ctx context.Context, topic, key string, data []byte) error {
	msg := kafka.Message{Topic: topic, Value: data, Time: time.Now()}
	if key != "" {
		msg.Key = []byte(key)
	}
	return p.writer.WriteMessages(ctx, msg)
}

// SendJSON 序列化 v 并发送到指定 topic
func (p *Producer) SendJSON(ctx context.Context, topic, key string, v interface{}) error {
	msg, err := buildMessage(topic, key, v)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close 关闭生产者
func (p *Producer) Close() error {
	return p.writer.Close()
}
