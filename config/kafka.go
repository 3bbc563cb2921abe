package config

import "time"

// KafkaConfig Kafka 配置
// 本服务只作为生产者：领域事件与审计记录投递给下游（通知、数据仓库），不消费任何 topic。
type KafkaConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"` // 是否启用，未启用时事件静默丢弃
	Brokers []string `json:"brokers" yaml:"brokers"` // Kafka broker 地址列表

	EventTopic string `json:"eventTopic" yaml:"eventTopic"` // 领域事件 topic（request.created 等）
	AuditTopic string `json:"auditTopic" yaml:"auditTopic"` // 审计 topic（所有非 GET 请求）

	// Producer 配置
	ProducerConfig KafkaProducerConfig `json:"producer" yaml:"producer"`
}

// KafkaProducerConfig Kafka 生产者配置
type KafkaProducerConfig struct {
	BatchSize    int           `json:"batchSize" yaml:"batchSize"`       // 批量发送大小
	BatchTimeout time.Duration `json:"batchTimeout" yaml:"batchTimeout"` // 批量发送超时
	MaxAttempts  int           `json:"maxAttempts" yaml:"maxAttempts"`   // 最大重试次数
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout"` // 写入超时
	Async        bool          `json:"async" yaml:"async"`               // 异步写入（不等待 broker ack）
}

// DefaultKafkaConfig 返回本地开发的默认配置
func DefaultKafkaConfig() KafkaConfig {
	brokers := splitCSV(getenvString("KAFKA_BROKERS", "kafka:9092"))

	return KafkaConfig{
		Enabled:    getenvBool("KAFKA_ENABLED", false),
		Brokers:    brokers,
		EventTopic: getenvString("KAFKA_EVENT_TOPIC", "networking-events"),
		AuditTopic: getenvString("KAFKA_AUDIT_TOPIC", "api-audit"),

		ProducerConfig: KafkaProducerConfig{
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			MaxAttempts:  3,
			WriteTimeout: 5 * time.Second,
			Async:        false,
		},
	}
}
