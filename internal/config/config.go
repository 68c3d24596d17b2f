package config

import (
	"time"
)

type Config struct {
	Server    ServerConfig
	Broker    BrokerConfig
	Logging   LoggingConfig
	Inspector InspectorConfig
	Tracing   TracingConfig
}

// ServerConfig is the operational HTTP listener serving /health and /metrics.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type BrokerConfig struct {
	Type     string         `mapstructure:"type"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Retry    RetryConfig    `mapstructure:"retry"`
}

type RabbitMQConfig struct {
	URL           string `mapstructure:"url"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	VHost         string `mapstructure:"vhost"`
	Queue         string `mapstructure:"queue"`
	DeclareQueue  bool   `mapstructure:"declare_queue"`
	ConsumerTag   string `mapstructure:"consumer_tag"`
	AutoAck       bool   `mapstructure:"auto_ack"`
	PrefetchCount int    `mapstructure:"prefetch_count"`
	Workers       int    `mapstructure:"workers"`
}

type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	GroupID     string   `mapstructure:"group_id"`
	Topic       string   `mapstructure:"topic"`
	StartOffset string   `mapstructure:"start_offset"`
}

// RetryConfig drives reconnect and fetch backoff.
type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type InspectorConfig struct {
	Base64Preview bool `mapstructure:"base64_preview"`
	PrettyJSON    bool `mapstructure:"pretty_json"`
	// LogRawText logs the received text verbatim before decoding.
	LogRawText bool `mapstructure:"log_raw_text"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
