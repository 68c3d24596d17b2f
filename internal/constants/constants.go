package constants

import "time"

const (
	ServiceName = "peekq"
)

const (
	ShutdownTimeout    = 5 * time.Second
	HealthCheckTimeout = 5 * time.Second
)

const (
	AMQPDialTimeout      = 10 * time.Second
	DefaultAMQPHeartbeat = 10 * time.Second
	DefaultConsumerTag   = "peekq"
)
