package broker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"peekq/internal/config"
	"peekq/internal/constants"
	"peekq/internal/logger"
	"peekq/pkg/logging"
	"peekq/pkg/metrics"
	"peekq/pkg/models"
	"peekq/pkg/retry"
	"peekq/pkg/tracing"
)

type KafkaConsumer struct {
	cfg         config.KafkaConfig
	policy      retry.Policy
	wg          sync.WaitGroup
	mu          sync.Mutex
	reader      *kafka.Reader
	logger      logger.Logger
	serviceName string
}

func NewKafkaConsumer(cfg config.KafkaConfig, retryCfg config.RetryConfig, log logger.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		cfg:         cfg,
		policy:      retry.PolicyFromConfig(retryCfg),
		logger:      log,
		serviceName: "unknown",
	}
}

func (c *KafkaConsumer) SetServiceName(name string) {
	c.serviceName = name
}

func (c *KafkaConsumer) Name() string {
	return "kafka"
}

// Check dials the first reachable broker.
func (c *KafkaConsumer) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.HealthCheckTimeout)
	defer cancel()

	var lastErr error
	for _, addr := range c.cfg.Brokers {
		conn, err := kafka.DialContext(ctx, "tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		conn.Close()
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no brokers configured")
	}
	return fmt.Errorf("kafka dial failed: %w", lastErr)
}

func (c *KafkaConsumer) startOffset() int64 {
	if c.cfg.StartOffset == "first" {
		return kafka.FirstOffset
	}
	return kafka.LastOffset
}

func (c *KafkaConsumer) Consume(ctx context.Context, topic string, handler HandlerFunc) error {
	c.logger.Infow("Creating Kafka reader",
		"topic", topic,
		"brokers", c.cfg.Brokers,
		"group_id", c.cfg.GroupID,
		"service_name", c.serviceName,
	)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     c.cfg.Brokers,
		GroupID:     c.cfg.GroupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: c.startOffset(),
	})
	c.mu.Lock()
	c.reader = reader
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.consumeLoop(ctx, reader, topic, handler)
	}()

	<-ctx.Done()
	return ctx.Err()
}

func (c *KafkaConsumer) consumeLoop(ctx context.Context, reader *kafka.Reader, topic string, handler HandlerFunc) {
	consumeCtx := logging.WithServiceName(ctx, c.serviceName)
	c.logger.InfowCtx(consumeCtx, "Started consuming",
		"topic", topic,
	)

	failures := 0
	for {
		start := time.Now()
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				c.logger.InfowCtx(consumeCtx, "Stopped consuming",
					"topic", topic,
					"reason", stopReason(ctx),
				)
				return
			}
			failures++
			metrics.IncBrokerFetchError(c.serviceName, TypeKafka, topic)
			delay := c.policy.Delay(failures - 1)
			c.logger.ErrorwCtx(consumeCtx, "Error fetching kafka message",
				"error", err,
				"topic", topic,
				"next_delay", delay,
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}
		failures = 0
		metrics.ObserveBrokerReadDuration(c.serviceName, topic, time.Since(start))
		metrics.IncBrokerMessagesReceived(c.serviceName, TypeKafka, topic)

		c.handleMessage(ctx, m, handler)

		if err := reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.ErrorwCtx(consumeCtx, "Failed to commit message",
				"error", err,
				"topic", topic,
				"partition", m.Partition,
				"offset", m.Offset,
			)
		}
	}
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, m kafka.Message, handler HandlerFunc) {
	msgCtx, span := tracing.StartSpanFromKafkaMessage(ctx, "kafka.consume", m.Headers)
	defer span.End()

	if traceID := span.SpanContext().TraceID(); traceID.IsValid() {
		msgCtx = logging.WithTraceID(msgCtx, traceID.String())
	}

	dispatch(msgCtx, c.logger, c.serviceName, kafkaDelivery(m), handler)
}

func stopReason(ctx context.Context) string {
	if ctx.Err() != nil {
		return "context canceled"
	}
	return "reader closed"
}

func kafkaDelivery(m kafka.Message) models.Delivery {
	headers, contentType := kafkaHeaders(m.Headers)
	receivedAt := m.Time
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}
	return models.Delivery{
		Body:        m.Value,
		Headers:     headers,
		ContentType: contentType,
		Source:      m.Topic,
		ReceivedAt:  receivedAt,
	}
}

func (c *KafkaConsumer) Close() error {
	c.mu.Lock()
	reader := c.reader
	c.mu.Unlock()

	var err error
	if reader != nil {
		err = reader.Close()
	}
	c.wg.Wait()
	return err
}
