package broker

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"peekq/internal/config"
	"peekq/internal/constants"
	"peekq/internal/logger"
	"peekq/pkg/errors"
	"peekq/pkg/logging"
	"peekq/pkg/metrics"
	"peekq/pkg/models"
	"peekq/pkg/retry"
	"peekq/pkg/tracing"
)

type RabbitMQConsumer struct {
	cfg         config.RabbitMQConfig
	policy      retry.Policy
	logger      logger.Logger
	serviceName string

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	wg      sync.WaitGroup
}

func NewRabbitMQConsumer(cfg config.RabbitMQConfig, retryCfg config.RetryConfig, log logger.Logger) *RabbitMQConsumer {
	return &RabbitMQConsumer{
		cfg:         cfg,
		policy:      retry.PolicyFromConfig(retryCfg),
		logger:      log,
		serviceName: "unknown",
	}
}

func (c *RabbitMQConsumer) SetServiceName(name string) {
	c.serviceName = name
}

func (c *RabbitMQConsumer) Name() string {
	return "rabbitmq"
}

func (c *RabbitMQConsumer) Check(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("rabbitmq connection not established")
	}
	if c.conn.IsClosed() {
		return errors.ErrBrokerClose
	}
	return nil
}

// dialURL returns the configured URL, or builds one from the discrete fields.
func dialURL(cfg config.RabbitMQConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	vhost := cfg.VHost
	if vhost == "" {
		vhost = "/"
	}
	return amqp.URI{
		Scheme:   "amqp",
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.User,
		Password: cfg.Password,
		Vhost:    vhost,
	}.String()
}

func (c *RabbitMQConsumer) connect(ctx context.Context) (*amqp.Connection, *amqp.Channel, error) {
	uri := dialURL(c.cfg)

	var conn *amqp.Connection
	err := retry.RetryWithCallback(ctx, c.policy, func() error {
		var err error
		conn, err = amqp.DialConfig(uri, amqp.Config{
			Heartbeat: constants.DefaultAMQPHeartbeat,
			Dial:      amqp.DefaultDial(constants.AMQPDialTimeout),
			Properties: amqp.Table{
				"connection_name": c.serviceName,
			},
		})
		if err != nil {
			var amqpErr *amqp.Error
			if stderrors.As(err, &amqpErr) && amqpErr.Code == amqp.AccessRefused {
				return retry.NewFatalError(err)
			}
			return err
		}
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		metrics.IncBrokerReconnect(c.serviceName, TypeRabbitMQ)
		c.logger.Warnw("Retrying RabbitMQ connection",
			"attempt", attempt,
			"max_attempts", c.policy.MaxAttempts,
			"next_delay", nextDelay,
			"error", err,
		)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if c.cfg.PrefetchCount > 0 {
		if err := ch.Qos(c.cfg.PrefetchCount, 0, false); err != nil {
			ch.Close()
			conn.Close()
			return nil, nil, fmt.Errorf("failed to set qos: %w", err)
		}
	}

	return conn, ch, nil
}

func (c *RabbitMQConsumer) Consume(ctx context.Context, queue string, handler HandlerFunc) error {
	c.logger.Infow("Connecting to RabbitMQ",
		"queue", queue,
		"workers", c.cfg.Workers,
		"auto_ack", c.cfg.AutoAck,
		"service_name", c.serviceName,
	)

	conn, ch, err := c.connect(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.channel = ch
	c.mu.Unlock()

	if c.cfg.DeclareQueue {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}
	}

	tag := c.cfg.ConsumerTag
	if tag == "" {
		tag = constants.DefaultConsumerTag
	}

	deliveries, err := ch.ConsumeWithContext(ctx, queue, tag, c.cfg.AutoAck, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer on %s: %w", queue, err)
	}

	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	consumeCtx := logging.WithServiceName(ctx, c.serviceName)
	c.logger.InfowCtx(consumeCtx, "Started consuming", "queue", queue)

	workers := c.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			for d := range deliveries {
				c.handleDelivery(ctx, queue, d, handler)
			}
		}()
	}

	select {
	case <-ctx.Done():
		c.logger.InfowCtx(consumeCtx, "Stopped consuming",
			"queue", queue,
			"reason", "context canceled",
		)
		return ctx.Err()
	case amqpErr, ok := <-connClosed:
		metrics.IncBrokerFetchError(c.serviceName, TypeRabbitMQ, queue)
		if !ok || amqpErr == nil {
			return errors.ErrBrokerClose
		}
		c.logger.ErrorwCtx(consumeCtx, "RabbitMQ connection closed",
			"queue", queue,
			"error", amqpErr,
		)
		return errors.Wrap(amqpErr, errors.ErrBrokerClose)
	}
}

func (c *RabbitMQConsumer) handleDelivery(ctx context.Context, queue string, d amqp.Delivery, handler HandlerFunc) {
	metrics.IncBrokerMessagesReceived(c.serviceName, TypeRabbitMQ, queue)

	msgCtx, span := tracing.StartSpanFromAMQPDelivery(ctx, "amqp.consume", d.Headers)
	defer span.End()

	if traceID := span.SpanContext().TraceID(); traceID.IsValid() {
		msgCtx = logging.WithTraceID(msgCtx, traceID.String())
	}

	err := dispatch(msgCtx, c.logger, c.serviceName, amqpDelivery(queue, d), handler)

	if c.cfg.AutoAck {
		return
	}
	if ackErr := settle(d, err); ackErr != nil {
		c.logger.ErrorwCtx(msgCtx, "Failed to acknowledge delivery",
			"error", ackErr,
			"delivery_tag", d.DeliveryTag,
		)
	}
}

// settle acks a handled delivery. A failed one is nacked and requeued only
// when the failure is not fatal.
func settle(d amqp.Delivery, handleErr error) error {
	if handleErr == nil {
		return d.Ack(false)
	}
	return d.Nack(false, !errors.IsFatal(handleErr))
}

func amqpDelivery(queue string, d amqp.Delivery) models.Delivery {
	headers := amqpHeaders(d.Headers)
	if d.MessageId != "" {
		if headers == nil {
			headers = make(map[string]string, 1)
		}
		if _, ok := headers[models.HeaderMessageID]; !ok {
			headers[models.HeaderMessageID] = d.MessageId
		}
	}

	receivedAt := d.Timestamp
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	return models.Delivery{
		Body:        d.Body,
		Headers:     headers,
		ContentType: d.ContentType,
		Source:      queue,
		ReceivedAt:  receivedAt,
	}
}

func (c *RabbitMQConsumer) Close() error {
	c.mu.Lock()
	ch, conn := c.channel, c.conn
	c.mu.Unlock()

	var errs []error
	if ch != nil {
		if err := ch.Close(); err != nil && !stderrors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("channel close error: %w", err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil && !stderrors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("connection close error: %w", err))
		}
	}
	c.wg.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("rabbitmq close errors: %v", errs)
	}
	return nil
}
