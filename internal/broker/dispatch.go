package broker

import (
	"context"

	"peekq/internal/logger"
	"peekq/pkg/errors"
	"peekq/pkg/logging"
	"peekq/pkg/metrics"
	"peekq/pkg/models"
)

// dispatch runs handler and turns a panic into a logged error so one bad
// delivery cannot stop the consume loop. The returned error is the recovered
// panic, which is always fatal for that delivery.
func dispatch(ctx context.Context, log logger.Logger, serviceName string, d models.Delivery, handler HandlerFunc) (err error) {
	if id := d.MessageID(); id != "" {
		ctx = logging.WithMessageID(ctx, id)
	}
	ctx = logging.WithSource(ctx, d.Source)
	ctx = logging.WithServiceName(ctx, serviceName)

	defer func() {
		if r := recover(); r != nil {
			err = errors.RecoverPanic(r)
			metrics.IncHandlerPanic(serviceName, d.Source)
			log.ErrorwCtx(ctx, "Panic recovered while handling delivery",
				"error", err,
				"size_bytes", len(d.Body),
			)
			log.DebugwCtx(ctx, "Handler panic stack", "stack_trace", errors.StackTrace(err))
		}
	}()

	handler(ctx, d)
	return nil
}
