package broker

import (
	"context"

	"peekq/pkg/models"
)

// Consumer reads deliveries from a queue or topic and hands each one to a HandlerFunc.
type Consumer interface {
	Consume(ctx context.Context, source string, handler HandlerFunc) error
	Close() error
	SetServiceName(name string)

	// Name and Check make a consumer usable as a health.Checker.
	Name() string
	Check(ctx context.Context) error
}

// HandlerFunc handles one delivery. It returns nothing: handling is fire-and-forget.
type HandlerFunc func(ctx context.Context, d models.Delivery)
