package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peekq/internal/config"
	"peekq/internal/logger"
)

func TestInitBroker(t *testing.T) {
	cfg := &config.Config{Broker: config.BrokerConfig{Type: "rabbitmq"}}
	b := NewBase(cfg, logger.NopLogger())

	require.NoError(t, b.InitBroker("peekq"))
	require.NotNil(t, b.Consumer)
	assert.Equal(t, "rabbitmq", b.Consumer.Name())

	require.NoError(t, b.Shutdown(context.Background(), nil))
}

func TestInitBrokerUnknownType(t *testing.T) {
	b := NewBase(&config.Config{Broker: config.BrokerConfig{Type: "nats"}}, logger.NopLogger())

	assert.Error(t, b.InitBroker("peekq"))
	assert.Nil(t, b.Consumer)
}

func TestShutdownCollectsErrors(t *testing.T) {
	b := NewBase(&config.Config{}, logger.NopLogger())

	err := b.Shutdown(context.Background(), func(ctx context.Context) []error {
		return []error{errors.New("server close failed")}
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "server close failed")
}
