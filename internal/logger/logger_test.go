package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"peekq/pkg/logging"
)

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		log, err := New("debug", format)
		require.NoError(t, err)
		assert.NotNil(t, log)
	}
}

func TestContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core))
	log.SetServiceName("peekq")

	ctx := logging.WithMessageID(context.Background(), "msg-1")
	log.InfowCtx(ctx, "delivery received", "size_bytes", 3)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "msg-1", fields["message_id"])
	assert.Equal(t, "peekq", fields["service_name"])
	assert.EqualValues(t, 3, fields["size_bytes"])
}

func TestContextServiceNameWins(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := FromZap(zap.New(core))
	log.SetServiceName("fallback")

	ctx := logging.WithServiceName(context.Background(), "from-ctx")
	log.WarnwCtx(ctx, "warned")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "from-ctx", logs.All()[0].ContextMap()["service_name"])
}
