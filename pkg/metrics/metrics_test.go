package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveInspection(t *testing.T) {
	before := testutil.ToFloat64(InspectedMessagesTotal.WithLabelValues("binary", "declared_type"))

	ObserveInspection("binary", "declared_type", 2048, 3*time.Millisecond)

	after := testutil.ToFloat64(InspectedMessagesTotal.WithLabelValues("binary", "declared_type"))
	assert.Equal(t, before+1, after)
}

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		RegisterInspectorMetrics()
		RegisterInspectorMetrics()
		RegisterBrokerMetrics()
		RegisterBrokerMetrics()
	})
}
