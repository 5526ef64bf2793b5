package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_RegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	m.WebhookIngested.WithLabelValues("STRAT_EXEC").Inc()
	m.DecisionOutcomes.WithLabelValues("EXECUTE").Inc()
	m.ProviderCalls.WithLabelValues("options", "FALLBACK").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebhookIngested.WithLabelValues("STRAT_EXEC")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecisionOutcomes.WithLabelValues("EXECUTE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderCalls.WithLabelValues("options", "FALLBACK")))
}

func TestRecordGateResults_IncrementsByGateAndOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	m.RecordGateResults("structural", true)
	m.RecordGateResults("structural", false)
	m.RecordGateResults("structural", true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GateOutcomes.WithLabelValues("structural", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GateOutcomes.WithLabelValues("structural", "false")))
}

func TestDecisionDuration_ObservesIntoHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	m.DecisionDuration.Observe(0.05)
	m.DecisionDuration.Observe(1.2)

	var metric dto.Metric
	require.NoError(t, m.DecisionDuration.Write(&metric))
	assert.Equal(t, uint64(2), metric.GetHistogram().GetSampleCount())
}

func TestHandler_ReturnsPromHTTPHandler(t *testing.T) {
	h := Handler()
	assert.NotNil(t, h)
}
