package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.IncrementOutcome(OutcomeAccepted)
	m.IncrementOutcome(OutcomeAccepted)
	m.IncrementAnswerFailure("number")
	m.ObserveSubmitLatency(20 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SubmissionOutcome.WithLabelValues(OutcomeAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnswerFailures.WithLabelValues("number")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementOutcome(OutcomeFailed)
		m.IncrementAnswerFailure("int")
		m.ObserveSubmitLatency(time.Second)
		m.ObserveRequestLatency("/", time.Second)
	})
}
