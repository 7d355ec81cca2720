package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for SubmissionOutcome.
const (
	OutcomeAccepted      = "accepted"
	OutcomeMalformed     = "malformed"
	OutcomeInvalid       = "invalid"
	OutcomeMisconfigured = "misconfigured"
	OutcomeClosed        = "closed"
	OutcomeFailed        = "failed"
)

// Metrics provides observability for the submission recorder.
type Metrics struct {
	// Submission outcomes by kind
	SubmissionOutcome *prometheus.CounterVec

	// Rejected answers by validation name
	AnswerFailures *prometheus.CounterVec

	SubmitLatency prometheus.Histogram

	// HTTP latency by route
	RequestLatency *prometheus.HistogramVec
}

// New registers the recorder metrics with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the recorder metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SubmissionOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_survey_submissions_total",
			Help: "Total survey submissions by outcome",
		}, []string{"outcome"}),

		AnswerFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_survey_answer_failures_total",
			Help: "Rejected answers by failing validation",
		}, []string{"validation"}),

		SubmitLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_survey_submit_duration_seconds",
			Help:    "Duration of survey submission including persistence",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tracker_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.SubmissionOutcome.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementAnswerFailure(validation string) {
	if m != nil {
		m.AnswerFailures.WithLabelValues(validation).Inc()
	}
}

func (m *Metrics) ObserveSubmitLatency(d time.Duration) {
	if m != nil {
		m.SubmitLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveRequestLatency(route string, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route).Observe(d.Seconds())
	}
}
