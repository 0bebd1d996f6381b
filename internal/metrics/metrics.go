package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes used as the "outcome" label.
const (
	OutcomeRelayed          = "relayed"
	OutcomeConfigError      = "config_error"
	OutcomeRelayError       = "relay_error"
	OutcomeBadRequest       = "bad_request"
	OutcomeMethodNotAllowed = "method_not_allowed"
)

type Metrics struct {
	Submissions         *prometheus.CounterVec
	DownstreamDuration  prometheus.Histogram
	DownstreamResponses *prometheus.CounterVec
	NonJSONResponses    prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers the relay collectors on reg. Tests pass a fresh
// prometheus.NewRegistry so repeated construction never collides.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "form_relay_submissions_total",
			Help: "Total number of form submissions handled, by outcome",
		}, []string{"outcome"}),
		DownstreamDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "form_relay_downstream_duration_seconds",
			Help:    "Time spent waiting on the downstream form endpoint",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		}),
		DownstreamResponses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "form_relay_downstream_responses_total",
			Help: "Total number of downstream responses, by status class",
		}, []string{"code_class"}),
		NonJSONResponses: factory.NewCounter(prometheus.CounterOpts{
			Name: "form_relay_non_json_responses_total",
			Help: "Total number of downstream bodies that were not valid JSON",
		}),
		gatherer: reg,
	}
}

func (m *Metrics) ObserveSubmission(outcome string) {
	m.Submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveDownstream(status int, elapsed time.Duration, isJSON bool) {
	m.DownstreamDuration.Observe(elapsed.Seconds())
	m.DownstreamResponses.WithLabelValues(fmt.Sprintf("%dxx", status/100)).Inc()
	if !isJSON {
		m.NonJSONResponses.Inc()
	}
}

// Handler exposes the collectors registered through New.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
