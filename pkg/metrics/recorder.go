package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rzzdr/ccr-analytics/pkg/utils/errors"
)

// Recorder handles metrics recording for the analytics engine
type Recorder struct {
	// API metrics
	apiRequestCounter   *prometheus.CounterVec
	apiLatencyHistogram *prometheus.HistogramVec

	// Scenario metrics
	scenarioCounter *prometheus.CounterVec
	scenarioLatency *prometheus.HistogramVec
	epeGauge        *prometheus.GaugeVec
	cvaGauge        *prometheus.GaugeVec

	// Publishing metrics
	publishCounter *prometheus.CounterVec
}

// NewRecorder creates a recorder whose metrics are registered on reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		// API metrics
		apiRequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ccr_api_requests_total",
				Help: "The total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		apiLatencyHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ccr_api_latency_seconds",
				Help:    "API request latency distribution",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // From 1ms to ~16s
			},
			[]string{"method", "path"},
		),

		// Scenario metrics
		scenarioCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ccr_scenarios_total",
				Help: "The total number of evaluated scenarios",
			},
			[]string{"scenario", "result"},
		),
		scenarioLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ccr_scenario_latency_seconds",
				Help:    "Scenario evaluation latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // From 10ms to ~40s
			},
			[]string{"scenario"},
		),
		epeGauge: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ccr_epe_value",
				Help: "Expected Positive Exposure of the last successful run",
			},
			[]string{"scenario"},
		),
		cvaGauge: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ccr_cva_value",
				Help: "Credit Valuation Adjustment of the last successful run",
			},
			[]string{"scenario"},
		),

		publishCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ccr_results_published_total",
				Help: "The total number of stress tables published",
			},
			[]string{"topic", "result"},
		),
	}
}

// RecordAPIRequest records metrics for an API request
func (r *Recorder) RecordAPIRequest(method, path string, status int, latency time.Duration) {
	r.apiRequestCounter.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.apiLatencyHistogram.WithLabelValues(method, path).Observe(latency.Seconds())
}

// RecordScenario records one scenario evaluation. Gauges only move on success.
func (r *Recorder) RecordScenario(scenario string, epe, cva float64, latency time.Duration, err error) {
	r.scenarioLatency.WithLabelValues(scenario).Observe(latency.Seconds())

	if err != nil {
		r.scenarioCounter.WithLabelValues(scenario, errors.TypeOf(err).String()).Inc()
		return
	}

	r.scenarioCounter.WithLabelValues(scenario, "ok").Inc()
	r.epeGauge.WithLabelValues(scenario).Set(epe)
	r.cvaGauge.WithLabelValues(scenario).Set(cva)
}

// RecordPublish records a publish attempt of a stress table
func (r *Recorder) RecordPublish(topic string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.publishCounter.WithLabelValues(topic, result).Inc()
}
