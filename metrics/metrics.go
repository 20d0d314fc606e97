// ABOUTME: Prometheus metrics for the deal pipeline
// ABOUTME: Fed by a pipeline store subscriber; served by the web command at /metrics
package metrics

import (
	"strconv"

	"github.com/harperreed/dealdesk/models"
	"github.com/harperreed/dealdesk/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const namespace = "dealdesk"

type Metrics struct {
	DealsCreatedTotal     prometheus.Counter
	DealsDeletedTotal     prometheus.Counter
	DealsUpdatedTotal     prometheus.Counter
	StageTransitionsTotal *prometheus.CounterVec
	DealsByStage          *prometheus.GaugeVec
	ValueByStage          *prometheus.GaugeVec
	SnapshotVersion       prometheus.Gauge
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec

	logger *zap.Logger
}

// NewWithRegistry registers the metrics with registerer.
func NewWithRegistry(registerer prometheus.Registerer, logger *zap.Logger) *Metrics {
	factory := promauto.With(registerer)
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Metrics{
		DealsCreatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deals_created_total",
			Help:      "Total number of deals added to the pipeline",
		}),
		DealsDeletedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deals_deleted_total",
			Help:      "Total number of deals removed from the pipeline",
		}),
		DealsUpdatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deals_updated_total",
			Help:      "Total number of deal field updates, notes, messages and documents",
		}),
		StageTransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_transitions_total",
			Help:      "Total number of stage moves",
		}, []string{"from", "to"}),
		DealsByStage: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "deals",
			Help:      "Current number of deals per stage",
		}, []string{"stage"}),
		ValueByStage: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "deal_value_dollars",
			Help:      "Current total deal value per stage",
		}, []string{"stage"}),
		SnapshotVersion: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_version",
			Help:      "Version of the latest pipeline snapshot",
		}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		logger: logger,
	}
}

// RecordHTTPRequest records one served request. route is the matched mux
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, durationSeconds float64) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}

// Observe records the store's current state and subscribes to its changes.
// The returned function stops observing.
func (m *Metrics) Observe(store *pipeline.Store) func() {
	m.setGauges(store.Snapshot())
	return store.Subscribe(m.Record)
}

// Record updates counters for the snapshot's event and resets the gauges.
func (m *Metrics) Record(s pipeline.Snapshot) {
	switch s.Event.Kind {
	case pipeline.EventAdded:
		m.DealsCreatedTotal.Inc()
	case pipeline.EventDeleted:
		m.DealsDeletedTotal.Inc()
	case pipeline.EventUpdated:
		m.DealsUpdatedTotal.Inc()
	case pipeline.EventMoved:
		m.StageTransitionsTotal.WithLabelValues(string(s.Event.From), string(s.Event.To)).Inc()
	}
	m.setGauges(s)
}

func (m *Metrics) setGauges(s pipeline.Snapshot) {
	counts := make(map[models.Stage]int)
	values := make(map[models.Stage]float64)
	for _, d := range s.Deals {
		counts[d.Stage]++
		values[d.Stage] += d.Value.InexactFloat64()
	}

	for _, stage := range models.Stages() {
		m.DealsByStage.WithLabelValues(string(stage)).Set(float64(counts[stage]))
		m.ValueByStage.WithLabelValues(string(stage)).Set(values[stage])
		delete(counts, stage)
	}
	if len(counts) > 0 {
		m.logger.Debug("deals outside the known stages are not exported", zap.Int("stages", len(counts)))
	}
	m.SnapshotVersion.Set(float64(s.Version))
}
