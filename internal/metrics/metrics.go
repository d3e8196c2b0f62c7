package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	Records         prometheus.Counter
	RecordsByStatus *prometheus.CounterVec
	MaterialCO2eKg  prometheus.Counter
	TransportCO2eKg prometheus.Counter
	RunDurationSec  prometheus.Histogram
	Runs            prometheus.Counter

	EmbeddingRequests   prometheus.Counter
	EmbeddingFailures   prometheus.Counter
	EmbeddingCacheHits  prometheus.Counter
	EmbeddingLatencySec prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	records := prometheus.NewCounter(prometheus.CounterOpts{Name: "co2scribe_records_total"})
	byStatus := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "co2scribe_records_by_status_total"}, []string{"kind"})
	material := prometheus.NewCounter(prometheus.CounterOpts{Name: "co2scribe_material_co2e_kg_total"})
	transport := prometheus.NewCounter(prometheus.CounterOpts{Name: "co2scribe_transport_co2e_kg_total"})
	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "co2scribe_run_duration_seconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
	runs := prometheus.NewCounter(prometheus.CounterOpts{Name: "co2scribe_runs_total"})

	embRequests := prometheus.NewCounter(prometheus.CounterOpts{Name: "co2scribe_embedding_requests_total"})
	embFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "co2scribe_embedding_failures_total"})
	embHits := prometheus.NewCounter(prometheus.CounterOpts{Name: "co2scribe_embedding_cache_hits_total"})
	embLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "co2scribe_embedding_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(records, byStatus, material, transport, runDuration, runs, embRequests, embFailures, embHits, embLatency)
	return &Registry{
		reg:                 r,
		Records:             records,
		RecordsByStatus:     byStatus,
		MaterialCO2eKg:      material,
		TransportCO2eKg:     transport,
		RunDurationSec:      runDuration,
		Runs:                runs,
		EmbeddingRequests:   embRequests,
		EmbeddingFailures:   embFailures,
		EmbeddingCacheHits:  embHits,
		EmbeddingLatencySec: embLatency,
	}
}

// EmbeddingDone and CacheHit make the registry an embedding.Observer.
func (r *Registry) EmbeddingDone(d time.Duration, err error) {
	r.EmbeddingRequests.Inc()
	r.EmbeddingLatencySec.Observe(d.Seconds())
	if err != nil {
		r.EmbeddingFailures.Inc()
	}
}

func (r *Registry) CacheHit() { r.EmbeddingCacheHits.Inc() }

// ObserveRecord counts one processed record. Negative amounts are not
// added since counters only go up.
func (r *Registry) ObserveRecord(kind string, material, transport float64) {
	r.Records.Inc()
	r.RecordsByStatus.WithLabelValues(kind).Inc()
	if material > 0 {
		r.MaterialCO2eKg.Add(material)
	}
	if transport > 0 {
		r.TransportCO2eKg.Add(transport)
	}
}

func (r *Registry) ObserveRun(d time.Duration) {
	r.Runs.Inc()
	r.RunDurationSec.Observe(d.Seconds())
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
