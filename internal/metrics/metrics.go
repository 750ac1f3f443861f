// Package metrics exposes Prometheus instrumentation for the answer
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline phase labels.
const (
	PhaseStrategy = "strategy"
	PhaseSearch   = "search"
	PhaseRank     = "rank"
	PhaseAssemble = "assemble"
	PhaseRespond  = "respond"
)

// Recorder records pipeline timings and outcomes.
type Recorder struct {
	phaseDuration *prometheus.HistogramVec
	queries       *prometheus.CounterVec
	quality       prometheus.Histogram
	cacheHits     *prometheus.CounterVec
}

// NewRecorder registers the pipeline metrics on the given registerer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "advisor",
			Name:      "pipeline_phase_duration_seconds",
			Help:      "Duration of each answer pipeline phase.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"phase"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advisor",
			Name:      "queries_total",
			Help:      "Answered queries by detected intent and status.",
		}, []string{"intent", "status"}),
		quality: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "advisor",
			Name:      "response_quality_score",
			Help:      "Overall quality score of returned responses.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advisor",
			Name:      "search_cache_requests_total",
			Help:      "Search cache lookups by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(r.phaseDuration, r.queries, r.quality, r.cacheHits)
	return r
}

// ObservePhase records the duration of one pipeline phase.
func (r *Recorder) ObservePhase(phase string, d time.Duration) {
	r.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// CountQuery records one answered query.
func (r *Recorder) CountQuery(intent, status string) {
	if intent == "" {
		intent = "unknown"
	}
	r.queries.WithLabelValues(intent, status).Inc()
}

// ObserveQuality records the overall quality of a returned response.
func (r *Recorder) ObserveQuality(score float64) {
	r.quality.Observe(score)
}

// CountCache records a search cache lookup outcome ("hit" or "miss").
func (r *Recorder) CountCache(outcome string) {
	r.cacheHits.WithLabelValues(outcome).Inc()
}
