// Package metrics expone la instrumentación Prometheus del pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder agrupa los contadores y gauges del scanner.
type Recorder struct {
	apiRequests   *prometheus.CounterVec
	apiThrottled  prometheus.Counter
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	itemsAnalyzed prometheus.Counter
	itemsSkipped  *prometheus.CounterVec
	results       prometheus.Counter
	batchesFlush  prometheus.Counter
	queueDepth    prometheus.Gauge
}

// New registra las métricas en el registry dado (nil = registry default).
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		apiRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "platbot_api_requests_total",
				Help: "Outbound marketplace API requests by endpoint",
			},
			[]string{"endpoint"},
		),
		apiThrottled: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "platbot_api_throttled_total",
				Help: "Throttling responses received from the marketplace API",
			},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "platbot_cache_hits_total",
				Help: "Cache hits by tier (memory, disk)",
			},
			[]string{"tier"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "platbot_cache_misses_total",
				Help: "Cache misses by tier; corrupt entries count as misses",
			},
			[]string{"tier"},
		),
		itemsAnalyzed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "platbot_items_analyzed_total",
				Help: "Items that completed an analysis pass",
			},
		),
		itemsSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "platbot_items_skipped_total",
				Help: "Items skipped before analysis by reason",
			},
			[]string{"reason"},
		),
		results: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "platbot_results_total",
				Help: "Analysis results pushed to the aggregator",
			},
		),
		batchesFlush: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "platbot_batches_flushed_total",
				Help: "Result batches delivered to the consumer",
			},
		),
		queueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "platbot_pending_queue_depth",
				Help: "Items waiting in the pending queue",
			},
		),
	}
}

func (r *Recorder) APIRequest(endpoint string) { r.apiRequests.WithLabelValues(endpoint).Inc() }
func (r *Recorder) APIThrottled()              { r.apiThrottled.Inc() }
func (r *Recorder) CacheHit(tier string)       { r.cacheHits.WithLabelValues(tier).Inc() }
func (r *Recorder) CacheMiss(tier string)      { r.cacheMisses.WithLabelValues(tier).Inc() }
func (r *Recorder) ItemAnalyzed()              { r.itemsAnalyzed.Inc() }
func (r *Recorder) ItemSkipped(reason string)  { r.itemsSkipped.WithLabelValues(reason).Inc() }
func (r *Recorder) Result()                    { r.results.Inc() }
func (r *Recorder) BatchFlushed()              { r.batchesFlush.Inc() }
func (r *Recorder) QueueDepth(n int)           { r.queueDepth.Set(float64(n)) }

// Nop devuelve un Recorder registrado en un registry aislado, para tests
// y para los componentes construidos sin métricas.
func Nop() *Recorder {
	return New(prometheus.NewRegistry())
}
