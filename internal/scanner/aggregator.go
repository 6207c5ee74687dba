package scanner

// aggregator.go — drena el canal de resultados y los entrega al consumer
// en batches. Flush al llenarse el batch o al vencer el intervalo, lo que
// pase primero; al cerrarse el canal hace un flush final del buffer
// parcial, así el shutdown no descarta resultados.

import (
	"log/slog"
	"time"

	"github.com/alejandrodnm/platbot/internal/domain"
	"github.com/alejandrodnm/platbot/internal/metrics"
	"github.com/alejandrodnm/platbot/internal/ports"
)

// AggregatorConfig controla el batching de resultados.
type AggregatorConfig struct {
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultAggregatorConfig replica los umbrales de operación normales.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		BatchSize:     10,
		FlushInterval: 100 * time.Millisecond,
	}
}

// Aggregator acumula resultados y entrega batches completos al consumer.
type Aggregator struct {
	cfg      AggregatorConfig
	results  <-chan domain.AnalysisResult
	consumer ports.Consumer
	rec      *metrics.Recorder
	done     chan struct{}
}

// NewAggregator arma el aggregator sin arrancarlo.
func NewAggregator(
	cfg AggregatorConfig,
	results <-chan domain.AnalysisResult,
	consumer ports.Consumer,
	rec *metrics.Recorder,
) *Aggregator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 100 * time.Millisecond
	}
	if rec == nil {
		rec = metrics.Nop()
	}
	return &Aggregator{
		cfg:      cfg,
		results:  results,
		consumer: consumer,
		rec:      rec,
		done:     make(chan struct{}),
	}
}

// Start lanza el loop Accumulating → Flushing. Devuelve de inmediato;
// Done se cierra cuando el canal de resultados se cierra y el flush
// final terminó.
func (a *Aggregator) Start() {
	go a.run()
}

// Done se cierra cuando el aggregator terminó, flush final incluido.
func (a *Aggregator) Done() <-chan struct{} {
	return a.done
}

func (a *Aggregator) run() {
	defer close(a.done)

	buf := make([]domain.AnalysisResult, 0, a.cfg.BatchSize)
	ticker := time.NewTicker(a.cfg.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(buf) == 0 {
			return
		}
		batch := make([]domain.AnalysisResult, len(buf))
		copy(batch, buf)
		buf = buf[:0]
		a.consumer.ConsumeBatch(batch)
		a.rec.BatchFlushed()
	}

	for {
		select {
		case res, ok := <-a.results:
			if !ok {
				// Canal cerrado: estado terminal, flush del parcial.
				flush()
				slog.Debug("aggregator stopped")
				return
			}
			buf = append(buf, res)
			if len(buf) >= a.cfg.BatchSize {
				flush()
				ticker.Reset(a.cfg.FlushInterval)
			}
		case <-ticker.C:
			flush()
		}
	}
}
