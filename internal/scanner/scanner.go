// Package scanner es el pipeline concurrente de análisis: una cola
// acotada de items pendientes, un pool fijo de workers que llama al
// cliente de mercado y corre el engine, y un aggregator que entrega
// los resultados al consumer en batches.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/platbot/internal/domain"
	"github.com/alejandrodnm/platbot/internal/metrics"
	"github.com/alejandrodnm/platbot/internal/ports"
)

// Config agrupa la configuración estática del pipeline. Lo mutable en
// runtime (budget, thresholds, TTL de items) vive en Runtime.
type Config struct {
	Pool          PoolConfig
	Aggregator    AggregatorConfig
	QueueCapacity int
	ResultBuffer  int
}

// DefaultConfig devuelve una configuración sensata para producción.
func DefaultConfig() Config {
	return Config{
		Pool:         DefaultPoolConfig(),
		Aggregator:   DefaultAggregatorConfig(),
		ResultBuffer: 256,
	}
}

// Scanner es el orquestador principal: mantiene el directorio de items
// y coordina las pasadas de análisis sobre el pool.
type Scanner struct {
	cfg      Config
	client   ports.MarketClient
	consumer ports.Consumer
	status   ports.StatusSink
	rt       *Runtime
	rec      *metrics.Recorder

	signals *domain.Signals
	queue   *Queue
	results chan domain.AnalysisResult
	pool    *Pool
	agg     *Aggregator

	mu    sync.Mutex
	items map[string]*domain.MarketItem
	order []string

	runID string
}

// New crea un Scanner con todas las dependencias inyectadas.
func New(
	cfg Config,
	client ports.MarketClient,
	consumer ports.Consumer,
	status ports.StatusSink,
	rt *Runtime,
	rec *metrics.Recorder,
) *Scanner {
	if cfg.ResultBuffer <= 0 {
		cfg.ResultBuffer = 256
	}
	if rec == nil {
		rec = metrics.Nop()
	}

	signals := domain.NewSignals()
	queue := NewQueue(cfg.QueueCapacity)
	results := make(chan domain.AnalysisResult, cfg.ResultBuffer)

	return &Scanner{
		cfg:      cfg,
		client:   client,
		consumer: consumer,
		status:   status,
		rt:       rt,
		rec:      rec,
		signals:  signals,
		queue:    queue,
		results:  results,
		pool:     NewPool(cfg.Pool, client, queue, results, signals, rt, rec),
		agg:      NewAggregator(cfg.Aggregator, results, consumer, rec),
		items:    make(map[string]*domain.MarketItem),
	}
}

// LoadCatalog descarga (o lee de caché) el directorio completo de items
// y construye los MarketItem. Devuelve la cantidad cargada: 0 no es
// fatal, solo significa que aún no hay nada que escanear.
func (s *Scanner) LoadCatalog(ctx context.Context) int {
	catalog := s.client.FetchCatalog(ctx)

	s.mu.Lock()
	for i, entry := range catalog {
		if _, ok := s.items[entry.URLName]; ok {
			continue
		}
		s.items[entry.URLName] = &domain.MarketItem{
			URLName: entry.URLName,
			Name:    entry.Name,
		}
		s.order = append(s.order, entry.URLName)

		if (i+1)%500 == 0 {
			s.setStatus(fmt.Sprintf("Loading items... (%d/%d)", i+1, len(catalog)))
		}
	}
	total := len(s.items)
	s.mu.Unlock()

	slog.Info("catalog loaded", "items", total)
	s.setStatus(fmt.Sprintf("Ready to analyze (%d items)", total))
	return total
}

// StartAnalysis encola una pasada completa sobre el directorio y activa
// el procesamiento. Si ya hay una pasada activa es un no-op.
func (s *Scanner) StartAnalysis() {
	if s.signals.Analyzing() {
		return
	}

	s.runID = uuid.New().String()

	s.mu.Lock()
	s.queue.Reset()
	queued := 0
	for _, key := range s.order {
		if s.queue.Push(s.items[key]) {
			queued++
		}
	}
	s.mu.Unlock()

	s.rec.QueueDepth(queued)
	s.signals.SetAnalyzing(true)

	slog.Info("analysis pass started", "run_id", s.runID, "queued", queued)
	s.setStatus(fmt.Sprintf("Analyzing %d remaining items...", queued))
}

// StopAnalysis pausa el procesamiento sin destruir el pool; los workers
// quedan en idle hasta la próxima pasada.
func (s *Scanner) StopAnalysis() {
	s.signals.SetAnalyzing(false)
	slog.Info("analysis pass stopped", "run_id", s.runID, "remaining", s.queue.Len())
	s.setStatus("Analysis stopped")
}

// Analyzing indica si hay una pasada activa.
func (s *Scanner) Analyzing() bool {
	return s.signals.Analyzing()
}

// Remaining devuelve los items todavía pendientes de la pasada actual.
func (s *Scanner) Remaining() int {
	return s.queue.Len()
}

// Runtime expone el holder de settings mutables para la capa de config.
func (s *Scanner) Runtime() *Runtime {
	return s.rt
}

// Run arranca aggregator y pool y bloquea hasta que el contexto se
// cancele; después ejecuta el shutdown cooperativo completo.
func (s *Scanner) Run(ctx context.Context) {
	slog.Info("scanner starting",
		"workers", s.pool.cfg.Workers,
		"batch_size", s.agg.cfg.BatchSize,
	)

	s.agg.Start()
	s.pool.Start(ctx)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case <-ticker.C:
			if !s.signals.Analyzing() {
				continue
			}
			if n := s.queue.Len(); n > 0 {
				s.setStatus(fmt.Sprintf("Analyzing %d remaining items...", n))
			} else {
				s.setStatus("Pass complete, waiting for next scan")
			}
		}
	}
}

// shutdown apaga el pipeline en orden: señal de stop, espera de los
// workers, cierre del canal de resultados y flush final del aggregator.
func (s *Scanner) shutdown() {
	slog.Info("scanner shutting down", "run_id", s.runID)
	s.signals.Stop()
	s.pool.Wait()
	close(s.results)
	<-s.agg.Done()
	slog.Info("scanner stopped")
}

func (s *Scanner) setStatus(text string) {
	if s.status != nil {
		s.status.Status(text)
	}
}
