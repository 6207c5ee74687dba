package scanner

// pool.go — worker pool del análisis. Cada worker itera Idle → Fetching →
// Analyzing → Idle: con el escaneo pausado duerme un intervalo corto, con
// la cola vacía hace poll con backoff, y con un item en mano refresca los
// snapshots vía el Client solo si vencieron y corre el engine.
//
// La cantidad de workers es chica y fija: el limiter compartido ya
// serializa las llamadas salientes, así que el valor del pool es el
// pipelining (uno analiza mientras otro espera red), no el paralelismo
// de red. Ningún fallo de un item reencola ni tumba el pool.

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/platbot/internal/analysis"
	"github.com/alejandrodnm/platbot/internal/domain"
	"github.com/alejandrodnm/platbot/internal/metrics"
	"github.com/alejandrodnm/platbot/internal/ports"
)

// PoolConfig controla el pool de workers.
type PoolConfig struct {
	Workers      int
	IdleInterval time.Duration // sleep con el escaneo pausado
	PollInterval time.Duration // sleep con la cola vacía
	Backpressure time.Duration // ventana acotada de bloqueo con el canal lleno
}

// DefaultPoolConfig devuelve los valores de operación normales.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Workers:      4,
		IdleInterval: time.Second,
		PollInterval: 100 * time.Millisecond,
		Backpressure: 50 * time.Millisecond,
	}
}

// Pool drena la cola de pendientes con un set fijo de workers.
type Pool struct {
	cfg     PoolConfig
	client  ports.MarketClient
	queue   *Queue
	results chan<- domain.AnalysisResult
	signals *domain.Signals
	rt      *Runtime
	rec     *metrics.Recorder
	wg      sync.WaitGroup
}

// NewPool arma el pool sin arrancarlo.
func NewPool(
	cfg PoolConfig,
	client ports.MarketClient,
	queue *Queue,
	results chan<- domain.AnalysisResult,
	signals *domain.Signals,
	rt *Runtime,
	rec *metrics.Recorder,
) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	if cfg.Backpressure <= 0 {
		cfg.Backpressure = 50 * time.Millisecond
	}
	if rec == nil {
		rec = metrics.Nop()
	}
	return &Pool{
		cfg:     cfg,
		client:  client,
		queue:   queue,
		results: results,
		signals: signals,
		rt:      rt,
		rec:     rec,
	}
}

// Start lanza los workers. El pool corre hasta que la señal de stop se
// observe; Wait bloquea hasta que el último worker salga.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.worker(ctx, id)
		}(i)
	}
	slog.Info("worker pool started", "workers", p.cfg.Workers)
}

// Wait bloquea hasta que todos los workers terminen.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context, id int) {
	for p.signals.Running() {
		if !p.signals.Analyzing() {
			sleep(p.cfg.IdleInterval)
			continue
		}

		item, ok := p.queue.Pop()
		if !ok {
			sleep(p.cfg.PollInterval)
			continue
		}
		p.rec.QueueDepth(p.queue.Len())

		p.process(ctx, item)
	}
	slog.Debug("worker exiting", "worker", id)
}

// process corre el ciclo completo de un item. El worker es dueño
// exclusivo del item mientras dura la llamada.
func (p *Pool) process(ctx context.Context, item *domain.MarketItem) {
	if !item.TryAcquire() {
		p.rec.ItemSkipped("busy")
		return
	}
	defer item.Release()

	st := p.rt.Load()

	// Pre-filtro barato: si el último buy conocido ya excede el budget,
	// ni siquiera gastamos un request.
	if st.Budget > 0 && item.LastBuyPrice > st.Budget {
		p.rec.ItemSkipped("budget")
		return
	}

	now := time.Now()
	if item.Stale(st.ItemTTL, now) {
		orders, err := p.client.FetchOrders(ctx, item.URLName)
		if err != nil {
			slog.Debug("orders fetch failed", "item", item.URLName, "err", err)
			p.rec.ItemSkipped("fetch")
			return
		}
		stats, err := p.client.FetchStatistics(ctx, item.URLName)
		if err != nil {
			slog.Debug("statistics fetch failed", "item", item.URLName, "err", err)
			p.rec.ItemSkipped("fetch")
			return
		}
		item.Orders = orders
		item.Stats = stats
		item.FetchedAt = now
	}

	res, ok := analysis.Analyze(item, st.Budget)
	p.rec.ItemAnalyzed()
	if !ok {
		return
	}

	// Memorizar el highest buy para el pre-filtro de pasadas futuras.
	item.LastBuyPrice = res.HighestBuy

	p.push(res)
	p.rec.Result()
}

// push entrega el resultado al canal. Con el canal lleno aplica backoff
// en ventanas acotadas en vez de descartar: el aggregator sigue drenando
// hasta que el canal se cierra, así que la espera siempre termina.
func (p *Pool) push(res domain.AnalysisResult) {
	for {
		select {
		case p.results <- res:
			return
		case <-time.After(p.cfg.Backpressure):
			slog.Debug("result channel full, backing off", "item", res.URLName)
		}
	}
}

func sleep(d time.Duration) {
	time.Sleep(d)
}
