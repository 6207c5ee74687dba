package wfmarket

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// failurePenaltyStep es el delay extra por cada throttle reciente.
	failurePenaltyStep = 500 * time.Millisecond
	// failurePenaltyMax acota el delay extra acumulado por fallos.
	failurePenaltyMax = 5 * time.Second
	// maxRecentFailures acota el contador: más fallos ya no suman penalty.
	maxRecentFailures = 10
)

// Limiter serializa las llamadas salientes de todos los workers a través
// de una única sección crítica: cada caller reserva el próximo slot de
// salida y duerme hasta alcanzarlo. El spacing entre requests consecutivos
// nunca baja del base delay configurado.
//
// Por debajo corre un token bucket (x/time/rate) con el techo duro de
// requests por minuto, independiente del delay adaptativo.
type Limiter struct {
	mu       sync.Mutex
	last     time.Time
	base     time.Duration
	jitter   time.Duration
	failures int

	ceiling *rate.Limiter
	randFn  func() float64
	now     func() time.Time
}

// NewLimiter crea el limiter con el spacing base, el jitter máximo y el
// techo de requests por minuto.
func NewLimiter(base, jitter time.Duration, maxPerMinute int) *Limiter {
	if maxPerMinute <= 0 {
		maxPerMinute = 180
	}
	return &Limiter{
		base:    base,
		jitter:  jitter,
		ceiling: rate.NewLimiter(rate.Limit(float64(maxPerMinute)/60.0), 1),
		randFn:  rand.Float64,
		now:     time.Now,
	}
}

// Wait bloquea hasta que el caller pueda emitir el próximo request.
// Respeta el contexto, así el shutdown no queda colgado de un sleep.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.ceiling.Wait(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	delay := l.base + time.Duration(l.randFn()*float64(l.jitter)) + l.penaltyLocked()
	target := l.last.Add(delay)
	now := l.now()
	if target.Before(now) {
		target = now
	}
	l.last = target
	l.mu.Unlock()

	wait := target.Sub(now)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecordFailure incrementa el contador acotado de throttles recientes,
// estirando los delays de los próximos requests.
func (l *Limiter) RecordFailure() {
	l.mu.Lock()
	if l.failures < maxRecentFailures {
		l.failures++
	}
	l.mu.Unlock()
}

// RecordSuccess decae el contador hacia cero, devolviendo el spacing al
// baseline tras una racha de respuestas sanas.
func (l *Limiter) RecordSuccess() {
	l.mu.Lock()
	if l.failures > 0 {
		l.failures--
	}
	l.mu.Unlock()
}

// SetBase reemplaza el spacing base en caliente.
func (l *Limiter) SetBase(base time.Duration) {
	l.mu.Lock()
	l.base = base
	l.mu.Unlock()
}

func (l *Limiter) penaltyLocked() time.Duration {
	p := time.Duration(l.failures) * failurePenaltyStep
	if p > failurePenaltyMax {
		p = failurePenaltyMax
	}
	return p
}
