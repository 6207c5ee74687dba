package scanner

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/alejandrodnm/platbot/internal/domain"
)

// Settings son los parámetros mutables en runtime del pipeline. Un cambio
// de budget o de thresholds toma efecto en la próxima pasada de análisis
// sin reiniciar el pool.
type Settings struct {
	Budget     float64
	Thresholds domain.Thresholds
	ItemTTL    time.Duration // TTL del snapshot que posee cada item
}

// Runtime publica el snapshot vigente de Settings con swap atómico del
// puntero: los workers leen sin lock, las actualizaciones reemplazan el
// snapshot completo. Los escritores se serializan con un mutex para que
// dos setters concurrentes no se pisen el read-modify-write. Nada se
// consulta por lookup global ambiente.
type Runtime struct {
	mu sync.Mutex
	p  atomic.Pointer[Settings]
}

// NewRuntime crea el holder con el snapshot inicial.
func NewRuntime(s Settings) *Runtime {
	r := &Runtime{}
	r.p.Store(&s)
	return r
}

// Load devuelve el snapshot vigente por valor.
func (r *Runtime) Load() Settings {
	return *r.p.Load()
}

// Store reemplaza el snapshot completo.
func (r *Runtime) Store(s Settings) {
	r.mu.Lock()
	r.p.Store(&s)
	r.mu.Unlock()
}

// Update aplica fn sobre el snapshot vigente y publica el resultado como
// una sola operación: dos updates concurrentes nunca se pierden entre sí.
func (r *Runtime) Update(fn func(Settings) Settings) {
	r.mu.Lock()
	s := fn(*r.p.Load())
	r.p.Store(&s)
	r.mu.Unlock()
}

// SetBudget publica un snapshot nuevo con el budget cambiado.
func (r *Runtime) SetBudget(budget float64) {
	r.Update(func(s Settings) Settings {
		s.Budget = budget
		return s
	})
}

// SetThresholds publica un snapshot nuevo con los thresholds cambiados.
func (r *Runtime) SetThresholds(t domain.Thresholds) {
	r.Update(func(s Settings) Settings {
		s.Thresholds = t
		return s
	})
}
