package scanner

import (
	"sync"

	"github.com/alejandrodnm/platbot/internal/domain"
)

// Queue es la cola acotada de items pendientes. Pop es la única vía de
// salida y corre entera bajo lock: dos workers jamás obtienen el mismo
// item, sin importar el interleaving.
type Queue struct {
	mu    sync.Mutex
	items []*domain.MarketItem
	cap   int
}

// NewQueue crea la cola con la capacidad dada (<=0 = sin tope).
func NewQueue(capacity int) *Queue {
	return &Queue{cap: capacity}
}

// Push encola un item. Devuelve false si la cola está llena.
func (q *Queue) Push(item *domain.MarketItem) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cap > 0 && len(q.items) >= q.cap {
		return false
	}
	q.items = append(q.items, item)
	return true
}

// Pop saca el próximo item pendiente sin bloquear. ok=false con cola
// vacía; el worker duerme un intervalo corto y reintenta.
func (q *Queue) Pop() (*domain.MarketItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	item := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return item, true
}

// Len devuelve la cantidad de items pendientes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Reset vacía la cola antes de encolar una pasada nueva.
func (q *Queue) Reset() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}
