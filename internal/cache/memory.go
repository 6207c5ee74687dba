package cache

import (
	"sync"
	"time"
)

// entry es el par (valor, timestamp) de una clave en memoria.
type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Memory es la caché en memoria compartida entre workers. Las escrituras
// van bajo lock; las lecturas usan RLock, seguro para acceso concurrente.
type Memory[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry[V]
	now     func() time.Time
}

// NewMemory crea una caché en memoria con el TTL dado.
func NewMemory[V any](ttl time.Duration) *Memory[V] {
	return &Memory[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

// Get devuelve el valor de key si existe y su TTL no venció.
// Una entrada vencida se borra y se reporta ErrMiss.
func (m *Memory[V]) Get(key string) (V, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	ttl := m.ttl
	m.mu.RUnlock()

	var zero V
	if !ok {
		return zero, ErrMiss
	}
	if m.now().Sub(e.storedAt) >= ttl {
		m.mu.Lock()
		// Re-chequear bajo lock: otro worker pudo reescribir la clave.
		if cur, still := m.entries[key]; still && cur.storedAt.Equal(e.storedAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return zero, ErrMiss
	}
	return e.value, nil
}

// Set guarda value bajo key con timestamp actual.
func (m *Memory[V]) Set(key string, value V) {
	m.mu.Lock()
	m.entries[key] = entry[V]{value: value, storedAt: m.now()}
	m.mu.Unlock()
}

// SetWithTime guarda value con un timestamp explícito. Lo usa el cliente
// al promover una entrada del disco para conservar su edad real.
func (m *Memory[V]) SetWithTime(key string, value V, storedAt time.Time) {
	m.mu.Lock()
	m.entries[key] = entry[V]{value: value, storedAt: storedAt}
	m.mu.Unlock()
}

// SetTTL reemplaza el TTL en caliente; afecta a las lecturas siguientes.
func (m *Memory[V]) SetTTL(ttl time.Duration) {
	m.mu.Lock()
	m.ttl = ttl
	m.mu.Unlock()
}

// Len devuelve la cantidad de entradas, vencidas incluidas.
func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
