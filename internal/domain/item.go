package domain

import (
	"sync/atomic"
	"time"
)

// OrderSide es el lado de una orden publicada en el mercado.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// UserStatusInGame marca a un vendedor conectado y disponible para tradear.
const UserStatusInGame = "ingame"

// Order es una oferta activa de compra o venta de un item.
// Se construye desde cada respuesta de la API; no se persiste más allá
// del TTL de la caché.
type Order struct {
	Platinum   float64
	Quantity   int
	Side       OrderSide
	UserStatus string
	UserID     string
}

// IsActive devuelve true si el vendedor está presente en el juego.
func (o Order) IsActive() bool {
	return o.UserStatus == UserStatusInGame
}

// IsAutomated devuelve true si el identificador del usuario marca una
// contraparte automatizada que no cuenta para el análisis.
func (o Order) IsAutomated() bool {
	return len(o.UserID) >= 3 && o.UserID[:3] == "bot"
}

// VolumePoint es un registro de volumen dentro de la ventana de estadísticas.
type VolumePoint struct {
	Volume   float64
	DateTime time.Time
}

// StatisticsSnapshot es la ventana reciente de 48 horas de volumen de trades.
type StatisticsSnapshot struct {
	Points []VolumePoint
}

// IsEmpty devuelve true si la ventana no tiene registros.
func (s StatisticsSnapshot) IsEmpty() bool {
	return len(s.Points) == 0
}

// CatalogEntry es una entrada del directorio completo de items del mercado.
type CatalogEntry struct {
	URLName string
	Name    string
}

// MarketItem es un item tradeable del catálogo. Los campos mutables
// (snapshots, LastBuyPrice) solo los toca el worker que está procesando
// el item en ese momento — la cola garantiza un único consumidor por item.
type MarketItem struct {
	URLName string // clave estable URL-safe
	Name    string

	// LastBuyPrice es el último highest-buy conocido. Solo sirve para el
	// pre-filtro barato de presupuesto, nunca como precio autoritativo.
	LastBuyPrice float64

	Orders    []Order
	Stats     StatisticsSnapshot
	FetchedAt time.Time

	busy atomic.Bool
}

// TryAcquire toma la propiedad exclusiva del item para procesarlo.
// Devuelve false si otro worker lo tiene en vuelo (puede pasar si una
// pasada nueva reencola un item de la anterior todavía en proceso).
func (m *MarketItem) TryAcquire() bool {
	return m.busy.CompareAndSwap(false, true)
}

// Release devuelve el item al estado libre.
func (m *MarketItem) Release() {
	m.busy.Store(false)
}

// Stale devuelve true si el snapshot del item superó el TTL dado y hay
// que refrescarlo contra el Client.
func (m *MarketItem) Stale(ttl time.Duration, now time.Time) bool {
	return m.FetchedAt.IsZero() || now.Sub(m.FetchedAt) >= ttl
}

// Signals son las flags compartidas que gobiernan el pipeline: running
// mantiene vivos a workers y aggregator, analyzing pausa/reanuda el
// procesamiento sin destruir el pool.
type Signals struct {
	running   atomic.Bool
	analyzing atomic.Bool
}

// NewSignals crea las señales con el pipeline vivo y en pausa.
func NewSignals() *Signals {
	s := &Signals{}
	s.running.Store(true)
	return s
}

// Running devuelve true mientras no se haya pedido el shutdown.
func (s *Signals) Running() bool { return s.running.Load() }

// Stop pide el shutdown cooperativo de workers y aggregator.
func (s *Signals) Stop() { s.running.Store(false) }

// Analyzing devuelve true si el escaneo está activo.
func (s *Signals) Analyzing() bool { return s.analyzing.Load() }

// SetAnalyzing pausa o reanuda el procesamiento.
func (s *Signals) SetAnalyzing(v bool) { s.analyzing.Store(v) }
