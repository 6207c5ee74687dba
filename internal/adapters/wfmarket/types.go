package wfmarket

// types.go — DTOs del API v1 de warframe.market y su mapeo a domain.
//
// Todas las respuestas vienen en un envelope {"payload": {...}}. La
// ausencia del campo anidado esperado se trata como resultado vacío,
// nunca como excepción.

import (
	"encoding/json"
	"time"

	"github.com/alejandrodnm/platbot/internal/domain"
)

// envelope es la cáscara común de todas las respuestas del API.
type envelope struct {
	Payload json.RawMessage `json:"payload"`
}

type catalogPayload struct {
	Items []catalogItemDTO `json:"items"`
}

type catalogItemDTO struct {
	URLName  string `json:"url_name"`
	ItemName string `json:"item_name"`
}

type ordersPayload struct {
	Orders []orderDTO `json:"orders"`
}

type orderDTO struct {
	Platinum  float64 `json:"platinum"`
	Quantity  int     `json:"quantity"`
	OrderType string  `json:"order_type"`
	User      userDTO `json:"user"`
}

type userDTO struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type statisticsPayload struct {
	StatisticsClosed struct {
		Hours48 []volumeDTO `json:"48hours"`
	} `json:"statistics_closed"`
}

type volumeDTO struct {
	Volume   float64 `json:"volume"`
	DateTime string  `json:"datetime"`
}

// mapCatalog convierte el directorio crudo a entradas de dominio,
// descartando las que no traen clave.
func mapCatalog(items []catalogItemDTO) []domain.CatalogEntry {
	out := make([]domain.CatalogEntry, 0, len(items))
	for _, it := range items {
		if it.URLName == "" {
			continue
		}
		name := it.ItemName
		if name == "" {
			name = it.URLName
		}
		out = append(out, domain.CatalogEntry{URLName: it.URLName, Name: name})
	}
	return out
}

// mapOrders convierte las órdenes crudas filtrando a las de vendedores
// presentes ("activas"). El filtro fino buy/sell/bot lo hace el engine.
func mapOrders(orders []orderDTO) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.User.Status != domain.UserStatusInGame {
			continue
		}
		out = append(out, domain.Order{
			Platinum:   o.Platinum,
			Quantity:   o.Quantity,
			Side:       domain.OrderSide(o.OrderType),
			UserStatus: o.User.Status,
			UserID:     o.User.ID,
		})
	}
	return out
}

// mapStatistics convierte la ventana de 48h. Un datetime que no parsea
// deja el punto con timestamp cero; el volumen sigue contando.
func mapStatistics(points []volumeDTO) domain.StatisticsSnapshot {
	out := make([]domain.VolumePoint, 0, len(points))
	for _, p := range points {
		ts, _ := time.Parse(time.RFC3339, p.DateTime)
		out = append(out, domain.VolumePoint{Volume: p.Volume, DateTime: ts})
	}
	return domain.StatisticsSnapshot{Points: out}
}
