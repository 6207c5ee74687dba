package ports

import (
	"context"

	"github.com/alejandrodnm/platbot/internal/domain"
)

// MarketClient da acceso a los tres endpoints de lectura del mercado,
// detrás del rate limiter compartido y la caché de dos niveles.
type MarketClient interface {
	// FetchCatalog devuelve el directorio completo de items. Un fallo
	// devuelve directorio vacío; nunca es fatal.
	FetchCatalog(ctx context.Context) []domain.CatalogEntry

	// FetchOrders devuelve las órdenes activas del item. Un error
	// significa "probar más tarde", no "no disponible para siempre".
	FetchOrders(ctx context.Context, key string) ([]domain.Order, error)

	// FetchStatistics devuelve la ventana reciente de volumen del item.
	FetchStatistics(ctx context.Context, key string) (domain.StatisticsSnapshot, error)
}
