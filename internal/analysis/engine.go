// Package analysis contiene el engine puro de rentabilidad: mapea la
// lista cruda de órdenes y el snapshot de estadísticas de un item a un
// veredicto, sin tocar red ni estado compartido.
package analysis

import "github.com/alejandrodnm/platbot/internal/domain"

// Analyze evalúa el spread de un item. Devuelve ok=false cuando no hay
// resultado posible: algún lado sin órdenes calificadas, o el mejor buy
// por encima del presupuesto (budget 0 = sin límite).
//
// El profit y el ROI usan solo el mejor precio de cada lado, no el libro
// completo; es el comportamiento definido, no una simplificación a
// corregir.
func Analyze(item *domain.MarketItem, budget float64) (domain.AnalysisResult, bool) {
	if len(item.Orders) == 0 {
		return domain.AnalysisResult{}, false
	}

	var buys, sells []domain.Order
	for _, o := range item.Orders {
		if !o.IsActive() || o.IsAutomated() {
			continue
		}
		switch o.Side {
		case domain.SideBuy:
			buys = append(buys, o)
		case domain.SideSell:
			sells = append(sells, o)
		}
	}

	if len(buys) == 0 || len(sells) == 0 {
		return domain.AnalysisResult{}, false
	}

	highestBuy := buys[0].Platinum
	for _, o := range buys[1:] {
		if o.Platinum > highestBuy {
			highestBuy = o.Platinum
		}
	}

	// No se puede abrir la posición si el buy de entrada excede el budget.
	if budget > 0 && highestBuy > budget {
		return domain.AnalysisResult{}, false
	}

	lowestSell := sells[0].Platinum
	for _, o := range sells[1:] {
		if o.Platinum < lowestSell {
			lowestSell = o.Platinum
		}
	}

	profit := lowestSell - highestBuy
	roi := 0.0
	if highestBuy > 0 {
		roi = profit / highestBuy * 100
	}

	return domain.AnalysisResult{
		URLName:     item.URLName,
		Name:        item.Name,
		HighestBuy:  highestBuy,
		LowestSell:  lowestSell,
		Profit:      profit,
		ROIPercent:  roi,
		DailyVolume: dailyVolume(item.Stats),
		BuyOrders:   len(buys),
		SellOrders:  len(sells),
	}, true
}

// dailyVolume promedia la ventana de 48h a volumen diario. Ventana vacía
// es dato parcial: devuelve 0 y el resultado sigue siendo válido.
func dailyVolume(stats domain.StatisticsSnapshot) float64 {
	if stats.IsEmpty() {
		return 0
	}
	total := 0.0
	for _, p := range stats.Points {
		total += p.Volume
	}
	return total / 2
}
