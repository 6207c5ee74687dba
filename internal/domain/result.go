package domain

// AnalysisResult es el veredicto de rentabilidad de un item: el spread
// entre el mejor buy y el mejor sell activos más el volumen diario estimado.
type AnalysisResult struct {
	URLName string
	Name    string

	HighestBuy float64
	LowestSell float64
	Profit     float64 // LowestSell - HighestBuy
	ROIPercent float64 // Profit / HighestBuy * 100 (0 si HighestBuy es 0)

	// DailyVolume es el promedio diario derivado de la ventana de 48h.
	// 0 con ventana vacía es dato parcial, no fallo.
	DailyVolume float64

	BuyOrders  int
	SellOrders int
}

// Thresholds son los tres mínimos independientes que definen "rentable".
// Los evalúa el consumidor del resultado, no el engine.
type Thresholds struct {
	MinProfit      float64
	MinROIPercent  float64
	MinDailyVolume float64
}

// Profitable devuelve true si el resultado cumple los tres mínimos a la vez.
func (r AnalysisResult) Profitable(t Thresholds) bool {
	return r.Profit >= t.MinProfit &&
		r.ROIPercent >= t.MinROIPercent &&
		r.DailyVolume >= t.MinDailyVolume
}
