package ports

import "github.com/alejandrodnm/platbot/internal/domain"

// Consumer recibe los batches de resultados que arma el aggregator.
// Dentro de un batch las entradas conservan el orden en que se
// acumularon; entre items no hay garantía de orden.
type Consumer interface {
	ConsumeBatch(batch []domain.AnalysisResult)
}

// StatusSink recibe el texto de progreso grueso del scanner
// ("Analyzing N remaining items...").
type StatusSink interface {
	Status(text string)
}
