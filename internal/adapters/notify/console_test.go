package notify_test

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/alejandrodnm/platbot/internal/adapters/notify"
	"github.com/alejandrodnm/platbot/internal/domain"
	"github.com/stretchr/testify/assert"
)

func thresholds(minProfit, minROI, minVolume float64) func() domain.Thresholds {
	return func() domain.Thresholds {
		return domain.Thresholds{
			MinProfit:      minProfit,
			MinROIPercent:  minROI,
			MinDailyVolume: minVolume,
		}
	}
}

func makeResult(name string, profit, roi, volume float64) domain.AnalysisResult {
	return domain.AnalysisResult{
		URLName:     strings.ToLower(strings.ReplaceAll(name, " ", "_")),
		Name:        name,
		HighestBuy:  50,
		LowestSell:  50 + profit,
		Profit:      profit,
		ROIPercent:  roi,
		DailyVolume: volume,
		BuyOrders:   3,
		SellOrders:  5,
	}
}

func TestConsole_ConsumeBatch_FiltersByThresholds(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, thresholds(5, 15, 3), false)

	c.ConsumeBatch([]domain.AnalysisResult{
		makeResult("Volt Prime Set", 10, 20, 8), // pasa los tres mínimos
		makeResult("Ash Prime Set", 2, 20, 8),   // profit bajo
		makeResult("Loki Prime Set", 10, 5, 8),  // ROI bajo
		makeResult("Nova Prime Set", 10, 20, 1), // volumen bajo
	})

	out := buf.String()
	assert.Contains(t, out, "Volt Prime Set")
	assert.NotContains(t, out, "Ash Prime Set")
	assert.NotContains(t, out, "Loki Prime Set")
	assert.NotContains(t, out, "Nova Prime Set")
	assert.Contains(t, out, "1 result(s)")
}

func TestConsole_ConsumeBatch_ShowAllBypassesFilter(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, thresholds(5, 15, 3), true)

	c.ConsumeBatch([]domain.AnalysisResult{
		makeResult("Ash Prime Set", 2, 5, 1), // no pasaría ningún mínimo
	})

	assert.Contains(t, buf.String(), "Ash Prime Set")
}

func TestConsole_ConsumeBatch_SilentWhenNothingProfitable(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, thresholds(5, 15, 3), false)

	c.ConsumeBatch([]domain.AnalysisResult{
		makeResult("Ash Prime Set", 1, 1, 1),
	})
	c.ConsumeBatch(nil)

	assert.Empty(t, buf.String(), "batch sin hallazgos no debe imprimir nada")
}

func TestConsole_ConsumeBatch_MarksHighVolume(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, thresholds(0, 0, 0), false)

	c.ConsumeBatch([]domain.AnalysisResult{
		makeResult("Volt Prime Set", 10, 20, 25), // por encima de la marca
		makeResult("Ash Prime Set", 10, 20, 2),
	})

	out := buf.String()
	assert.Contains(t, out, "25.0 *")
	assert.Contains(t, out, "2.0")
	assert.NotContains(t, out, "2.0 *")
}

func TestConsole_ConsumeBatch_LongNameTruncated(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, thresholds(0, 0, 0), true)

	long := strings.Repeat("A", 60)
	c.ConsumeBatch([]domain.AnalysisResult{makeResult(long, 10, 20, 5)})

	assert.Contains(t, buf.String(), "...")
}

func TestConsole_ConsumeBatch_MultibyteNameStaysValid(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, thresholds(0, 0, 0), true)

	long := strings.Repeat("Ódísto ", 10) // > 36 runas, multibyte
	c.ConsumeBatch([]domain.AnalysisResult{makeResult(long, 10, 20, 5)})

	out := buf.String()
	assert.True(t, utf8.ValidString(out), "el truncado no debe partir una runa")
	assert.Contains(t, out, "...")
}

func TestConsole_Status(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, nil, false)

	c.Status("Analyzing 120 remaining items...")

	assert.Contains(t, buf.String(), "Analyzing 120 remaining items...")
}
