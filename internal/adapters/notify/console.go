package notify

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/platbot/internal/domain"
)

// defaultHighVolumeMark es el volumen diario a partir del cual un item
// se marca como de alta rotación en la tabla.
const defaultHighVolumeMark = 10.0

// Console implementa ports.Consumer y ports.StatusSink: imprime los
// batches de resultados como tablas y el progreso como líneas sueltas.
type Console struct {
	mu         sync.Mutex
	out        io.Writer
	thresholds func() domain.Thresholds
	showAll    bool
	volumeMark float64
}

// NewConsole crea un consumer que escribe a stdout. thresholds devuelve
// los mínimos vigentes en el momento de cada batch; showAll desactiva el
// filtro de rentabilidad y muestra todo lo analizado.
func NewConsole(thresholds func() domain.Thresholds, showAll bool) *Console {
	return &Console{
		out:        os.Stdout,
		thresholds: thresholds,
		showAll:    showAll,
		volumeMark: defaultHighVolumeMark,
	}
}

// NewConsoleWriter crea un consumer para tests.
func NewConsoleWriter(w io.Writer, thresholds func() domain.Thresholds, showAll bool) *Console {
	return &Console{
		out:        w,
		thresholds: thresholds,
		showAll:    showAll,
		volumeMark: defaultHighVolumeMark,
	}
}

// ConsumeBatch imprime los resultados del batch que pasan los thresholds
// vigentes. Un batch sin nada rentable no imprime nada: el ruido de un
// "nothing found" por batch entierra los hallazgos reales.
func (c *Console) ConsumeBatch(batch []domain.AnalysisResult) {
	t := c.currentThresholds()

	rows := batch
	if !c.showAll {
		rows = rows[:0:0]
		for _, r := range batch {
			if r.Profitable(t) {
				rows = append(rows, r)
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(rows) == 0 {
		return
	}

	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] %d result(s)\n", now, len(rows))

	table := tablewriter.NewWriter(c.out)
	table.Header("Item", "Buy", "Sell", "Profit", "ROI%", "Vol/day", "Orders B/S")

	for _, r := range rows {
		table.Append(
			itemLabel(r),
			fmt.Sprintf("%.0f", r.HighestBuy),
			fmt.Sprintf("%.0f", r.LowestSell),
			fmt.Sprintf("%.0f", r.Profit),
			fmt.Sprintf("%.1f", r.ROIPercent),
			volumeLabel(r.DailyVolume, c.volumeMark),
			fmt.Sprintf("%d/%d", r.BuyOrders, r.SellOrders),
		)
	}
	table.Render()
}

// Status imprime una línea de progreso con timestamp.
func (c *Console) Status(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "[%s] %s\n", time.Now().Format("15:04:05"), text)
}

func (c *Console) currentThresholds() domain.Thresholds {
	if c.thresholds == nil {
		return domain.Thresholds{}
	}
	return c.thresholds()
}

func itemLabel(r domain.AnalysisResult) string {
	if r.Name != "" {
		return truncate(r.Name, 36)
	}
	return truncate(r.URLName, 36)
}

// volumeLabel marca con * los items de alta rotación.
func volumeLabel(v, mark float64) string {
	if v >= mark {
		return fmt.Sprintf("%.1f *", v)
	}
	return fmt.Sprintf("%.1f", v)
}

// truncate corta por runas, no por bytes: un nombre con caracteres
// multibyte nunca queda partido a mitad de runa.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
