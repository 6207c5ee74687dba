package scanner_test

import (
	"sync"
	"testing"
	"time"

	"github.com/alejandrodnm/platbot/internal/domain"
	"github.com/alejandrodnm/platbot/internal/scanner"
	"github.com/stretchr/testify/assert"
)

func TestRuntime_LoadReturnsSnapshot(t *testing.T) {
	rt := scanner.NewRuntime(scanner.Settings{
		Budget:  100,
		ItemTTL: 5 * time.Minute,
		Thresholds: domain.Thresholds{
			MinProfit:      5,
			MinROIPercent:  15,
			MinDailyVolume: 3,
		},
	})

	st := rt.Load()
	assert.Equal(t, 100.0, st.Budget)
	assert.Equal(t, 15.0, st.Thresholds.MinROIPercent)

	// Mutar la copia no afecta el snapshot publicado.
	st.Budget = 999
	assert.Equal(t, 100.0, rt.Load().Budget)
}

func TestRuntime_SetBudgetPreservesRest(t *testing.T) {
	rt := scanner.NewRuntime(scanner.Settings{
		Budget:  100,
		ItemTTL: time.Minute,
	})

	rt.SetBudget(250)

	st := rt.Load()
	assert.Equal(t, 250.0, st.Budget)
	assert.Equal(t, time.Minute, st.ItemTTL)
}

func TestRuntime_SetThresholds(t *testing.T) {
	rt := scanner.NewRuntime(scanner.Settings{Budget: 100})

	rt.SetThresholds(domain.Thresholds{MinProfit: 10, MinROIPercent: 20, MinDailyVolume: 5})

	st := rt.Load()
	assert.Equal(t, 10.0, st.Thresholds.MinProfit)
	assert.Equal(t, 100.0, st.Budget)
}

// Dos setters concurrentes sobre campos distintos no deben perderse
// actualizaciones: al final ambos campos tienen su último valor.
func TestRuntime_ConcurrentSettersDoNotLoseUpdates(t *testing.T) {
	const iterations = 2000

	rt := scanner.NewRuntime(scanner.Settings{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 1; i <= iterations; i++ {
			rt.SetBudget(float64(i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 1; i <= iterations; i++ {
			rt.SetThresholds(domain.Thresholds{MinProfit: float64(i)})
		}
	}()
	wg.Wait()

	st := rt.Load()
	assert.Equal(t, float64(iterations), st.Budget)
	assert.Equal(t, float64(iterations), st.Thresholds.MinProfit)
}

// Los workers leen el snapshot mientras otro goroutine lo reemplaza; el
// race detector debe quedar callado y cada lectura ver un snapshot
// coherente.
func TestRuntime_ConcurrentSwap(t *testing.T) {
	rt := scanner.NewRuntime(scanner.Settings{Budget: 1})

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			rt.SetBudget(float64(i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			st := rt.Load()
			assert.GreaterOrEqual(t, st.Budget, 0.0)
		}
	}()
	wg.Wait()
}
