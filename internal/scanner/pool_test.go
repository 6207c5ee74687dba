package scanner_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alejandrodnm/platbot/internal/domain"
	"github.com/alejandrodnm/platbot/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient sirve órdenes y estadísticas fijas y cuenta las llamadas.
type mockClient struct {
	mu        sync.Mutex
	catalog   []domain.CatalogEntry
	orders    map[string][]domain.Order
	stats     map[string]domain.StatisticsSnapshot
	ordersErr error

	ordersCalls atomic.Int64
	statsCalls  atomic.Int64
}

func (m *mockClient) FetchCatalog(_ context.Context) []domain.CatalogEntry {
	return m.catalog
}

func (m *mockClient) FetchOrders(_ context.Context, key string) ([]domain.Order, error) {
	m.ordersCalls.Add(1)
	if m.ordersErr != nil {
		return nil, m.ordersErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[key], nil
}

func (m *mockClient) FetchStatistics(_ context.Context, key string) (domain.StatisticsSnapshot, error) {
	m.statsCalls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats[key], nil
}

func spreadOrders() []domain.Order {
	return []domain.Order{
		{Platinum: 10, Side: domain.SideBuy, UserStatus: domain.UserStatusInGame, UserID: "u1"},
		{Platinum: 50, Side: domain.SideBuy, UserStatus: domain.UserStatusInGame, UserID: "u2"},
		{Platinum: 60, Side: domain.SideSell, UserStatus: domain.UserStatusInGame, UserID: "u3"},
	}
}

func testPoolConfig() scanner.PoolConfig {
	return scanner.PoolConfig{
		Workers:      2,
		IdleInterval: 5 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
		Backpressure: 5 * time.Millisecond,
	}
}

func defaultSettings() scanner.Settings {
	return scanner.Settings{
		Budget:  100,
		ItemTTL: 5 * time.Minute,
	}
}

// runPool arranca el pool sobre los items dados, espera a que la cola
// se drene y devuelve los resultados emitidos.
func runPool(t *testing.T, client *mockClient, settings scanner.Settings, items ...*domain.MarketItem) []domain.AnalysisResult {
	t.Helper()

	queue := scanner.NewQueue(0)
	for _, it := range items {
		require.True(t, queue.Push(it))
	}

	signals := domain.NewSignals()
	signals.SetAnalyzing(true)
	rt := scanner.NewRuntime(settings)
	results := make(chan domain.AnalysisResult, len(items)+1)

	pool := scanner.NewPool(testPoolConfig(), client, queue, results, signals, rt, nil)
	pool.Start(context.Background())

	require.Eventually(t, func() bool {
		return queue.Len() == 0
	}, 2*time.Second, 5*time.Millisecond)

	// Dar un poll extra para que el último item en vuelo termine.
	time.Sleep(30 * time.Millisecond)
	signals.Stop()
	pool.Wait()
	close(results)

	var out []domain.AnalysisResult
	for r := range results {
		out = append(out, r)
	}
	return out
}

func TestPool_ProcessesItemAndEmitsResult(t *testing.T) {
	client := &mockClient{
		orders: map[string][]domain.Order{"volt_prime_set": spreadOrders()},
		stats: map[string]domain.StatisticsSnapshot{
			"volt_prime_set": {Points: []domain.VolumePoint{{Volume: 6}, {Volume: 4}}},
		},
	}
	it := &domain.MarketItem{URLName: "volt_prime_set", Name: "Volt Prime Set"}

	out := runPool(t, client, defaultSettings(), it)

	require.Len(t, out, 1)
	res := out[0]
	assert.Equal(t, 50.0, res.HighestBuy)
	assert.Equal(t, 60.0, res.LowestSell)
	assert.Equal(t, 10.0, res.Profit)
	assert.InDelta(t, 5.0, res.DailyVolume, 0.001)
	assert.Equal(t, int64(1), client.ordersCalls.Load())
	assert.Equal(t, int64(1), client.statsCalls.Load())
}

func TestPool_BudgetPrefilterSkipsFetch(t *testing.T) {
	client := &mockClient{orders: map[string][]domain.Order{}}
	it := &domain.MarketItem{URLName: "expensive_set", LastBuyPrice: 500}

	settings := defaultSettings()
	settings.Budget = 100
	out := runPool(t, client, settings, it)

	assert.Empty(t, out)
	assert.Zero(t, client.ordersCalls.Load(), "item fuera de presupuesto no debe gastar requests")
}

func TestPool_FetchErrorSkipsWithoutRequeue(t *testing.T) {
	client := &mockClient{ordersErr: errors.New("throttled")}
	it := &domain.MarketItem{URLName: "ash_prime_set"}

	out := runPool(t, client, defaultSettings(), it)

	assert.Empty(t, out)
	assert.Equal(t, int64(1), client.ordersCalls.Load(), "un fallo no debe reencolar el item")
}

func TestPool_FreshItemSkipsNetwork(t *testing.T) {
	client := &mockClient{}
	it := &domain.MarketItem{
		URLName:   "loki_prime_set",
		Orders:    spreadOrders(),
		Stats:     domain.StatisticsSnapshot{Points: []domain.VolumePoint{{Volume: 8}}},
		FetchedAt: time.Now(),
	}

	out := runPool(t, client, defaultSettings(), it)

	require.Len(t, out, 1)
	assert.Zero(t, client.ordersCalls.Load(), "snapshot fresco no debe ir a la red")
	assert.Equal(t, 10.0, out[0].Profit)
}

func TestPool_RecordsLastBuyForNextPass(t *testing.T) {
	client := &mockClient{
		orders: map[string][]domain.Order{"nova_prime_set": spreadOrders()},
		stats:  map[string]domain.StatisticsSnapshot{},
	}
	it := &domain.MarketItem{URLName: "nova_prime_set"}

	out := runPool(t, client, defaultSettings(), it)

	require.Len(t, out, 1)
	assert.Equal(t, 50.0, it.LastBuyPrice)
}

func TestPool_PausedWorkersDoNotConsume(t *testing.T) {
	client := &mockClient{}
	queue := scanner.NewQueue(0)
	queue.Push(&domain.MarketItem{URLName: "idle_item"})

	signals := domain.NewSignals() // analyzing queda en false
	rt := scanner.NewRuntime(defaultSettings())
	results := make(chan domain.AnalysisResult, 4)

	pool := scanner.NewPool(testPoolConfig(), client, queue, results, signals, rt, nil)
	pool.Start(context.Background())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, queue.Len(), "con el escaneo pausado la cola no se toca")

	signals.Stop()
	pool.Wait()
}
