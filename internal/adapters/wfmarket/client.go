package wfmarket

// client.go — cliente HTTP de warframe.market con rate limiting adaptativo
// y caché de dos niveles (memoria + disco).
//
// El limiter es uno solo y lo comparten todos los workers del pool: las
// llamadas salientes quedan efectivamente serializadas sin importar
// cuántos workers estén activos. La ganancia del pool es el pipelining
// (un worker analiza mientras otro espera I/O), no el throughput de red.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejandrodnm/platbot/internal/cache"
	"github.com/alejandrodnm/platbot/internal/domain"
	"github.com/alejandrodnm/platbot/internal/metrics"
)

const (
	defaultBaseURL = "https://api.warframe.market/v1"

	catalogKey    = "items_list"
	statsKeyPref  = "stats_"
	catalogMaxAge = 24 * time.Hour
	// diskMaxAge es el techo fijo de staleness del nivel de disco para
	// órdenes; también gobierna el prune al arrancar.
	diskMaxAge = time.Hour
)

// Config son los parámetros del cliente, todos con default sensato en cero.
type Config struct {
	BaseURL    string
	Platform   string
	Language   string
	UserAgent  string
	CacheDir   string
	MemoryTTL  time.Duration // TTL del nivel en memoria (órdenes y stats)
	BaseDelay  time.Duration
	Jitter     time.Duration
	MaxPerMin  int
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// Client habla con los tres endpoints de lectura del mercado honrando el
// spacing global entre requests y los dos niveles de caché.
type Client struct {
	http      *http.Client
	baseURL   string
	platform  string
	language  string
	userAgent string

	limiter  *Limiter
	memOrd   *cache.Memory[[]domain.Order]
	memStats *cache.Memory[domain.StatisticsSnapshot]
	disk     *cache.Disk

	maxRetries int
	retryDelay time.Duration
	rec        *metrics.Recorder
}

// NewClient crea el cliente, asegura el directorio de caché y poda los
// archivos viejos.
func NewClient(cfg Config, rec *metrics.Recorder) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Platform == "" {
		cfg.Platform = "pc"
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "platbot/1.0 (+github.com/alejandrodnm/platbot)"
	}
	if cfg.MemoryTTL <= 0 {
		cfg.MemoryTTL = 5 * time.Minute
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 2 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 10 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if rec == nil {
		rec = metrics.Nop()
	}

	disk, err := cache.NewDisk(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("wfmarket.NewClient: %w", err)
	}
	// El catálogo queda exento del prune: su TTL es de 24h y se chequea
	// en cada Load, no con el techo de 1h de las órdenes.
	disk.Prune(diskMaxAge, catalogKey)

	return &Client{
		http:       &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		platform:   cfg.Platform,
		language:   cfg.Language,
		userAgent:  cfg.UserAgent,
		limiter:    NewLimiter(cfg.BaseDelay, cfg.Jitter, cfg.MaxPerMin),
		memOrd:     cache.NewMemory[[]domain.Order](cfg.MemoryTTL),
		memStats:   cache.NewMemory[domain.StatisticsSnapshot](cfg.MemoryTTL),
		disk:       disk,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		rec:        rec,
	}, nil
}

// FetchCatalog devuelve el directorio completo de items. Va a disco con
// TTL de 24h; un fallo devuelve directorio vacío y loguea, no es fatal.
func (c *Client) FetchCatalog(ctx context.Context) []domain.CatalogEntry {
	var pl catalogPayload
	if _, err := c.disk.Load(catalogKey, catalogMaxAge, &pl); err == nil {
		c.rec.CacheHit("disk")
		return mapCatalog(pl.Items)
	} else if errors.Is(err, cache.ErrCorrupt) {
		slog.Warn("catalog cache corrupt, refetching", "err", err)
	}
	c.rec.CacheMiss("disk")

	var fresh catalogPayload
	if err := c.get(ctx, "/items", &fresh); err != nil {
		slog.Warn("catalog fetch failed", "err", err)
		return nil
	}

	if err := c.disk.Store(catalogKey, fresh); err != nil {
		slog.Warn("catalog cache write failed", "err", err)
	}
	return mapCatalog(fresh.Items)
}

// FetchOrders devuelve las órdenes activas de un item. Orden de consulta:
// memoria → disco (techo fijo de 1h) → red. Una respuesta exitosa puebla
// ambos niveles.
func (c *Client) FetchOrders(ctx context.Context, key string) ([]domain.Order, error) {
	if orders, err := c.memOrd.Get(key); err == nil {
		c.rec.CacheHit("memory")
		return orders, nil
	}
	c.rec.CacheMiss("memory")

	var pl ordersPayload
	if storedAt, err := c.disk.Load(key, diskMaxAge, &pl); err == nil {
		c.rec.CacheHit("disk")
		orders := mapOrders(pl.Orders)
		// Promover a memoria conservando la edad real de la entrada.
		c.memOrd.SetWithTime(key, orders, storedAt)
		return orders, nil
	} else if errors.Is(err, cache.ErrCorrupt) {
		slog.Warn("orders cache corrupt, treating as miss", "item", key, "err", err)
	}
	c.rec.CacheMiss("disk")

	var fresh ordersPayload
	if err := c.get(ctx, "/items/"+key+"/orders", &fresh); err != nil {
		return nil, fmt.Errorf("wfmarket.FetchOrders: %s: %w", key, err)
	}

	orders := mapOrders(fresh.Orders)
	c.memOrd.Set(key, orders)
	if err := c.disk.Store(key, fresh); err != nil {
		slog.Warn("orders cache write failed", "item", key, "err", err)
	}
	return orders, nil
}

// FetchStatistics devuelve la ventana reciente de volumen. Misma política
// de memoria que las órdenes; las estadísticas no persisten a disco.
func (c *Client) FetchStatistics(ctx context.Context, key string) (domain.StatisticsSnapshot, error) {
	if stats, err := c.memStats.Get(statsKeyPref + key); err == nil {
		c.rec.CacheHit("memory")
		return stats, nil
	}
	c.rec.CacheMiss("memory")

	var pl statisticsPayload
	if err := c.get(ctx, "/items/"+key+"/statistics", &pl); err != nil {
		return domain.StatisticsSnapshot{}, fmt.Errorf("wfmarket.FetchStatistics: %s: %w", key, err)
	}

	stats := mapStatistics(pl.StatisticsClosed.Hours48)
	c.memStats.Set(statsKeyPref+key, stats)
	return stats, nil
}

// SetMemoryTTL propaga un cambio de configuración en caliente a ambas
// cachés en memoria.
func (c *Client) SetMemoryTTL(ttl time.Duration) {
	c.memOrd.SetTTL(ttl)
	c.memStats.SetTTL(ttl)
}

// SetBaseDelay propaga un cambio del spacing base al limiter compartido.
func (c *Client) SetBaseDelay(d time.Duration) {
	c.limiter.SetBase(d)
}

// get ejecuta un GET contra el API con rate limiting y retry acotado ante
// throttling. Cualquier otro error corta sin reintentar: el caller trata
// la ausencia como "probar más tarde".
func (c *Client) get(ctx context.Context, path string, out any) error {
	endpoint := endpointLabel(path)

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Platform", c.platform)
		req.Header.Set("Language", c.language)
		req.Header.Set("User-Agent", c.userAgent)

		c.rec.APIRequest(endpoint)
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("request %s: %w", path, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			c.limiter.RecordFailure()
			c.rec.APIThrottled()
			if attempt == c.maxRetries {
				return fmt.Errorf("throttled after %d attempts", attempt+1)
			}
			wait := c.retryDelay * time.Duration(attempt+1)
			slog.Warn("rate limited by API, backing off",
				"path", path,
				"attempt", attempt+1,
				"wait", wait,
			)
			if err := sleepCtx(ctx, wait); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("http %d for %s: %s", resp.StatusCode, path, string(body))
		}

		var env envelope
		err = json.NewDecoder(resp.Body).Decode(&env)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode envelope %s: %w", path, err)
		}

		c.limiter.RecordSuccess()

		// payload ausente o null es resultado vacío, no error.
		if len(env.Payload) == 0 || string(env.Payload) == "null" {
			return nil
		}
		if err := json.Unmarshal(env.Payload, out); err != nil {
			return fmt.Errorf("decode payload %s: %w", path, err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d attempts for %s", c.maxRetries+1, path)
}

// endpointLabel reduce un path con clave de item a su familia de endpoint
// para no explotar la cardinalidad de las métricas.
func endpointLabel(path string) string {
	if path == "/items" {
		return "catalog"
	}
	if len(path) > 7 && path[len(path)-7:] == "/orders" {
		return "orders"
	}
	if len(path) > 11 && path[len(path)-11:] == "/statistics" {
		return "statistics"
	}
	return "other"
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
