// Package config carga la configuración desde YAML más overrides de
// entorno. Los defaults viven en los tags de struct y la validación
// corre una sola vez al arrancar: una config inválida nunca llega al
// pipeline.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del scanner.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Scanner ScannerConfig `yaml:"scanner"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig controla el cliente HTTP del mercado y su rate limiting.
type APIConfig struct {
	BaseURL  string `yaml:"base_url" default:"https://api.warframe.market/v1" validate:"url"`
	Platform string `yaml:"platform" default:"pc" validate:"oneof=pc ps4 xbox switch"`
	Language string `yaml:"language" default:"en"`
	CacheDir string `yaml:"cache_dir" default:"cache"`

	MemoryTTLSeconds   int     `yaml:"memory_ttl_seconds" default:"300" validate:"gt=0"`
	BaseDelaySeconds   float64 `yaml:"base_delay_seconds" default:"2.0" validate:"gt=0"`
	JitterSeconds      float64 `yaml:"jitter_seconds" default:"1.0" validate:"gte=0"`
	MaxRequestsPerMin  int     `yaml:"max_requests_per_minute" default:"180" validate:"gt=0"`
	MaxRetries         int     `yaml:"max_retries" default:"3" validate:"gte=0"`
	RetryDelaySeconds  float64 `yaml:"retry_delay_seconds" default:"10" validate:"gt=0"`
	RequestTimeoutSecs int     `yaml:"request_timeout_seconds" default:"15" validate:"gt=0"`
}

// ScannerConfig controla el pipeline de análisis y sus thresholds.
type ScannerConfig struct {
	Workers         int `yaml:"workers" default:"4" validate:"gte=1,lte=32"`
	BatchSize       int `yaml:"batch_size" default:"10" validate:"gte=1"`
	FlushIntervalMS int `yaml:"flush_interval_ms" default:"100" validate:"gte=1"`
	QueueCapacity   int `yaml:"queue_capacity" default:"0" validate:"gte=0"`

	ItemTTLSeconds int     `yaml:"item_ttl_seconds" default:"300" validate:"gt=0"`
	Budget         float64 `yaml:"budget" default:"100" validate:"gte=0"`
	MinProfit      float64 `yaml:"min_profit" default:"5" validate:"gte=0"`
	MinROIPercent  float64 `yaml:"min_roi_percent" default:"15" validate:"gte=0"`
	MinDailyVolume float64 `yaml:"min_daily_volume" default:"3" validate:"gte=0"`
}

// MetricsConfig controla el endpoint de Prometheus. Vacío = apagado.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"text" validate:"oneof=text json"`
}

// Load carga la configuración desde el archivo YAML y el .env si existe.
// Una key desconocida en el YAML es un error: los typos fallan al
// arrancar, no en silencio. path vacío usa solo los defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	// Defaults primero, YAML después: el archivo pisa los defaults y un
	// cero explícito (budget: 0 = sin tope) se respeta en vez de volver
	// al valor por defecto.
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}

		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse %q: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: validate: %w", err)
	}

	return &cfg, nil
}

// MemoryTTL devuelve el TTL de la caché en memoria como Duration.
func (c *Config) MemoryTTL() time.Duration {
	return time.Duration(c.API.MemoryTTLSeconds) * time.Second
}

// ItemTTL devuelve el TTL del snapshot de cada item como Duration.
func (c *Config) ItemTTL() time.Duration {
	return time.Duration(c.Scanner.ItemTTLSeconds) * time.Second
}

// BaseDelay devuelve el delay base entre requests como Duration.
func (c *Config) BaseDelay() time.Duration {
	return time.Duration(c.API.BaseDelaySeconds * float64(time.Second))
}

// Jitter devuelve el jitter máximo entre requests como Duration.
func (c *Config) Jitter() time.Duration {
	return time.Duration(c.API.JitterSeconds * float64(time.Second))
}

// RetryDelay devuelve el delay base de reintento post-429 como Duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.API.RetryDelaySeconds * float64(time.Second))
}

// RequestTimeout devuelve el timeout por request HTTP como Duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.RequestTimeoutSecs) * time.Second
}

// FlushInterval devuelve el intervalo de flush del aggregator.
func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.Scanner.FlushIntervalMS) * time.Millisecond
}

// applyEnvOverrides sobreescribe valores con variables de entorno.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("PLATBOT_PLATFORM"); v != "" {
		cfg.API.Platform = v
	}
	if v := os.Getenv("PLATBOT_CACHE_DIR"); v != "" {
		cfg.API.CacheDir = v
	}
	if v := os.Getenv("PLATBOT_BUDGET"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Scanner.Budget = f
		}
	}
}
