package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/platbot/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.warframe.market/v1", cfg.API.BaseURL)
	assert.Equal(t, "pc", cfg.API.Platform)
	assert.Equal(t, 4, cfg.Scanner.Workers)
	assert.Equal(t, 10, cfg.Scanner.BatchSize)
	assert.Equal(t, 100.0, cfg.Scanner.Budget)
	assert.Equal(t, 15.0, cfg.Scanner.MinROIPercent)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 2*time.Second, cfg.BaseDelay())
	assert.Equal(t, 100*time.Millisecond, cfg.FlushInterval())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
api:
  platform: ps4
  base_delay_seconds: 1.5
scanner:
  workers: 8
  budget: 250
log:
  level: debug
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ps4", cfg.API.Platform)
	assert.Equal(t, 1500*time.Millisecond, cfg.BaseDelay())
	assert.Equal(t, 8, cfg.Scanner.Workers)
	assert.Equal(t, 250.0, cfg.Scanner.Budget)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Lo no mencionado conserva el default.
	assert.Equal(t, 10, cfg.Scanner.BatchSize)
}

func TestLoad_ExplicitZeroRespected(t *testing.T) {
	path := writeConfig(t, `
api:
  jitter_seconds: 0
scanner:
  budget: 0
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	// budget 0 significa "sin tope"; el default no debe pisarlo.
	assert.Equal(t, 0.0, cfg.Scanner.Budget)
	assert.Equal(t, 0.0, cfg.API.JitterSeconds)
}

func TestLoad_UnknownKeyFails(t *testing.T) {
	path := writeConfig(t, `
scanner:
  wrokers: 8
`)

	_, err := config.Load(path)
	assert.Error(t, err, "un typo en una key debe fallar al arrancar")
}

func TestLoad_InvalidValuesFail(t *testing.T) {
	cases := map[string]string{
		"platform desconocida":   "api:\n  platform: dreamcast\n",
		"workers fuera de rango": "scanner:\n  workers: 100\n",
		"log level inválido":     "log:\n  level: chatty\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("PLATBOT_BUDGET", "42.5")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 42.5, cfg.Scanner.Budget)
}
