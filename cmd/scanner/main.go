package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alejandrodnm/platbot/config"
	"github.com/alejandrodnm/platbot/internal/adapters/notify"
	"github.com/alejandrodnm/platbot/internal/adapters/wfmarket"
	"github.com/alejandrodnm/platbot/internal/domain"
	"github.com/alejandrodnm/platbot/internal/metrics"
	"github.com/alejandrodnm/platbot/internal/scanner"
)

func main() {
	configPath := flag.String("config", "", "path to config file (empty = defaults)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	showAll := flag.Bool("all", false, "print every analyzed item, not only profitable ones")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("platbot starting",
		"platform", cfg.API.Platform,
		"workers", cfg.Scanner.Workers,
		"budget", cfg.Scanner.Budget,
	)

	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)
	if cfg.Metrics.ListenAddr != "" {
		go serveMetrics(cfg.Metrics.ListenAddr, reg)
	}

	client, err := wfmarket.NewClient(wfmarket.Config{
		BaseURL:    cfg.API.BaseURL,
		Platform:   cfg.API.Platform,
		Language:   cfg.API.Language,
		CacheDir:   cfg.API.CacheDir,
		MemoryTTL:  cfg.MemoryTTL(),
		BaseDelay:  cfg.BaseDelay(),
		Jitter:     cfg.Jitter(),
		MaxPerMin:  cfg.API.MaxRequestsPerMin,
		MaxRetries: cfg.API.MaxRetries,
		RetryDelay: cfg.RetryDelay(),
		Timeout:    cfg.RequestTimeout(),
	}, rec)
	if err != nil {
		slog.Error("failed to build market client", "err", err)
		os.Exit(1)
	}

	rt := scanner.NewRuntime(scanner.Settings{
		Budget:  cfg.Scanner.Budget,
		ItemTTL: cfg.ItemTTL(),
		Thresholds: domain.Thresholds{
			MinProfit:      cfg.Scanner.MinProfit,
			MinROIPercent:  cfg.Scanner.MinROIPercent,
			MinDailyVolume: cfg.Scanner.MinDailyVolume,
		},
	})

	console := notify.NewConsole(func() domain.Thresholds {
		return rt.Load().Thresholds
	}, *showAll)

	scanCfg := scanner.DefaultConfig()
	scanCfg.Pool.Workers = cfg.Scanner.Workers
	scanCfg.Aggregator.BatchSize = cfg.Scanner.BatchSize
	scanCfg.Aggregator.FlushInterval = cfg.FlushInterval()
	scanCfg.QueueCapacity = cfg.Scanner.QueueCapacity

	s := scanner.New(scanCfg, client, console, console, rt, rec)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if n := s.LoadCatalog(ctx); n == 0 {
		slog.Warn("catalog empty, nothing to scan yet")
	}

	s.StartAnalysis()
	s.Run(ctx)

	slog.Info("platbot stopped cleanly")
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Warn("metrics server stopped", "err", err)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
