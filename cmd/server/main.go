package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/probewatch/probewatch/internal/alerts"
	"github.com/probewatch/probewatch/internal/api"
	"github.com/probewatch/probewatch/internal/config"
	"github.com/probewatch/probewatch/internal/monitor"
	"github.com/probewatch/probewatch/internal/refresh"
	"github.com/probewatch/probewatch/internal/source"
	"github.com/probewatch/probewatch/internal/ws"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	logDir := flag.String("log-dir", "", "directory containing probe log files (overrides config)")
	targetsFile := flag.String("targets", "", "deadman targets file (overrides config)")
	host := flag.String("host", "", "address to bind the web server to (overrides config)")
	port := flag.Int("port", 0, "port to run the web server on (overrides config)")
	title := flag.String("title", "", "dashboard title (overrides config)")
	uiDir := flag.String("ui-dir", "", "serve dashboard static files from this directory; leave empty to disable")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("probewatch starting", "version", version, "config", *configPath)

	cfg := config.Defaults()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	applyFlagOverrides(cfg, *logDir, *targetsFile, *host, *port, *title)

	if cfg.Server.LogDir == "" {
		slog.Error("no log directory configured: set server.log_dir or pass -log-dir")
		os.Exit(1)
	}
	if _, err := os.Stat(cfg.Server.LogDir); err != nil {
		slog.Error("log directory is not accessible", "dir", cfg.Server.LogDir, "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"log_dir", cfg.Server.LogDir,
		"targets_file", cfg.Server.TargetsFile,
		"stale_after", cfg.Server.StaleAfter,
		"alert_rules", len(cfg.Alerts.Rules),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Target list with hot reload. The atomic pointer lets the watcher swap
	// the list while handlers read it.
	var targets atomic.Pointer[config.Targets]
	if cfg.Server.TargetsFile != "" {
		loaded, err := config.LoadTargets(cfg.Server.TargetsFile)
		if err != nil {
			slog.Warn("targets file not loaded — running without configured targets", "err", err)
		} else {
			slog.Info("targets loaded", "count", loaded.Len())
			targets.Store(loaded)
		}
		go func() {
			if err := config.WatchTargets(ctx, cfg.Server.TargetsFile, func(t *config.Targets) {
				targets.Store(t)
			}); err != nil {
				slog.Warn("targets watcher stopped", "err", err)
			}
		}()
	}
	targetsFn := func() *config.Targets { return targets.Load() }

	// Monitoring state and the refresh pipeline feeding it.
	reg := monitor.NewRegistry(cfg.Server.StaleAfter)

	var alertEngine *alerts.Engine
	if len(cfg.Alerts.Rules) > 0 {
		alertEngine = alerts.New(cfg.Alerts)
	}

	coordinator := refresh.New(source.NewDir(cfg.Server.LogDir), reg, evaluator(alertEngine))

	// Warm the registry before serving so the first poll is not empty.
	if err := coordinator.Refresh(ctx, targetsFn()); err != nil {
		slog.Warn("initial refresh failed", "err", err)
	} else {
		slog.Info("initial refresh complete", "monitors", reg.Len())
	}

	// WebSocket hub — refreshes and pushes the dashboard payload every interval.
	hub := ws.New(reg, coordinator, targetsFn, cfg.Server.SparklineRange, cfg.Server.BroadcastInterval)
	go hub.Run(ctx)

	// Combined HTTP server: REST API + WebSocket hub + Prometheus metrics.
	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", api.New(reg, coordinator, targetsFn, alertEngine, api.Config{
		Title:          cfg.Server.Title,
		Version:        version,
		SparklineRange: cfg.Server.SparklineRange,
	}))
	httpMux.Handle("/ws/stream", hub)
	httpMux.Handle("/metrics", promhttp.Handler())

	// Optional: serve the pre-built dashboard UI from a local directory.
	// The "/" catch-all serves index.html for any unknown path (SPA routing).
	if *uiDir != "" {
		fs := http.FileServer(http.Dir(*uiDir))
		httpMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			path := *uiDir + r.URL.Path
			if _, err := os.Stat(path); os.IsNotExist(err) {
				http.ServeFile(w, r, *uiDir+"/index.html")
				return
			}
			fs.ServeHTTP(w, r)
		})
		slog.Info("serving UI static files", "dir", *uiDir)
	}

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("probewatch shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
}

// applyFlagOverrides lets command line flags win over the config file, so the
// server can run entirely flag-driven without one.
func applyFlagOverrides(cfg *config.Config, logDir, targetsFile, host string, port int, title string) {
	if logDir != "" {
		cfg.Server.LogDir = logDir
	}
	if targetsFile != "" {
		cfg.Server.TargetsFile = targetsFile
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if port > 0 {
		cfg.Server.HTTPPort = port
	}
	if title != "" {
		cfg.Server.Title = title
	}
}

// evaluator adapts a possibly-nil alert engine to the coordinator's
// Evaluator; a nil *Engine inside a non-nil interface would defeat the
// coordinator's nil check.
func evaluator(e *alerts.Engine) refresh.Evaluator {
	if e == nil {
		return nil
	}
	return e
}
