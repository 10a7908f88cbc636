package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/probewatch/probewatch/internal/alerts"
	"github.com/probewatch/probewatch/internal/config"
	"github.com/probewatch/probewatch/internal/metrics"
	"github.com/probewatch/probewatch/internal/monitor"
)

// Refresher triggers a refresh cycle before a read. *refresh.Coordinator
// implements it; tests substitute fakes.
type Refresher interface {
	Refresh(ctx context.Context, targets *config.Targets) error
}

// TargetsFunc returns the currently active target list. It is a func rather
// than a value so the fsnotify watcher can swap the list at runtime.
type TargetsFunc func() *config.Targets

// Config carries the handler's presentation settings.
type Config struct {
	// Title is the dashboard display name reported by /health.
	Title string

	// Version is the build version reported by /health.
	Version string

	// SparklineRange is the sparkline size used when the client does not
	// pass ?time_range.
	SparklineRange int
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	reg     *monitor.Registry
	ref     Refresher
	targets TargetsFunc
	alerts  *alerts.Engine // may be nil
	cfg     Config
	started time.Time
	mux     *http.ServeMux
}

// New creates a Handler wired to the given registry and refresher and
// registers all routes. eng may be nil when alerting is not configured.
func New(reg *monitor.Registry, ref Refresher, targets TargetsFunc, eng *alerts.Engine, cfg Config) *Handler {
	if cfg.SparklineRange <= 0 {
		cfg.SparklineRange = config.DefaultSparklineRange
	}
	if targets == nil {
		targets = func() *config.Targets { return nil }
	}
	h := &Handler{
		reg:     reg,
		ref:     ref,
		targets: targets,
		alerts:  eng,
		cfg:     cfg,
		started: time.Now(),
		mux:     http.NewServeMux(),
	}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/monitors", h.listMonitors)
	h.mux.HandleFunc("/api/v1/monitors/", h.getMonitor) // subtree — extracts {name}
	h.mux.HandleFunc("/api/v1/stats", h.stats)
	h.mux.HandleFunc("/api/v1/alerts", h.listAlerts)
	h.mux.HandleFunc("/api/v1/snapshot", h.snapshot)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.mux.ServeHTTP(rec, r)

	endpoint := routeLabel(r.URL.Path)
	metrics.HTTPRequests.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
	metrics.HTTPDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health — service liveness and identity.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Title:         h.cfg.Title,
		Version:       h.cfg.Version,
		MonitorCount:  h.reg.Len(),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	})
}

// listMonitors returns GET /api/v1/monitors — all monitor snapshots in
// configured order, sparklines sized by ?time_range.
func (h *Handler) listMonitors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	targets := h.targets()
	h.refresh(r.Context(), targets)
	snaps := h.reg.SnapshotAll(targets.Names(), h.timeRange(r))
	jsonResp(w, http.StatusOK, snaps)
}

// getMonitor returns GET /api/v1/monitors/{name} — a single monitor snapshot.
func (h *Handler) getMonitor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/v1/monitors/")
	if name == "" {
		// Redirect bare /api/v1/monitors/ to the list handler.
		h.listMonitors(w, r)
		return
	}

	h.refresh(r.Context(), h.targets())
	snap, ok := h.reg.Snapshot(name, h.timeRange(r))
	if !ok {
		jsonErr(w, http.StatusNotFound, "monitor not found")
		return
	}
	jsonResp(w, http.StatusOK, snap)
}

// stats returns GET /api/v1/stats — fleet-wide aggregate counts.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	h.refresh(r.Context(), h.targets())
	jsonResp(w, http.StatusOK, h.reg.Stats())
}

// listAlerts returns GET /api/v1/alerts — firing and recently resolved alerts.
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.alerts == nil {
		jsonResp(w, http.StatusOK, []*alerts.Alert{})
		return
	}
	jsonResp(w, http.StatusOK, h.alerts.Active())
}

// snapshot returns GET /api/v1/snapshot — the full dashboard payload.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK,
		BuildDashboard(r.Context(), h.reg, h.ref, h.targets(), h.timeRange(r)))
}

// --- helpers ----------------------------------------------------------------

// refresh runs one refresh cycle, logging (not surfacing) failures: the read
// still answers from whatever state the registry already holds.
func (h *Handler) refresh(ctx context.Context, targets *config.Targets) {
	if h.ref == nil {
		return
	}
	if err := h.ref.Refresh(ctx, targets); err != nil {
		slog.Warn("api: refresh failed — serving existing state", "err", err)
	}
}

// timeRange reads ?time_range, clamped to [1, HistoryCap]. Falls back to the
// configured default when absent or unparseable.
func (h *Handler) timeRange(r *http.Request) int {
	raw := r.URL.Query().Get("time_range")
	if raw == "" {
		return h.cfg.SparklineRange
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return h.cfg.SparklineRange
	}
	if n > monitor.HistoryCap {
		return monitor.HistoryCap
	}
	return n
}

// BuildDashboard refreshes and assembles the combined dashboard payload. The
// WebSocket hub uses it for every broadcast tick; the /snapshot endpoint
// serves the same shape.
func BuildDashboard(ctx context.Context, reg *monitor.Registry, ref Refresher, targets *config.Targets, timeRange int) DashboardResponse {
	if ref != nil {
		if err := ref.Refresh(ctx, targets); err != nil {
			slog.Warn("api: refresh failed — serving existing state", "err", err)
		}
	}
	return DashboardResponse{
		Monitors:    reg.SnapshotAll(targets.Names(), timeRange),
		Stats:       reg.Stats(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// routeLabel collapses per-monitor paths to one route pattern so the metric
// label set stays bounded no matter how many hosts are monitored.
func routeLabel(path string) string {
	if strings.HasPrefix(path, "/api/v1/monitors/") && path != "/api/v1/monitors/" {
		return "/api/v1/monitors/{name}"
	}
	return path
}

// statusRecorder captures the response status for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
