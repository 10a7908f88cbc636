package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/probewatch/probewatch/internal/api"
	"github.com/probewatch/probewatch/internal/config"
	"github.com/probewatch/probewatch/internal/monitor"
)

// --- test helpers -----------------------------------------------------------

// countingRefresher records how often Refresh is called.
type countingRefresher struct {
	calls int
}

func (c *countingRefresher) Refresh(ctx context.Context, targets *config.Targets) error {
	c.calls++
	return nil
}

func newRegistry(t *testing.T) *monitor.Registry {
	t.Helper()
	return monitor.NewRegistry(monitor.DefaultStaleAfter)
}

// targetsFromLines writes content to a temp targets file and parses it.
func targetsFromLines(t *testing.T, content string) *config.Targets {
	t.Helper()
	path := filepath.Join(t.TempDir(), "targets")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	targets, err := config.LoadTargets(path)
	if err != nil {
		t.Fatal(err)
	}
	return targets
}

func newHandler(reg *monitor.Registry, ref api.Refresher) *api.Handler {
	return api.New(reg, ref, nil, nil, api.Config{Title: "test", Version: "dev"})
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

// --- /api/v1/monitors -------------------------------------------------------

func TestListMonitors_Empty(t *testing.T) {
	h := newHandler(newRegistry(t), nil)
	rr := get(t, h, "/api/v1/monitors")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var snaps []monitor.Snapshot
	decode(t, rr, &snaps)
	if len(snaps) != 0 {
		t.Errorf("monitors: got %d, want 0", len(snaps))
	}
}

func TestListMonitors_TriggersRefresh(t *testing.T) {
	ref := &countingRefresher{}
	h := newHandler(newRegistry(t), ref)

	get(t, h, "/api/v1/monitors")
	get(t, h, "/api/v1/monitors")

	if ref.calls != 2 {
		t.Errorf("refresh calls: got %d, want 2", ref.calls)
	}
}

func TestListMonitors_SnapshotFields(t *testing.T) {
	reg := newRegistry(t)
	w := reg.Ensure("edge-1", "192.0.2.10")
	w.Append(3.5, 3.2, 11, time.Now())

	rr := get(t, newHandler(reg, nil), "/api/v1/monitors")
	var snaps []monitor.Snapshot
	decode(t, rr, &snaps)

	if len(snaps) != 1 {
		t.Fatalf("monitors: got %d, want 1", len(snaps))
	}
	s := snaps[0]
	if s.Name != "edge-1" || s.Address != "192.0.2.10" {
		t.Errorf("identity: got %q/%q", s.Name, s.Address)
	}
	if s.Status != monitor.StatusUp {
		t.Errorf("status: got %q, want up", s.Status)
	}
	if len(s.Sparkline) != 1 {
		t.Errorf("sparkline: got %d entries, want 1", len(s.Sparkline))
	}
}

func TestListMonitors_TimeRangeParam(t *testing.T) {
	reg := newRegistry(t)
	w := reg.Ensure("edge-1", "")
	now := time.Now()
	for seq := 1; seq <= 50; seq++ {
		w.Append(1, 1, seq, now.Add(time.Duration(seq)*time.Second))
	}

	rr := get(t, newHandler(reg, nil), "/api/v1/monitors?time_range=5")
	var snaps []monitor.Snapshot
	decode(t, rr, &snaps)
	if len(snaps[0].Sparkline) != 5 {
		t.Errorf("sparkline with time_range=5: got %d entries", len(snaps[0].Sparkline))
	}

	// Garbage falls back to the default, not an error.
	rr = get(t, newHandler(reg, nil), "/api/v1/monitors?time_range=banana")
	if rr.Code != http.StatusOK {
		t.Errorf("status with bad time_range: got %d, want 200", rr.Code)
	}
}

func TestMonitors_MethodNotAllowed(t *testing.T) {
	h := newHandler(newRegistry(t), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/monitors", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}

// --- /api/v1/monitors/{name} ------------------------------------------------

func TestGetMonitor_Found(t *testing.T) {
	reg := newRegistry(t)
	reg.Ensure("edge-1", "192.0.2.10").Append(2.0, 2.0, 1, time.Now())

	rr := get(t, newHandler(reg, nil), "/api/v1/monitors/edge-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var snap monitor.Snapshot
	decode(t, rr, &snap)
	if snap.Name != "edge-1" {
		t.Errorf("name: got %q", snap.Name)
	}
}

func TestGetMonitor_NotFound(t *testing.T) {
	rr := get(t, newHandler(newRegistry(t), nil), "/api/v1/monitors/ghost")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
	var resp map[string]string
	decode(t, rr, &resp)
	if resp["error"] == "" {
		t.Error("expected a JSON error body")
	}
}

func TestGetMonitor_BareSlashFallsBackToList(t *testing.T) {
	rr := get(t, newHandler(newRegistry(t), nil), "/api/v1/monitors/")
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rr.Code)
	}
}

// --- /api/v1/stats ----------------------------------------------------------

func TestStats_EmptyRegistry(t *testing.T) {
	rr := get(t, newHandler(newRegistry(t), nil), "/api/v1/stats")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var st monitor.Stats
	decode(t, rr, &st)
	if st.Total != 0 || st.AverageLossRate != 0.0 {
		t.Errorf("stats: got %+v, want zeros", st)
	}
}

func TestStats_Counts(t *testing.T) {
	reg := newRegistry(t)
	reg.Ensure("up-1", "").Append(1.0, 1.0, 1, time.Now())
	reg.Ensure("quiet", "")

	rr := get(t, newHandler(reg, nil), "/api/v1/stats")
	var st monitor.Stats
	decode(t, rr, &st)
	if st.Total != 2 || st.UpCount != 1 || st.UnknownCount != 1 {
		t.Errorf("stats: got %+v", st)
	}
}

// --- /api/v1/health ---------------------------------------------------------

func TestHealth(t *testing.T) {
	reg := newRegistry(t)
	reg.Ensure("a", "")

	rr := get(t, newHandler(reg, nil), "/api/v1/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.HealthResponse
	decode(t, rr, &resp)
	if resp.Status != "ok" || resp.Title != "test" || resp.MonitorCount != 1 {
		t.Errorf("health: got %+v", resp)
	}
}

// --- /api/v1/alerts ---------------------------------------------------------

func TestAlerts_NoEngineConfigured(t *testing.T) {
	rr := get(t, newHandler(newRegistry(t), nil), "/api/v1/alerts")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var list []interface{}
	decode(t, rr, &list)
	if len(list) != 0 {
		t.Errorf("alerts: got %d, want 0", len(list))
	}
}

// --- /api/v1/snapshot -------------------------------------------------------

func TestSnapshot_CombinedPayload(t *testing.T) {
	reg := newRegistry(t)
	reg.Ensure("edge-1", "").Append(1.0, 1.0, 1, time.Now())

	rr := get(t, newHandler(reg, nil), "/api/v1/snapshot")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.DashboardResponse
	decode(t, rr, &resp)
	if len(resp.Monitors) != 1 || resp.Stats.Total != 1 {
		t.Errorf("snapshot: got %+v", resp)
	}
	if resp.GeneratedAt == "" {
		t.Error("generated_at must be set")
	}
}

// --- ordering through the handler -------------------------------------------

func TestListMonitors_ConfiguredOrder(t *testing.T) {
	reg := newRegistry(t)
	reg.Ensure("zulu", "")
	reg.Ensure("alpha", "")

	targets := targetsFromLines(t, "alpha\t1.1.1.1\n")
	h := api.New(reg, nil, func() *config.Targets { return targets }, nil, api.Config{})

	rr := get(t, h, "/api/v1/monitors")
	var snaps []monitor.Snapshot
	decode(t, rr, &snaps)
	if len(snaps) != 2 || snaps[0].Name != "alpha" || snaps[1].Name != "zulu" {
		t.Errorf("order: got %v", []string{snaps[0].Name, snaps[1].Name})
	}
}
