package refresh

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/probewatch/probewatch/internal/config"
	"github.com/probewatch/probewatch/internal/monitor"
	"github.com/probewatch/probewatch/internal/source"
)

// fakeSource serves canned records per host and can fail selectively.
type fakeSource struct {
	records  map[string][]source.Record
	failList bool
	failRead map[string]bool
}

func (f *fakeSource) Sources() ([]string, error) {
	if f.failList {
		return nil, errors.New("boom")
	}
	// Deterministic order for assertions.
	names := make([]string, 0, len(f.records))
	for _, n := range []string{"A", "B", "C", "a", "b", "c", "host-1", "host-2"} {
		if _, ok := f.records[n]; ok {
			names = append(names, n)
		}
	}
	return names, nil
}

func (f *fakeSource) ReadRecent(name string, max int) ([]source.Record, error) {
	if f.failRead[name] {
		return nil, errors.New("unreadable")
	}
	recs := f.records[name]
	if len(recs) > max {
		recs = recs[len(recs)-max:]
	}
	return recs, nil
}

// recordingEvaluator captures snapshots passed to Evaluate.
type recordingEvaluator struct {
	snaps []monitor.Snapshot
}

func (r *recordingEvaluator) Evaluate(s monitor.Snapshot) { r.snaps = append(r.snaps, s) }

func rec(ts time.Time, current float64, seq int) source.Record {
	return source.Record{Timestamp: ts, Current: current, Average: current, Sequence: seq}
}

func targetsFile(t *testing.T, content string) *config.Targets {
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

func TestRefresh_CreatesWindowsWithTargetAddresses(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{records: map[string][]source.Record{
		"B": {rec(base, 1.5, 1)},
		"C": {rec(base, 2.5, 1)},
	}}
	reg := monitor.NewRegistry(monitor.DefaultStaleAfter)
	co := New(src, reg, nil)

	targets := targetsFile(t, "A\t1.1.1.1\nB\t2.2.2.2\n")
	if err := co.Refresh(context.Background(), targets); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// A never appeared as a source, so it has no window.
	if _, ok := reg.Get("A"); ok {
		t.Error("target A without data: expected no window")
	}

	b, ok := reg.Get("B")
	if !ok {
		t.Fatal("expected window for B")
	}
	if b.Address() != "2.2.2.2" {
		t.Errorf("B address: got %q, want 2.2.2.2", b.Address())
	}

	c, _ := reg.Get("C")
	if c.Address() != "unknown" {
		t.Errorf("C address: got %q, want unknown", c.Address())
	}

	names := reg.OrderedNames(targets.Names())
	if len(names) != 2 || names[0] != "B" || names[1] != "C" {
		t.Errorf("ordered names: got %v, want [B C]", names)
	}
}

func TestRefresh_OverlappingTailNotDuplicated(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tail := []source.Record{
		rec(base, 1.0, 1),
		rec(base.Add(time.Second), 2.0, 2),
		rec(base.Add(2*time.Second), 3.0, 3),
	}
	src := &fakeSource{records: map[string][]source.Record{"host-1": tail}}
	reg := monitor.NewRegistry(monitor.DefaultStaleAfter)
	co := New(src, reg, nil)

	for i := 0; i < 3; i++ {
		if err := co.Refresh(context.Background(), nil); err != nil {
			t.Fatalf("Refresh #%d: %v", i, err)
		}
	}

	w, _ := reg.Get("host-1")
	if w.Len() != 3 {
		t.Errorf("history after re-reading same tail 3 times: got %d entries, want 3", w.Len())
	}
}

func TestRefresh_AppendsOnlyNewRecords(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{records: map[string][]source.Record{
		"host-1": {rec(base, 1.0, 1), rec(base.Add(time.Second), 2.0, 2)},
	}}
	reg := monitor.NewRegistry(monitor.DefaultStaleAfter)
	co := New(src, reg, nil)

	if err := co.Refresh(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	// The tail window shifts: one old record drops out, two new arrive.
	src.records["host-1"] = []source.Record{
		rec(base.Add(time.Second), 2.0, 2),
		rec(base.Add(2*time.Second), 3.0, 3),
		rec(base.Add(3*time.Second), 4.0, 4),
	}
	if err := co.Refresh(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	w, _ := reg.Get("host-1")
	if w.Len() != 4 {
		t.Fatalf("history: got %d entries, want 4", w.Len())
	}
	all := w.Sparkline(10)
	for i, wantSeq := range []int{1, 2, 3, 4} {
		if all[i].Sequence != wantSeq {
			t.Errorf("entry %d: got seq %d, want %d", i, all[i].Sequence, wantSeq)
		}
	}
}

func TestRefresh_SequenceResetAccepted(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{records: map[string][]source.Record{
		"host-1": {rec(base, 1.0, 500)},
	}}
	reg := monitor.NewRegistry(monitor.DefaultStaleAfter)
	co := New(src, reg, nil)
	if err := co.Refresh(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	// Probe restarted: sequence resets to 1 but the timestamp moves forward.
	src.records["host-1"] = []source.Record{rec(base.Add(time.Minute), 1.0, 1)}
	if err := co.Refresh(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	w, _ := reg.Get("host-1")
	if w.Len() != 2 {
		t.Errorf("history after sequence reset: got %d entries, want 2", w.Len())
	}
}

func TestRefresh_OneFailingSourceDoesNotAbortOthers(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{
		records: map[string][]source.Record{
			"host-1": {rec(base, 1.0, 1)},
			"host-2": {rec(base, 2.0, 1)},
		},
		failRead: map[string]bool{"host-1": true},
	}
	reg := monitor.NewRegistry(monitor.DefaultStaleAfter)
	co := New(src, reg, nil)

	if err := co.Refresh(context.Background(), nil); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	w2, ok := reg.Get("host-2")
	if !ok || w2.Len() != 1 {
		t.Error("healthy source must still be ingested when a sibling fails")
	}
	// The failing source still gets a window (it exists as a source), just no data.
	w1, ok := reg.Get("host-1")
	if !ok || w1.Len() != 0 {
		t.Error("failing source: expected an empty window")
	}
}

func TestRefresh_ListFailure(t *testing.T) {
	src := &fakeSource{failList: true}
	co := New(src, monitor.NewRegistry(monitor.DefaultStaleAfter), nil)
	if err := co.Refresh(context.Background(), nil); err == nil {
		t.Error("Refresh with failing source listing: expected error")
	}
}

func TestRefresh_EvaluatorSeesUpdatedSources(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{records: map[string][]source.Record{
		"host-1": {rec(base, 0, 1)}, // a loss
	}}
	reg := monitor.NewRegistry(monitor.DefaultStaleAfter)
	eval := &recordingEvaluator{}
	co := New(src, reg, eval)

	if err := co.Refresh(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if len(eval.snaps) != 1 {
		t.Fatalf("Evaluate calls: got %d, want 1", len(eval.snaps))
	}
	if eval.snaps[0].Name != "host-1" || eval.snaps[0].LossRate != 100.0 {
		t.Errorf("snapshot: got %+v", eval.snaps[0])
	}

	// Nothing new on the next cycle: no evaluation.
	if err := co.Refresh(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if len(eval.snaps) != 1 {
		t.Errorf("Evaluate calls after idle cycle: got %d, want 1", len(eval.snaps))
	}
}

func TestRefresh_CancelledContext(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{records: map[string][]source.Record{
		"host-1": {rec(base, 1.0, 1)},
	}}
	co := New(src, monitor.NewRegistry(monitor.DefaultStaleAfter), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := co.Refresh(ctx, nil); err == nil {
		t.Error("Refresh with cancelled context: expected error")
	}
}
