// Package refresh pulls new probe records from the sample source and feeds
// them into the monitor registry.
//
// The Coordinator is the only writer of window state. It keeps a per-source
// high-water mark (timestamp plus sequence of the last consumed record) so
// that re-reading an overlapping log tail never duplicates history entries:
// only records past the mark are appended. Refresh cycles are serialized, so
// query-triggered refreshes running concurrently never interleave appends.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/probewatch/probewatch/internal/config"
	"github.com/probewatch/probewatch/internal/metrics"
	"github.com/probewatch/probewatch/internal/monitor"
	"github.com/probewatch/probewatch/internal/source"
)

// Source yields probe records per monitored host. *source.Dir implements it;
// tests substitute fakes.
type Source interface {
	// Sources lists the currently available host identifiers.
	Sources() ([]string, error)

	// ReadRecent returns up to max of the newest records for name, in
	// chronological order.
	ReadRecent(name string, max int) ([]source.Record, error)
}

// Evaluator receives the refreshed snapshot of every source that produced new
// records this cycle. The alerts engine implements it.
type Evaluator interface {
	Evaluate(monitor.Snapshot)
}

// mark is the high-water position of the last consumed record for one source.
type mark struct {
	ts  time.Time
	seq int
}

// Coordinator drives refresh cycles: list sources, ensure windows, append new
// records. Safe for concurrent use; cycles run one at a time.
type Coordinator struct {
	src  Source
	reg  *monitor.Registry
	eval Evaluator // may be nil

	mu    sync.Mutex
	marks map[string]mark
}

// New creates a Coordinator feeding reg from src. eval may be nil when no
// alert evaluation is wanted.
func New(src Source, reg *monitor.Registry, eval Evaluator) *Coordinator {
	return &Coordinator{
		src:   src,
		reg:   reg,
		eval:  eval,
		marks: make(map[string]mark),
	}
}

// Refresh runs one full cycle over every available source. The address for a
// newly seen source comes from targets when listed, otherwise the window
// defaults to "unknown". A failure reading one source is logged and skipped;
// only a failure to list sources at all is returned.
func (c *Coordinator) Refresh(ctx context.Context, targets *config.Targets) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	defer func() { metrics.RefreshDuration.Observe(time.Since(start).Seconds()) }()

	names, err := c.src.Sources()
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.refreshSource(name, targets)
	}

	c.publishStatusGauges()
	return nil
}

// refreshSource pulls the newest records for one source and appends those past
// its high-water mark. Caller holds c.mu.
func (c *Coordinator) refreshSource(name string, targets *config.Targets) {
	w := c.reg.Ensure(name, targets.Addr(name))

	records, err := c.src.ReadRecent(name, monitor.HistoryCap)
	if err != nil {
		metrics.SourceReadFailures.WithLabelValues(name).Inc()
		slog.Warn("refresh: source read failed — skipping this cycle",
			"source", name, "err", err)
		return
	}

	m := c.marks[name]
	appended := 0
	for _, rec := range records {
		if !pastMark(rec, m) {
			continue
		}
		s := w.Append(rec.Current, rec.Average, rec.Sequence, rec.Timestamp)
		m = mark{ts: rec.Timestamp, seq: rec.Sequence}
		appended++

		metrics.RecordsIngested.Inc()
		if s.IsLoss {
			metrics.LossesInferred.Inc()
		}
	}
	c.marks[name] = m

	if appended > 0 && c.eval != nil {
		if snap, ok := c.reg.Snapshot(name, 0); ok {
			c.eval.Evaluate(snap)
		}
	}
}

// pastMark reports whether rec lies beyond the high-water mark. A newer
// timestamp always passes, which lets a restarted probe reset its sequence
// counter without being filtered out.
func pastMark(rec source.Record, m mark) bool {
	if rec.Timestamp.After(m.ts) {
		return true
	}
	return rec.Timestamp.Equal(m.ts) && rec.Sequence > m.seq
}

// publishStatusGauges exports the per-status host counts. Caller holds c.mu.
func (c *Coordinator) publishStatusGauges() {
	st := c.reg.Stats()
	metrics.HostsByStatus.WithLabelValues(string(monitor.StatusUp)).Set(float64(st.UpCount))
	metrics.HostsByStatus.WithLabelValues(string(monitor.StatusDown)).Set(float64(st.DownCount))
	metrics.HostsByStatus.WithLabelValues(string(monitor.StatusStale)).Set(float64(st.StaleCount))
	metrics.HostsByStatus.WithLabelValues(string(monitor.StatusUnknown)).Set(float64(st.UnknownCount))
}
