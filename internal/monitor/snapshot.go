package monitor

import "time"

// Snapshot is the read-only dashboard view of one Window. Field names match
// the wire format the dashboard polls for.
type Snapshot struct {
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Status       Status   `json:"status"`
	LossRate     float64  `json:"loss_rate"`
	LastCurrent  float64  `json:"last_current"`
	LastAverage  float64  `json:"last_average"`
	LastSequence int      `json:"last_sequence"`
	LastUpdate   *string  `json:"last_update"` // RFC3339; null until first sample
	Sparkline    []Sample `json:"sparkline_data"`
}

// Stats is the fleet-wide aggregate across all Windows.
type Stats struct {
	Total           int     `json:"total"`
	UpCount         int     `json:"up_count"`
	DownCount       int     `json:"down_count"`
	StaleCount      int     `json:"stale_count"`
	UnknownCount    int     `json:"unknown_count"`
	AverageLossRate float64 `json:"average_loss_rate"`
}

// Snapshot builds the read-only view of the named Window with a sparkline of
// at most timeRange samples. The second return is false when no Window exists
// for name.
func (r *Registry) Snapshot(name string, timeRange int) (Snapshot, bool) {
	w, ok := r.Get(name)
	if !ok {
		return Snapshot{}, false
	}
	return buildSnapshot(w, timeRange), true
}

// SnapshotAll builds snapshots for every Window, ordered per OrderedNames.
func (r *Registry) SnapshotAll(preferred []string, timeRange int) []Snapshot {
	names := r.OrderedNames(preferred)
	out := make([]Snapshot, 0, len(names))
	for _, name := range names {
		if w, ok := r.Get(name); ok {
			out = append(out, buildSnapshot(w, timeRange))
		}
	}
	return out
}

// Stats classifies every Window's current status and averages loss rates.
// An empty Registry yields all-zero Stats.
func (r *Registry) Stats() Stats {
	var st Stats
	var lossSum float64
	for _, w := range r.All() {
		st.Total++
		lossSum += w.LossRate()
		switch w.Status() {
		case StatusUp:
			st.UpCount++
		case StatusDown:
			st.DownCount++
		case StatusStale:
			st.StaleCount++
		default:
			st.UnknownCount++
		}
	}
	if st.Total > 0 {
		st.AverageLossRate = lossSum / float64(st.Total)
	}
	return st
}

func buildSnapshot(w *Window, timeRange int) Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	snap := Snapshot{
		Name:         w.name,
		Address:      w.address,
		LossRate:     lossRateLocked(w),
		LastCurrent:  w.lastCurrent,
		LastAverage:  w.lastAverage,
		LastSequence: w.lastSequence,
		Sparkline:    w.history.tail(timeRange),
	}
	if !w.lastUpdate.IsZero() {
		ts := w.lastUpdate.Format(time.RFC3339)
		snap.LastUpdate = &ts
	}
	snap.Status = statusLocked(w)
	return snap
}

// lossRateLocked mirrors Window.LossRate for callers already holding w.mu.
func lossRateLocked(w *Window) float64 {
	total := w.history.len()
	if total == 0 {
		return 0.0
	}
	return float64(w.history.countLosses()) / float64(total) * 100.0
}

// statusLocked mirrors Window.Status for callers already holding w.mu.
func statusLocked(w *Window) Status {
	if w.lastUpdate.IsZero() {
		return StatusUnknown
	}
	if w.now().Sub(w.lastUpdate) > w.staleAfter {
		return StatusStale
	}
	if w.lastCurrent > 0 {
		return StatusUp
	}
	return StatusDown
}
