package monitor

import (
	"sync"
	"time"
)

// HistoryCap is the number of samples a Window retains. At one probe per
// second this covers ten minutes of history.
const HistoryCap = 600

// DefaultStaleAfter is how long a host may go without a new sample before it
// is reported as stale instead of up/down.
const DefaultStaleAfter = 5 * time.Second

// Status is the derived liveness classification of a monitored host.
type Status string

const (
	StatusUnknown Status = "unknown" // no sample ever received
	StatusStale   Status = "stale"   // no sample within the freshness window
	StatusUp      Status = "up"      // fresh and last current > 0
	StatusDown    Status = "down"    // fresh and last current == 0
)

// Sample is one probe measurement as stored in a Window's history. IsLoss is
// decided once, when the sample is appended, and never recomputed.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Current   float64   `json:"current"`
	Average   float64   `json:"average"`
	Sequence  int       `json:"sequence"`
	IsLoss    bool      `json:"is_loss"`
}

// Window is the rolling probe history for a single monitored host.
//
// All methods are safe for concurrent use. Appends come from the refresh
// coordinator only; reads come from the snapshot layer.
type Window struct {
	mu      sync.RWMutex
	name    string
	address string
	history *ring

	lastCurrent  float64
	lastAverage  float64
	lastSequence int
	lastUpdate   time.Time // zero until the first append

	// Previous sample's values, kept for the repeated-reading loss check.
	prevCurrent float64
	prevAverage float64
	hasPrev     bool

	staleAfter time.Duration
	now        func() time.Time // injectable for deterministic tests
}

// NewWindow creates an empty Window. An empty address defaults to "unknown".
func NewWindow(name, address string, staleAfter time.Duration) *Window {
	if address == "" {
		address = "unknown"
	}
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Window{
		name:       name,
		address:    address,
		history:    newRing(HistoryCap),
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Name returns the host identifier. It never changes after creation.
func (w *Window) Name() string { return w.name }

// Address returns the host's configured address label.
func (w *Window) Address() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.address
}

// SetAddress updates the address label. Empty values are ignored so a host
// discovered before its configuration entry keeps "unknown" until the target
// list supplies something better.
func (w *Window) SetAddress(address string) {
	if address == "" {
		return
	}
	w.mu.Lock()
	w.address = address
	w.mu.Unlock()
}

// Append records one probe measurement and classifies it as a loss or not.
//
// A sample is a loss when the probe reported current == 0, or when it repeated
// the exact same non-zero (current, average) pair as the previous sample — a
// live probe never produces two bit-identical non-zero readings in a row, so a
// repeat means the reading is stalled. The previous-value trackers are updated
// on every append, losses included; the current > 0 guard is what keeps two
// consecutive zero-current losses from tripping the repeat rule.
//
// The returned Sample is the entry as stored.
func (w *Window) Append(current, average float64, sequence int, ts time.Time) Sample {
	w.mu.Lock()
	defer w.mu.Unlock()

	isLoss := current == 0 ||
		(w.hasPrev && current == w.prevCurrent && average == w.prevAverage && current > 0)

	s := Sample{
		Timestamp: ts,
		Current:   current,
		Average:   average,
		Sequence:  sequence,
		IsLoss:    isLoss,
	}
	w.history.push(s)

	w.prevCurrent = current
	w.prevAverage = average
	w.hasPrev = true

	w.lastCurrent = current
	w.lastAverage = average
	w.lastSequence = sequence
	w.lastUpdate = ts

	return s
}

// LossRate returns the percentage (0–100) of history entries classified as
// losses. An empty window reports 0.0.
func (w *Window) LossRate() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return lossRateLocked(w)
}

// Status classifies the host from the current wall clock. Staleness is
// time-relative, so the result is recomputed on every call and overrides
// up/down whenever the last sample is too old.
func (w *Window) Status() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return statusLocked(w)
}

// Sparkline returns the most recent min(max, history length) samples in
// chronological order.
func (w *Window) Sparkline(max int) []Sample {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.history.tail(max)
}

// Len returns the number of samples currently held.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.history.len()
}
