// Package monitor holds the in-memory monitoring state: one Window of recent
// probe samples per host, collected in a Registry.
//
// A Window keeps the most recent 600 samples in a ring buffer. Each sample is
// classified as a loss at append time — either the probe reported a zero
// round-trip time, or it repeated the exact same non-zero current/average pair
// as the previous sample (a stalled reading disguised as success). The
// classification is never revisited once the sample is stored.
//
// Host status is derived at query time from wall-clock recency and the last
// reported value: unknown (never reported), stale (silent past the freshness
// window), up (last current > 0) or down. The clock is injectable so tests can
// simulate elapsed time.
//
// snapshot.go provides the read-only view consumed by the HTTP API and the
// WebSocket hub: per-host Snapshot DTOs, the ordered dashboard listing and
// fleet-wide Stats.
package monitor
