package api

import "github.com/probewatch/probewatch/internal/monitor"

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status        string `json:"status"`
	Title         string `json:"title"`
	Version       string `json:"version"`
	MonitorCount  int    `json:"monitor_count"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// DashboardResponse is the payload for GET /api/v1/snapshot and the WebSocket
// broadcast: everything a dashboard needs in one read.
type DashboardResponse struct {
	Monitors    []monitor.Snapshot `json:"monitors"`
	Stats       monitor.Stats      `json:"stats"`
	GeneratedAt string             `json:"generated_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
