// Package api implements the HTTP REST API for the dashboard.
//
// New(...) returns an http.Handler that serves:
//
//	GET /api/v1/monitors         — ordered monitor snapshots ([]monitor.Snapshot)
//	GET /api/v1/monitors/{name}  — single monitor snapshot; 404 if unknown
//	GET /api/v1/stats            — fleet aggregate: status counts + avg loss rate
//	GET /api/v1/health           — service liveness: title, version, uptime
//	GET /api/v1/alerts           — firing and recently resolved alerts
//	GET /api/v1/snapshot         — monitors + stats + generated_at in one payload
//
// All endpoints:
//   - Respond with Content-Type: application/json
//   - Return 405 for non-GET methods
//   - Accept ?time_range=N to size the sparkline slice (capped at the
//     window history capacity)
//
// Reads of monitor data perform a refresh-then-snapshot: the handler asks the
// refresh coordinator to pull any new probe records before building the view,
// so a polling dashboard always sees the newest log lines. No external HTTP
// framework is used.
package api
