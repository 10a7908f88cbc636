package api

import "testing"

// Per-monitor paths must share one label value, or the request metrics would
// grow a label per host name.
func TestRouteLabel(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/monitors", "/api/v1/monitors"},
		{"/api/v1/monitors/", "/api/v1/monitors/"},
		{"/api/v1/monitors/edge-1", "/api/v1/monitors/{name}"},
		{"/api/v1/monitors/edge-2", "/api/v1/monitors/{name}"},
		{"/api/v1/monitors/some/deep/path", "/api/v1/monitors/{name}"},
		{"/api/v1/stats", "/api/v1/stats"},
		{"/api/v1/health", "/api/v1/health"},
	}
	for _, tt := range tests {
		if got := routeLabel(tt.path); got != tt.want {
			t.Errorf("routeLabel(%q): got %q, want %q", tt.path, got, tt.want)
		}
	}
}
