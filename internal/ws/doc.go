// Package ws implements the WebSocket hub for the dashboard.
//
// Hub manages a set of connected clients and pushes the combined dashboard
// payload (monitors + stats) to all of them on a fixed interval, refreshing
// from the probe logs before every broadcast. It is the push-based complement
// to the polling JSON API.
//
// Message format sent to clients:
//
//	{
//	  "event": "snapshot",
//	  "data":  { /* same schema as GET /api/v1/snapshot */ }
//	}
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level. The server mounts the hub at /ws/stream.
package ws
