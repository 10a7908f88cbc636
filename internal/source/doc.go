// Package source reads probe records from a directory of per-host log files.
//
// Each monitored host appends one line per probe to a file named after the
// host. A line carries a timestamp, the current round-trip time, the running
// average and a sequence counter:
//
//	2025-06-01 12:00:01.483920 12.413 11.901 482
//
// Dir lists the files as available sources and tails the most recent lines of
// a file on demand, skipping lines that fail to parse. Read failures for one
// file never affect other files — the refresh coordinator handles them per
// source.
package source
