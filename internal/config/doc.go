// Package config loads the server configuration (YAML) and the deadman-style
// targets file that maps host identifiers to addresses.
//
// Load reads the YAML config, fills defaults and validates. LoadTargets parses
// the tab-separated targets file; its line order defines how the dashboard
// sorts monitors. WatchTargets hot-reloads the target list on file changes so
// hosts can be relabelled or reordered without a restart.
package config
