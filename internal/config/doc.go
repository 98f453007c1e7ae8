// Package config loads and validates Tea Tracker configuration.
//
// Configuration lives in a TOML file. Load applies repository defaults,
// overlays the file when present, normalizes paths (tilde expansion,
// environment fallbacks), and validates the result. Every worker process
// sharing the same data directory must be started from the same
// configuration file; the database file under paths.data_dir is the sole
// unit of backup and restore.
package config
