// Package config provides configuration management for trackflyer.
//
// Settings are layered: DefaultSettings, then an optional config file
// (json, yaml or toml), then TRACKFLYER_* environment variables:
//
//	settings, err := config.Load("/etc/trackflyer.yaml")
//	// TRACKFLYER_MAX_CONCURRENT_DOWNLOADS=8 overrides the file
//
// Durations are written as strings ("30s", "200ms").
//
// # Options
//
//   - Download paths, file naming and the scratch directory
//   - Pool bound (max_concurrent_downloads) and catalog fetch concurrency
//   - Drain cap used when tearing down (drain_timeout)
//   - Wake hold mode: auto, logind or none
//   - ID3 tagging and cover art
//   - Playlist generation
//   - Log level
package config
