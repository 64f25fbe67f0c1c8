// Package config loads, validates, and normalizes the TOML configuration
// shared by the CLI and daemon. Defaults live in defaults.go; the embedded
// sample_config.toml documents every knob for `ytscribe config init`.
package config
