// Package logging wires log/slog for the CLI and daemon: console or JSON
// handlers, fan-out to stdout plus a log file, attribute helpers, and
// context-derived fields (item id, stage, lane, correlation id).
package logging
