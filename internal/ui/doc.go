// Package ui provides helpers for formatting human-readable console output.
//
// The helpers translate supervision lifecycle events into concise messages so
// that command feedback remains actionable for CLI users while detailed
// telemetry continues to flow through structured loggers.
package ui
