// Package ui provides helpers for formatting human-readable console output.
//
// The helpers translate audit creation step events into concise messages so
// that CLI users see which write is running or failed, while detailed
// telemetry continues to flow through structured loggers and traces.
package ui
