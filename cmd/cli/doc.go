// Package cli constructs the esg-audit command-line interface, wiring the Cobra
// command hierarchy, the configuration loader, structured logging, and tracing.
// Commands share one services assembly opened per execution against the
// configured store backend.
package cli
