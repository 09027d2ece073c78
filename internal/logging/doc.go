// Package logging assembles structured slog loggers and formatting helpers used
// across shortreel.
//
// It owns the console and JSON handlers, tees console output into the
// persistent JSON log under paths.log_dir, and exposes context-aware helpers so
// stage code tags log lines with run IDs, stages, and source documents. Warnings
// go through WarnWithContext so every degraded result states its event type,
// impact, and a hint for the operator.
package logging
