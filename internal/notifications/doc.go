// Package notifications publishes run outcomes to ntfy.
//
// NewService returns a no-op notifier when no topic is configured, so callers
// can notify unconditionally. Delivery failures are returned to the caller,
// which logs them without failing the run.
package notifications
