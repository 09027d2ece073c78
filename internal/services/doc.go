// Package services defines shared utilities consumed by the pipeline stages and
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and source documents
//     for logging.
//   - Structured error markers plus the Wrap helper so callers can classify a
//     failure (extraction, generation, synthesis, render) with errors.Is.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
