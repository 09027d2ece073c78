// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size)
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - InspectWith: the same through an injected media.Runner
//
// Helper methods on Result locate the first video stream, report frame
// dimensions, and parse durations.
package ffprobe
