// Package whisperx runs WhisperX through uvx and parses its JSON transcripts.
//
// Inputs that are not WAV are converted to mono 16kHz PCM with ffmpeg first.
// The command runner and executable lookup are injectable so callers can test
// argument construction without Python or a GPU.
package whisperx
