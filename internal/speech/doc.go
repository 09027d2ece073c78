// Package speech synthesizes narration audio from script text.
//
// Two engines are supported: a local command (espeak-ng, piper, or anything
// that reads text on stdin and writes audio) and the OpenAI-compatible
// /audio/speech endpoint. The raw track is then enhanced with fades and a
// volume boost via ffmpeg and measured with ffprobe.
package speech
