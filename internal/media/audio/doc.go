// Package audio builds ffmpeg audio filter chains and argument lists for the
// narration track: fade/volume enhancement and trimming to a target length.
//
// This package only constructs arguments; execution goes through
// media.Runner.
package audio
