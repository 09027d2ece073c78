package overlay

import (
	"fmt"
	"strings"

	"shortreel/internal/media/audio"
)

// Clip is one banner image placed on the frame for a time window.
type Clip struct {
	ImagePath string
	Start     float64
	Duration  float64
	X         int
	Y         int
	Text      string
}

// End returns Start + Duration.
func (c Clip) End() float64 { return c.Start + c.Duration }

// FilterGraph chains one overlay filter per clip onto input 0. Clip i is
// ffmpeg input i+1 and is shown while start <= t < end. The final video pad
// is labelled [vout].
func FilterGraph(clips []Clip) string {
	if len(clips) == 0 {
		return "[0:v]null[vout]"
	}
	var b strings.Builder
	prev := "[0:v]"
	for i, clip := range clips {
		out := fmt.Sprintf("[v%d]", i+1)
		if i == len(clips)-1 {
			out = "[vout]"
		}
		fmt.Fprintf(&b, "%s[%d:v]overlay=x=%d:y=%d:enable='gte(t,%s)*lt(t,%s)'%s",
			prev, i+1, clip.X, clip.Y,
			audio.FormatSeconds(clip.Start), audio.FormatSeconds(clip.End()),
			out,
		)
		if i < len(clips)-1 {
			b.WriteString(";\n")
		}
		prev = out
	}
	return b.String()
}
