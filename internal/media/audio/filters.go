package audio

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Enhancement describes the post-processing applied to synthesized speech.
type Enhancement struct {
	FadeSeconds float64
	Volume      float64
}

// DefaultEnhancement fades in and out over two seconds and boosts volume 20%.
func DefaultEnhancement() Enhancement {
	return Enhancement{FadeSeconds: 2, Volume: 1.2}
}

// Filter returns the -af chain for a track of duration seconds. Fades are
// shortened to half the track when it is too short for both.
func (e Enhancement) Filter(duration float64) string {
	var parts []string
	if fade := min(e.FadeSeconds, duration/2); fade > 0 && duration > 0 {
		parts = append(parts,
			"afade=t=in:st=0:d="+FormatSeconds(fade),
			"afade=t=out:st="+FormatSeconds(duration-fade)+":d="+FormatSeconds(fade),
		)
	}
	if e.Volume > 0 && e.Volume != 1 {
		parts = append(parts, "volume="+FormatSeconds(e.Volume))
	}
	if len(parts) == 0 {
		return "anull"
	}
	return strings.Join(parts, ",")
}

// EnhanceArgs returns ffmpeg arguments that apply e to src and write dst.
func EnhanceArgs(src, dst string, duration float64, e Enhancement) []string {
	return []string{"-y", "-hide_banner", "-loglevel", "error", "-i", src, "-af", e.Filter(duration), dst}
}

// EnhancedPath names the enhanced copy of path: enhanced_<name> in the same
// directory.
func EnhancedPath(path string) string {
	return filepath.Join(filepath.Dir(path), "enhanced_"+filepath.Base(path))
}

// TrimArgs returns input arguments that cap an audio input at seconds.
func TrimArgs(path string, seconds float64) []string {
	if seconds <= 0 {
		return []string{"-i", path}
	}
	return []string{"-t", FormatSeconds(seconds), "-i", path}
}

// FormatSeconds renders v in the shortest form ffmpeg accepts.
func FormatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Describe summarizes an enhancement for logs.
func (e Enhancement) Describe() string {
	return fmt.Sprintf("fade=%ss volume=%s", FormatSeconds(e.FadeSeconds), FormatSeconds(e.Volume))
}
