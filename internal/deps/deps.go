// Package deps reports which external binaries the pipeline can reach.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"shortreel/internal/captions"
	"shortreel/internal/config"
)

// Requirement defines an external dependency shortreel relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// Requirements lists the binaries cfg needs. WhisperX is required only when
// asr subtitles are selected with the whisperx backend; the TTS command only
// when the command speech engine is active.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{Name: "FFmpeg", Command: cfg.Render.FFmpegBinary, Description: "Required for rendering and audio enhancement"},
		{Name: "FFprobe", Command: cfg.Render.FFprobeBinary, Description: "Required for media inspection"},
	}
	asrNeeded := captions.ParseMode(cfg.Subtitles.Mode) == captions.ModeASR && cfg.ASR.Backend == "whisperx"
	reqs = append(reqs, Requirement{
		Name:        "uvx",
		Command:     "uvx",
		Description: "Runs WhisperX for asr subtitles",
		Optional:    !asrNeeded,
	})
	if cfg.Speech.Engine == "command" {
		reqs = append(reqs, Requirement{
			Name:        "TTS",
			Command:     cfg.Speech.Command,
			Description: "Synthesizes narration",
		})
	}
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the unavailable, non-optional entries.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}
