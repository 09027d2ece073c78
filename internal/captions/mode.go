package captions

import "strings"

// Mode selects the segment building strategy.
type Mode string

const (
	ModeManual    Mode = "manual"
	ModeWordCount Mode = "wordcount"
	ModeASR       Mode = "asr"
)

// ParseMode maps a free-form string onto a Mode. Unknown values become
// ModeWordCount.
func ParseMode(value string) Mode {
	switch m := Mode(strings.ToLower(strings.TrimSpace(value))); m {
	case ModeManual, ModeWordCount, ModeASR:
		return m
	default:
		return ModeWordCount
	}
}

// Defaults used when a strategy leaves a knob at zero.
const (
	DefaultWordsPerLine = 5
	DefaultMaxChars     = 38
)

// Strategy is one of Manual, WordCount, or ASR. Each variant carries only the
// inputs its mode needs.
type Strategy interface {
	Mode() Mode
}

// Manual passes caller-supplied segments through validation. With no
// segments it builds Fallback instead.
type Manual struct {
	Segments []Segment
	Fallback WordCount
}

// WordCount spreads Text evenly across Duration seconds, WordsPerLine words
// per segment.
type WordCount struct {
	Text         string
	Duration     float64
	WordsPerLine int
}

// ASR groups recognized words from AudioPath into lines of at most MaxChars
// characters.
type ASR struct {
	AudioPath string
	MaxChars  int
}

func (Manual) Mode() Mode    { return ModeManual }
func (WordCount) Mode() Mode { return ModeWordCount }
func (ASR) Mode() Mode       { return ModeASR }
