package captions

import (
	"fmt"
	"strings"
)

// Segment is one caption line shown on screen during [Start, End) seconds.
type Segment struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Text  string  `json:"text" yaml:"text"`
}

// Duration returns End - Start.
func (s Segment) Duration() float64 { return s.End - s.Start }

func (s Segment) String() string {
	return fmt.Sprintf("[%.2f-%.2f] %s", s.Start, s.End, s.Text)
}

// DropReason explains why Validate rejected a candidate segment.
type DropReason string

const (
	DropNonPositiveDuration DropReason = "non_positive_duration"
	DropNegativeStart       DropReason = "negative_start"
	DropBlankText           DropReason = "blank_text"
	DropOverlap             DropReason = "overlaps_previous"
)

// Dropped pairs a rejected segment with its reason.
type Dropped struct {
	Index   int
	Segment Segment
	Reason  DropReason
}

// Validate keeps the candidates that satisfy 0 <= start < end, non-blank
// text, and time order without overlap against the last kept segment. Kept
// segments are returned unchanged apart from trimmed text, in input order.
func Validate(candidates []Segment) ([]Segment, []Dropped) {
	valid := make([]Segment, 0, len(candidates))
	var dropped []Dropped
	prevEnd := 0.0
	for i, seg := range candidates {
		seg.Text = strings.TrimSpace(seg.Text)
		reason := DropReason("")
		switch {
		case seg.Text == "":
			reason = DropBlankText
		case seg.Start < 0:
			reason = DropNegativeStart
		case seg.End <= seg.Start:
			reason = DropNonPositiveDuration
		case seg.Start < prevEnd:
			reason = DropOverlap
		}
		if reason != "" {
			dropped = append(dropped, Dropped{Index: i, Segment: seg, Reason: reason})
			continue
		}
		valid = append(valid, seg)
		prevEnd = seg.End
	}
	return valid, dropped
}

// Ordered reports whether segments satisfy every timing invariant.
func Ordered(segments []Segment) bool {
	prevEnd := 0.0
	for _, seg := range segments {
		if seg.Start < prevEnd || seg.End <= seg.Start || strings.TrimSpace(seg.Text) == "" {
			return false
		}
		prevEnd = seg.End
	}
	return true
}
