// Package captions builds timed subtitle segments for narration audio.
//
// Three strategies are supported: Manual passes caller-supplied segments
// through validation, WordCount spreads narration text evenly across a known
// duration, and ASR groups recognized words into lines under a character
// budget. Every strategy returns segments that are time-ordered and
// non-overlapping; an empty result is a valid captionless track.
package captions

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"unicode/utf8"

	"shortreel/internal/asr"
	"shortreel/internal/logging"
	"shortreel/internal/services"
)

// Result is the outcome of a Build call.
type Result struct {
	Segments []Segment
	// Mode is the strategy that actually produced Segments, which differs from
	// the requested one when manual input was empty.
	Mode         Mode
	Dropped      []Dropped
	Degradations []services.Degradation
}

// Builder dispatches a Strategy to its segment builder.
type Builder struct {
	backend asr.Backend
	logger  *slog.Logger
}

// NewBuilder returns a Builder. A nil backend disables asr mode, which then
// yields an empty track.
func NewBuilder(backend asr.Backend, logger *slog.Logger) *Builder {
	if backend == nil {
		backend = asr.None{}
	}
	return &Builder{backend: backend, logger: logging.NewComponentLogger(logger, "captions")}
}

// Build produces segments for strategy. Only context cancellation and an
// unknown strategy type are returned as errors; ASR failures degrade to an
// empty track.
func (b *Builder) Build(ctx context.Context, strategy Strategy) (Result, error) {
	logger := logging.WithContext(ctx, b.logger)
	switch s := strategy.(type) {
	case Manual:
		if len(s.Segments) == 0 {
			logger.Info("no manual segments supplied; using wordcount",
				logging.Args(logging.DecisionAttrs("subtitle_mode", string(ModeWordCount), "manual mode without segments")...)...,
			)
			res := b.wordCount(s.Fallback)
			res.Degradations = append(res.Degradations, services.Degradation{
				Event:  services.EventModeFallback,
				Detail: "manual mode without segments",
				Impact: "captions timed by word count",
			})
			return res, nil
		}
		valid, dropped := Validate(s.Segments)
		b.logDropped(logger, dropped)
		return Result{Segments: valid, Mode: ModeManual, Dropped: dropped}, nil
	case WordCount:
		return b.wordCount(s), nil
	case ASR:
		return b.fromASR(ctx, logger, s)
	case nil:
		return Result{}, services.Wrap(services.ErrValidation, "captions", "build", "no strategy", nil)
	default:
		return Result{}, services.Wrap(services.ErrValidation, "captions", "build", fmt.Sprintf("unsupported strategy %T", strategy), nil)
	}
}

func (b *Builder) wordCount(s WordCount) Result {
	return Result{Segments: SplitByWordCount(s.Text, s.Duration, s.WordsPerLine), Mode: ModeWordCount}
}

func (b *Builder) fromASR(ctx context.Context, logger *slog.Logger, s ASR) (Result, error) {
	res := Result{Mode: ModeASR}
	seq, err := b.backend.Words(ctx, s.AudioPath)
	if err == nil {
		var lines []Segment
		lines, err = GroupWords(seq, s.MaxChars)
		if err == nil {
			var dropped []Dropped
			res.Segments, dropped = RepairMonotonic(lines)
			res.Dropped = dropped
			b.logDropped(logger, dropped)
			logger.Debug("asr lines grouped",
				logging.String("backend", b.backend.Name()),
				logging.Int("lines", len(res.Segments)),
			)
			return res, nil
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}

	detail := err.Error()
	if errors.Is(err, asr.ErrUnavailable) {
		detail = "backend " + b.backend.Name() + " unavailable"
	}
	d := services.Degradation{
		Event:  services.EventASRUnavailable,
		Detail: detail,
		Impact: "video rendered without captions",
	}
	res.Degradations = append(res.Degradations, d)
	logging.WarnDegraded(logger, "asr unavailable; continuing without captions", d,
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "install uvx/whisperx or set asr.backend = \"json\""),
	)
	return res, nil
}

func (b *Builder) logDropped(logger *slog.Logger, dropped []Dropped) {
	for _, d := range dropped {
		logger.Debug("segment dropped",
			logging.Int("index", d.Index),
			logging.String("reason", string(d.Reason)),
			logging.Float64("start", d.Segment.Start),
			logging.Float64("end", d.Segment.End),
		)
	}
}

// SplitByWordCount splits text into chunks of wordsPerLine words spread evenly
// across duration seconds. The last segment always ends at duration.
func SplitByWordCount(text string, duration float64, wordsPerLine int) []Segment {
	words := strings.Fields(text)
	if duration <= 0 || len(words) == 0 {
		return nil
	}
	if wordsPerLine <= 0 {
		wordsPerLine = DefaultWordsPerLine
	}

	perWord := duration / float64(len(words))
	segments := make([]Segment, 0, (len(words)+wordsPerLine-1)/wordsPerLine)
	for i := 0; i < len(words); i += wordsPerLine {
		chunk := words[i:min(i+wordsPerLine, len(words))]
		start := float64(i) * perWord
		end := min(duration, float64(i+len(chunk))*perWord)
		segments = append(segments, Segment{Start: start, End: end, Text: strings.Join(chunk, " ")})
	}
	segments[len(segments)-1].End = duration
	return segments
}

// GroupWords greedily packs words into lines whose text stays within
// maxChars runes. A single word longer than the budget gets its own line.
// Lines are timed from the first word's start to the last word's end.
func GroupWords(seq iter.Seq2[asr.Word, error], maxChars int) ([]Segment, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	var (
		lines []Segment
		cur   Segment
		open  bool
	)
	closeLine := func() {
		if !open {
			return
		}
		cur.Start = max(0, cur.Start)
		cur.End = max(cur.Start+0.01, cur.End)
		lines = append(lines, cur)
		open = false
	}

	for w, err := range seq {
		if err != nil {
			return nil, err
		}
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		if open {
			candidate := cur.Text + " " + text
			if utf8.RuneCountInString(candidate) <= maxChars {
				cur.Text = candidate
				cur.End = w.End
				continue
			}
			closeLine()
		}
		cur = Segment{Start: w.Start, End: w.End, Text: text}
		open = true
	}
	closeLine()
	return lines, nil
}

// RepairMonotonic clamps each line's start to the previous kept line's end.
// Lines left with start >= end are dropped.
func RepairMonotonic(lines []Segment) ([]Segment, []Dropped) {
	kept := make([]Segment, 0, len(lines))
	var dropped []Dropped
	prevEnd := 0.0
	for i, line := range lines {
		line.Start = max(line.Start, prevEnd)
		if line.Start >= line.End {
			dropped = append(dropped, Dropped{Index: i, Segment: line, Reason: DropNonPositiveDuration})
			continue
		}
		kept = append(kept, line)
		prevEnd = line.End
	}
	return kept, dropped
}
