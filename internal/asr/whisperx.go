package asr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"iter"
	"os"
	"strings"

	"shortreel/internal/services/whisperx"
)

// WhisperX transcribes audio with the WhisperX CLI.
type WhisperX struct {
	svc *whisperx.Service
}

// NewWhisperX wraps a configured WhisperX service.
func NewWhisperX(svc *whisperx.Service) *WhisperX {
	return &WhisperX{svc: svc}
}

func (w *WhisperX) Name() string { return "whisperx:" + w.svc.Model() }

func (w *WhisperX) CacheIdentity() (string, error) {
	return "whisperx " + w.svc.Identity(), nil
}

// Words transcribes audioPath into a scratch directory and streams the aligned
// words. A missing uvx launcher maps to ErrUnavailable.
func (w *WhisperX) Words(ctx context.Context, audioPath string) (iter.Seq2[Word, error], error) {
	if err := w.svc.Available(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	scratch, err := os.MkdirTemp("", "shortreel-asr-")
	if err != nil {
		return nil, fmt.Errorf("asr scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	jsonPath, err := w.svc.Transcribe(ctx, audioPath, scratch)
	if err != nil {
		if errors.Is(err, whisperx.ErrUVXMissing) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}
	segments, err := whisperx.LoadSegments(jsonPath)
	if err != nil {
		return nil, err
	}
	return wordsFromSegments(segments), nil
}

// JSONFile replays words from an existing WhisperX JSON transcript.
type JSONFile struct {
	Path string
}

func (j JSONFile) Name() string { return "json" }

// CacheIdentity hashes the transcript contents so an edited transcript misses
// the cache.
func (j JSONFile) CacheIdentity() (string, error) {
	data, err := os.ReadFile(j.Path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return "json:" + hex.EncodeToString(sum[:]), nil
}

func (j JSONFile) Words(_ context.Context, _ string) (iter.Seq2[Word, error], error) {
	segments, err := whisperx.LoadSegments(j.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: transcript %s missing", ErrUnavailable, j.Path)
		}
		return nil, err
	}
	return wordsFromSegments(segments), nil
}

// wordsFromSegments flattens segments into timed words. Tokens WhisperX could
// not align are appended to the preceding word, or prepended to the next one
// when nothing precedes them. Leading untimed tokens of a segment with no
// aligned words take the segment's span. A segment without any word entries
// contributes one word per whitespace token spread evenly across the segment.
// Text with no timing anywhere in the transcript is dropped.
func wordsFromSegments(segments []whisperx.Segment) iter.Seq2[Word, error] {
	return func(yield func(Word, error) bool) {
		var pending *Word
		var orphan string
		flush := func() bool {
			if pending == nil {
				return true
			}
			w := *pending
			pending = nil
			return yield(w, nil)
		}
		for _, seg := range segments {
			if len(seg.Words) == 0 {
				for _, w := range spreadSegment(seg) {
					if !flush() {
						return
					}
					next := w
					if orphan != "" {
						next.Text = orphan + " " + next.Text
						orphan = ""
					}
					pending = &next
				}
				continue
			}
			for _, raw := range seg.Words {
				text := strings.TrimSpace(raw.Word)
				if text == "" {
					continue
				}
				if !raw.Timed() {
					if pending != nil {
						pending.Text += " " + text
					} else {
						orphan = strings.TrimSpace(orphan + " " + text)
					}
					continue
				}
				if !flush() {
					return
				}
				if orphan != "" {
					text = orphan + " " + text
					orphan = ""
				}
				pending = &Word{Text: text, Start: *raw.Start, End: *raw.End}
			}
			if orphan != "" && pending == nil && seg.End > seg.Start {
				pending = &Word{Text: orphan, Start: seg.Start, End: seg.End}
				orphan = ""
			}
		}
		flush()
	}
}

func spreadSegment(seg whisperx.Segment) []Word {
	tokens := strings.Fields(seg.Text)
	if len(tokens) == 0 || seg.End <= seg.Start {
		return nil
	}
	step := (seg.End - seg.Start) / float64(len(tokens))
	words := make([]Word, len(tokens))
	for i, tok := range tokens {
		words[i] = Word{
			Text:  tok,
			Start: seg.Start + float64(i)*step,
			End:   seg.Start + float64(i+1)*step,
		}
	}
	return words
}
