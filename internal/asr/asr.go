// Package asr turns narration audio into a lazy stream of timed words.
//
// Backends are interchangeable: WhisperX transcribes through uvx, JSONFile
// replays an existing WhisperX transcript, and Cached memoizes any backend in
// sqlite keyed by the audio content hash.
package asr

import (
	"context"
	"errors"
	"iter"
	"slices"
)

// ErrUnavailable is returned when a backend cannot run on this host (missing
// launcher, model, or credentials). Callers treat it as a degraded mode.
var ErrUnavailable = errors.New("asr backend unavailable")

// Word is one recognized token with its timing in seconds.
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Backend produces timed words for an audio file. The returned sequence may be
// consumed once; iteration stops early when the consumer breaks.
type Backend interface {
	Name() string
	Words(ctx context.Context, audioPath string) (iter.Seq2[Word, error], error)
}

// FromSlice adapts a slice to the lazy word sequence shape.
func FromSlice(words []Word) iter.Seq2[Word, error] {
	return func(yield func(Word, error) bool) {
		for _, w := range words {
			if !yield(w, nil) {
				return
			}
		}
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[Word, error]) ([]Word, error) {
	var words []Word
	for w, err := range seq {
		if err != nil {
			return words, err
		}
		words = append(words, w)
	}
	return slices.Clip(words), nil
}

// None is a backend that is never available. It is selected when ASR is
// disabled so asr subtitle mode degrades to an empty caption track.
type None struct{}

func (None) Name() string { return "none" }

func (None) Words(context.Context, string) (iter.Seq2[Word, error], error) {
	return nil, ErrUnavailable
}
