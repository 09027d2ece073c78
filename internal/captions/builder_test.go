package captions

import (
	"context"
	"errors"
	"iter"
	"testing"

	"shortreel/internal/asr"
	"shortreel/internal/logging"
	"shortreel/internal/services"
)

type fakeBackend struct {
	words []asr.Word
	err   error
}

func (f fakeBackend) Name() string { return "fake" }

func (f fakeBackend) Words(context.Context, string) (iter.Seq2[asr.Word, error], error) {
	if f.err != nil {
		return nil, f.err
	}
	return asr.FromSlice(f.words), nil
}

func newTestBuilder(backend asr.Backend) *Builder {
	return NewBuilder(backend, logging.NewNop())
}

func TestWordCountSplitsEvenly(t *testing.T) {
	res, err := newTestBuilder(nil).Build(context.Background(), WordCount{
		Text:         "one two three four five six seven eight nine ten",
		Duration:     10,
		WordsPerLine: 5,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []Segment{
		{Start: 0, End: 5, Text: "one two three four five"},
		{Start: 5, End: 10, Text: "six seven eight nine ten"},
	}
	if len(res.Segments) != len(want) {
		t.Fatalf("got %d segments, want %d: %v", len(res.Segments), len(want), res.Segments)
	}
	for i := range want {
		if res.Segments[i] != want[i] {
			t.Fatalf("segment %d = %v, want %v", i, res.Segments[i], want[i])
		}
	}
	if res.Mode != ModeWordCount {
		t.Fatalf("mode = %s", res.Mode)
	}
}

func TestWordCountLastSegmentEndsAtDuration(t *testing.T) {
	cases := []struct {
		text     string
		duration float64
		n        int
	}{
		{"a b c d e f g", 7.3, 3},
		{"a b c", 0.1, 5},
		{"alpha beta gamma delta epsilon zeta eta theta iota", 13.37, 2},
		{"x", 1.5, 0},
	}
	for _, tc := range cases {
		segments := SplitByWordCount(tc.text, tc.duration, tc.n)
		if len(segments) == 0 {
			t.Fatalf("%q: no segments", tc.text)
		}
		if got := segments[len(segments)-1].End; got != tc.duration {
			t.Fatalf("%q: last end = %v, want %v", tc.text, got, tc.duration)
		}
		if !Ordered(segments) {
			t.Fatalf("%q: segments not ordered: %v", tc.text, segments)
		}
	}
}

func TestWordCountDefaultsWordsPerLine(t *testing.T) {
	segments := SplitByWordCount("a b c d e f g h i j k", 11, 0)
	if len(segments) != 3 {
		t.Fatalf("got %d segments, want 3", len(segments))
	}
	if segments[0].Text != "a b c d e" {
		t.Fatalf("first segment = %q", segments[0].Text)
	}
}

func TestWordCountDegenerateInputIsEmpty(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		duration float64
	}{
		{"zero duration", "hello world", 0},
		{"negative duration", "hello world", -3},
		{"empty text", "", 10},
		{"whitespace text", " \n\t ", 10},
	}
	for _, tc := range cases {
		if got := SplitByWordCount(tc.text, tc.duration, 5); len(got) != 0 {
			t.Fatalf("%s: got %v, want empty", tc.name, got)
		}
	}
}

func TestASRGroupsWordsIntoLine(t *testing.T) {
	b := newTestBuilder(fakeBackend{words: []asr.Word{
		{Text: "hi", Start: 0, End: 0.3},
		{Text: "there", Start: 0.3, End: 0.6},
	}})
	res, err := b.Build(context.Background(), ASR{AudioPath: "narration.wav", MaxChars: 20})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Segments) != 1 {
		t.Fatalf("got %d segments, want 1: %v", len(res.Segments), res.Segments)
	}
	want := Segment{Start: 0, End: 0.6, Text: "hi there"}
	if res.Segments[0] != want {
		t.Fatalf("segment = %v, want %v", res.Segments[0], want)
	}
}

func TestASRBreaksLinesAtBudget(t *testing.T) {
	words := []asr.Word{
		{Text: "the", Start: 0, End: 0.2},
		{Text: "quick", Start: 0.2, End: 0.5},
		{Text: "brown", Start: 0.5, End: 0.8},
		{Text: "fox", Start: 0.8, End: 1.0},
		{Text: "supercalifragilistic", Start: 1.0, End: 2.0},
		{Text: "jumps", Start: 2.0, End: 2.4},
	}
	lines, err := GroupWords(asr.FromSlice(words), 10)
	if err != nil {
		t.Fatalf("GroupWords: %v", err)
	}
	want := []string{"the quick", "brown fox", "supercalifragilistic", "jumps"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %v", len(lines), len(want), lines)
	}
	for i, text := range want {
		if lines[i].Text != text {
			t.Fatalf("line %d = %q, want %q", i, lines[i].Text, text)
		}
	}
	if lines[1].Start != 0.5 || lines[1].End != 1.0 {
		t.Fatalf("line 1 timing = %v", lines[1])
	}
}

func TestASRRepairClampsAndDropsOverlaps(t *testing.T) {
	words := []asr.Word{
		{Text: "first", Start: 0, End: 1.0},
		{Text: "second", Start: 0.8, End: 1.5},
		{Text: "ghost", Start: 0.9, End: 1.2},
		{Text: "third", Start: 1.6, End: 2.0},
	}
	b := newTestBuilder(fakeBackend{words: words})
	res, err := b.Build(context.Background(), ASR{MaxChars: 6})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []Segment{
		{Start: 0, End: 1.0, Text: "first"},
		{Start: 1.0, End: 1.5, Text: "second"},
		{Start: 1.6, End: 2.0, Text: "third"},
	}
	if len(res.Segments) != len(want) {
		t.Fatalf("got %v, want %v", res.Segments, want)
	}
	for i := range want {
		if res.Segments[i] != want[i] {
			t.Fatalf("segment %d = %v, want %v", i, res.Segments[i], want[i])
		}
	}
	if len(res.Dropped) != 1 || res.Dropped[0].Segment.Text != "ghost" || res.Dropped[0].Reason != DropNonPositiveDuration {
		t.Fatalf("dropped = %+v", res.Dropped)
	}
	if !Ordered(res.Segments) {
		t.Fatalf("segments not ordered")
	}
}

func TestASRUnavailableYieldsEmptyTrack(t *testing.T) {
	for _, backend := range []asr.Backend{asr.None{}, fakeBackend{err: errors.New("model download failed")}} {
		res, err := newTestBuilder(backend).Build(context.Background(), ASR{AudioPath: "narration.wav"})
		if err != nil {
			t.Fatalf("%s: Build returned error: %v", backend.Name(), err)
		}
		if len(res.Segments) != 0 {
			t.Fatalf("%s: got segments %v", backend.Name(), res.Segments)
		}
		if len(res.Degradations) != 1 || res.Degradations[0].Event != services.EventASRUnavailable {
			t.Fatalf("%s: degradations = %+v", backend.Name(), res.Degradations)
		}
	}
}

func TestASRHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestBuilder(fakeBackend{err: context.Canceled}).Build(ctx, ASR{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestManualDropsInvalidSegments(t *testing.T) {
	res, err := newTestBuilder(nil).Build(context.Background(), Manual{Segments: []Segment{
		{Start: 0, End: 1, Text: "keep me"},
		{Start: 2, End: 2, Text: "zero length"},
		{Start: 3, End: 2.5, Text: "backwards"},
		{Start: 3, End: 4, Text: "   "},
		{Start: 0.5, End: 1.5, Text: "overlaps"},
		{Start: 4, End: 5, Text: " also kept "},
	}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Mode != ModeManual {
		t.Fatalf("mode = %s", res.Mode)
	}
	want := []Segment{{Start: 0, End: 1, Text: "keep me"}, {Start: 4, End: 5, Text: "also kept"}}
	if len(res.Segments) != 2 || res.Segments[0] != want[0] || res.Segments[1] != want[1] {
		t.Fatalf("segments = %v, want %v", res.Segments, want)
	}
	reasons := map[DropReason]int{}
	for _, d := range res.Dropped {
		reasons[d.Reason]++
	}
	if reasons[DropNonPositiveDuration] != 2 || reasons[DropBlankText] != 1 || reasons[DropOverlap] != 1 {
		t.Fatalf("drop reasons = %v", reasons)
	}
}

func TestManualWithoutSegmentsFallsBackToWordCount(t *testing.T) {
	res, err := newTestBuilder(nil).Build(context.Background(), Manual{
		Fallback: WordCount{Text: "one two three four five six", Duration: 6},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Mode != ModeWordCount {
		t.Fatalf("mode = %s, want wordcount", res.Mode)
	}
	if len(res.Segments) != 2 || res.Segments[0].Text != "one two three four five" {
		t.Fatalf("segments = %v", res.Segments)
	}
	if len(res.Degradations) != 1 || res.Degradations[0].Event != services.EventModeFallback {
		t.Fatalf("degradations = %+v", res.Degradations)
	}
}

func TestBuildRejectsNilStrategy(t *testing.T) {
	_, err := newTestBuilder(nil).Build(context.Background(), nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"manual":    ModeManual,
		" ASR ":     ModeASR,
		"WordCount": ModeWordCount,
		"":          ModeWordCount,
		"karaoke":   ModeWordCount,
	}
	for in, want := range cases {
		if got := ParseMode(in); got != want {
			t.Fatalf("ParseMode(%q) = %s, want %s", in, got, want)
		}
	}
}
