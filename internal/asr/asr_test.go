package asr

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shortreel/internal/config"
	"shortreel/internal/logging"
	"shortreel/internal/services/whisperx"
)

func ptr(v float64) *float64 { return &v }

func TestWordsFromSegmentsMergesUntimedTokens(t *testing.T) {
	segments := []whisperx.Segment{
		{Text: "twenty in 2024 we grew", Words: []whisperx.Word{
			{Word: "20"},
			{Word: "in", Start: ptr(0.2), End: ptr(0.4)},
			{Word: "2024"},
			{Word: "we", Start: ptr(0.9), End: ptr(1.1)},
			{Word: " "},
			{Word: "grew", Start: ptr(1.1), End: ptr(1.5)},
		}},
		{Text: "plain words here", Start: 2, End: 3.5},
	}
	words, err := Collect(wordsFromSegments(segments))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := []Word{
		{Text: "20 in 2024", Start: 0.2, End: 0.4},
		{Text: "we", Start: 0.9, End: 1.1},
		{Text: "grew", Start: 1.1, End: 1.5},
		{Text: "plain", Start: 2, End: 2.5},
		{Text: "words", Start: 2.5, End: 3},
		{Text: "here", Start: 3, End: 3.5},
	}
	if len(words) != len(want) {
		t.Fatalf("got %d words %+v, want %d", len(words), words, len(want))
	}
	for i := range want {
		if words[i] != want[i] {
			t.Fatalf("word %d = %+v, want %+v", i, words[i], want[i])
		}
	}
}

func TestWordsFromSegmentsStopsWhenConsumerBreaks(t *testing.T) {
	segments := []whisperx.Segment{{Text: "a b c d", Start: 0, End: 4}}
	count := 0
	for range wordsFromSegments(segments) {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Fatalf("expected early stop, consumed %d", count)
	}
}

func TestJSONFileMissingIsUnavailable(t *testing.T) {
	_, err := JSONFile{Path: filepath.Join(t.TempDir(), "nope.json")}.Words(context.Background(), "")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestWhisperXWithoutUVXIsUnavailable(t *testing.T) {
	svc := whisperx.NewService(whisperx.Config{}, "")
	svc.WithLookPath(func(string) (string, error) { return "", os.ErrNotExist })
	_, err := NewWhisperX(svc).Words(context.Background(), "/tmp/a.mp3")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestNoneBackend(t *testing.T) {
	if _, err := (None{}).Words(context.Background(), "x"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

type countingBackend struct {
	calls int
	words []Word
}

func (b *countingBackend) Name() string { return "counting" }

func (b *countingBackend) Words(context.Context, string) (iter.Seq2[Word, error], error) {
	b.calls++
	return FromSlice(b.words), nil
}

func TestCachedBackendServesRepeatRunsFromSQLite(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "voice.mp3")
	if err := os.WriteFile(audio, []byte("fake audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	cache, err := OpenCache(filepath.Join(dir, "cache", "asr.db"))
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer cache.Close()

	inner := &countingBackend{words: []Word{{Text: "hello", Start: 0, End: 0.4}, {Text: "world", Start: 0.5, End: 1}}}
	cached := NewCached(inner, cache, logging.NewNop())

	for i := 0; i < 2; i++ {
		seq, err := cached.Words(context.Background(), audio)
		if err != nil {
			t.Fatalf("Words run %d: %v", i, err)
		}
		words, err := Collect(seq)
		if err != nil {
			t.Fatalf("Collect run %d: %v", i, err)
		}
		if len(words) != 2 || words[1] != inner.words[1] {
			t.Fatalf("run %d: unexpected words %+v", i, words)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("expected one transcription, got %d", inner.calls)
	}

	if err := os.WriteFile(audio, []byte("different audio"), 0o644); err != nil {
		t.Fatalf("rewrite audio: %v", err)
	}
	if _, err := cached.Words(context.Background(), audio); err != nil {
		t.Fatalf("Words after change: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("changed audio should miss the cache, calls=%d", inner.calls)
	}
}

func TestCacheReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asr.db")
	cache, err := OpenCache(path)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	if err := cache.Put(context.Background(), "k", "b", "/a", []Word{{Text: "x", Start: 1, End: 2}}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	cache.Close()

	reopened, err := OpenCache(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	words, ok, err := reopened.Get(context.Background(), "k")
	if err != nil || !ok || len(words) != 1 || words[0].Text != "x" {
		t.Fatalf("unexpected Get result words=%v ok=%v err=%v", words, ok, err)
	}
	if _, ok, _ := reopened.Get(context.Background(), "missing"); ok {
		t.Fatal("expected miss")
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.CacheDir = t.TempDir()

	cfg.ASR.Backend = "none"
	b, closeFn, err := FromConfig(&cfg, logging.NewNop())
	if err != nil || b.Name() != "none" {
		t.Fatalf("none backend = %v, %v", b, err)
	}
	_ = closeFn()

	cfg.ASR.Backend = "json"
	cfg.ASR.JSONPath = filepath.Join(t.TempDir(), "words.json")
	cfg.ASR.CacheEnabled = false
	b, _, err = FromConfig(&cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("json backend: %v", err)
	}
	if _, ok := b.(JSONFile); !ok {
		t.Fatalf("expected JSONFile, got %T", b)
	}

	cfg.ASR.Backend = "whisperx"
	cfg.ASR.CacheEnabled = true
	b, closeFn, err = FromConfig(&cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("whisperx backend: %v", err)
	}
	defer closeFn()
	if _, ok := b.(*Cached); !ok {
		t.Fatalf("expected cached backend, got %T", b)
	}
	if b.Name() != "whisperx:large-v3" {
		t.Fatalf("Name = %q", b.Name())
	}

	cfg.ASR.Backend = "vosk"
	if _, _, err := FromConfig(&cfg, logging.NewNop()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestWordsFromSegmentsKeepsUntimedOnlySegments(t *testing.T) {
	segments := []whisperx.Segment{
		{Text: "2024", Start: 0, End: 0.8, Words: []whisperx.Word{{Word: "2024"}}},
		{Text: "was big 100%", Start: 1, End: 2, Words: []whisperx.Word{
			{Word: "was", Start: ptr(1), End: ptr(1.2)},
			{Word: "big", Start: ptr(1.3), End: ptr(1.6)},
			{Word: "100%"},
		}},
	}
	words, err := Collect(wordsFromSegments(segments))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := []Word{
		{Text: "2024", Start: 0, End: 0.8},
		{Text: "was", Start: 1, End: 1.2},
		{Text: "big 100%", Start: 1.3, End: 1.6},
	}
	if len(words) != len(want) {
		t.Fatalf("got %+v, want %+v", words, want)
	}
	for i := range want {
		if words[i] != want[i] {
			t.Fatalf("word %d = %+v, want %+v", i, words[i], want[i])
		}
	}
}

func TestWordsFromSegmentsCarriesOrphanIntoSpreadSegment(t *testing.T) {
	segments := []whisperx.Segment{
		{Words: []whisperx.Word{{Word: "Intro"}}},
		{Text: "one two", Start: 0, End: 1},
	}
	words, err := Collect(wordsFromSegments(segments))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(words) != 2 || words[0].Text != "Intro one" || words[1].Text != "two" {
		t.Fatalf("unexpected words %+v", words)
	}
}

func writeTranscript(t *testing.T, path, word string) {
	t.Helper()
	payload := `{"segments":[{"text":"` + word + `","start":0,"end":1,"words":[{"word":"` + word + `","start":0,"end":1}]}]}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
}

func firstWord(t *testing.T, b Backend, audio string) string {
	t.Helper()
	seq, err := b.Words(context.Background(), audio)
	if err != nil {
		t.Fatalf("Words: %v", err)
	}
	words, err := Collect(seq)
	if err != nil || len(words) == 0 {
		t.Fatalf("Collect: %v %+v", err, words)
	}
	return words[0].Text
}

func TestCachedJSONFileMissesAfterTranscriptEdit(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "voice.mp3")
	if err := os.WriteFile(audio, []byte("fake audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	transcript := filepath.Join(dir, "words.json")
	cache, err := OpenCache(filepath.Join(dir, "asr.db"))
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer cache.Close()
	cached := NewCached(JSONFile{Path: transcript}, cache, logging.NewNop())

	writeTranscript(t, transcript, "first")
	if got := firstWord(t, cached, audio); got != "first" {
		t.Fatalf("first run = %q", got)
	}
	writeTranscript(t, transcript, "corrected")
	if got := firstWord(t, cached, audio); got != "corrected" {
		t.Fatalf("edited transcript served stale %q", got)
	}
}

func TestWhisperXCacheIdentityTracksSettings(t *testing.T) {
	identity := func(cfg whisperx.Config) string {
		id, err := NewWhisperX(whisperx.NewService(cfg, "")).CacheIdentity()
		if err != nil {
			t.Fatalf("CacheIdentity: %v", err)
		}
		return id
	}
	base := identity(whisperx.Config{Language: "en"})
	if base != identity(whisperx.Config{Language: "en-US"}) {
		t.Fatal("equivalent languages should share an identity")
	}
	for name, cfg := range map[string]whisperx.Config{
		"language": {Language: "de"},
		"vad":      {Language: "en", VADMethod: whisperx.VADMethodPyannote},
		"cuda":     {Language: "en", CUDAEnabled: true},
		"decoding": {Language: "en", Decoding: whisperx.Decoding{BatchSize: 1, ChunkSize: 5}},
	} {
		if identity(cfg) == base {
			t.Fatalf("%s change should alter the identity", name)
		}
	}
	if strings.Contains(identity(whisperx.Config{HFToken: "secret"}), "secret") {
		t.Fatal("identity must not embed the token")
	}
}
