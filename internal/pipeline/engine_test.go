package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shortreel/internal/banner"
	"shortreel/internal/captions"
	"shortreel/internal/logging"
	"shortreel/internal/overlay"
	"shortreel/internal/services"
	"shortreel/internal/speech"
)

type fakeGenerator struct {
	script string
	err    error
	stage  string
}

func (f *fakeGenerator) Generate(ctx context.Context, _ string) (string, error) {
	f.stage, _ = services.StageFromContext(ctx)
	return f.script, f.err
}

type fakeSpeech struct{}

func (fakeSpeech) Synthesize(_ context.Context, _ string, dest string) (speech.Result, error) {
	enhanced := filepath.Join(filepath.Dir(dest), "enhanced_"+filepath.Base(dest))
	if err := os.WriteFile(enhanced, []byte("wav"), 0o644); err != nil {
		return speech.Result{}, err
	}
	return speech.Result{Path: enhanced, RawPath: dest, Duration: 6, Enhanced: true}, nil
}

type fakeRenderer struct {
	req   overlay.Request
	runID string
}

func (f *fakeRenderer) Render(ctx context.Context, req overlay.Request) (overlay.Result, error) {
	f.req = req
	f.runID, _ = services.RunIDFromContext(ctx)
	if err := os.WriteFile(req.OutputPath, []byte("mp4"), 0o644); err != nil {
		return overlay.Result{}, err
	}
	segments := req.Segments
	if len(segments) == 0 {
		segments = []captions.Segment{{Start: 0, End: 3, Text: "one two"}, {Start: 3, End: 6, Text: "three four"}}
	}
	return overlay.Result{OutputPath: req.OutputPath, Mode: req.Captions.Mode, Segments: segments}, nil
}

type fakeCTA struct {
	calls int
	video string
	text  string
}

func (f *fakeCTA) Add(_ context.Context, video, text, out string) (string, error) {
	f.calls++
	f.video, f.text = video, text
	return out, os.WriteFile(out, []byte("mp4+cta"), 0o644)
}

type harness struct {
	engine   *Engine
	gen      *fakeGenerator
	render   *fakeRenderer
	cta      *fakeCTA
	settings Settings
	doc      string
}

func newHarness(t *testing.T, mutate func(*Settings)) *harness {
	t.Helper()
	base := t.TempDir()
	doc := filepath.Join(base, "My Doc!.txt")
	if err := os.WriteFile(doc, []byte("source"), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	settings := Settings{
		BaseVideo:    filepath.Join(base, "Video.mp4"),
		OutputDir:    filepath.Join(base, "out"),
		RunLogDir:    filepath.Join(base, "logs", "runs"),
		Mode:         captions.ModeWordCount,
		WordsPerLine: 2,
		MaxChars:     38,
		Style:        banner.DefaultStyle(),
		CTAText:      "Subscribe Now!",
		ExportSRT:    true,
		ExportDocx:   true,
	}
	if mutate != nil {
		mutate(&settings)
	}
	h := &harness{
		gen:      &fakeGenerator{script: "one two three four"},
		render:   &fakeRenderer{},
		cta:      &fakeCTA{},
		settings: settings,
		doc:      doc,
	}
	h.engine = NewEngine(settings, Stages{
		Extract:  func(context.Context, string) (string, error) { return "source text", nil },
		Generate: h.gen,
		Speech:   fakeSpeech{},
		Render:   h.render,
		CTA:      h.cta,
	}, logging.NewNop())
	h.engine.newID = func() string { return "0123abcd-0000-4000-8000-000000000000" }
	return h
}

func TestProcessRunsEveryStage(t *testing.T) {
	h := newHarness(t, nil)
	res, err := h.engine.Process(context.Background(), h.doc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	wantDir := filepath.Join(h.settings.OutputDir, "my_doc-0123abcd")
	if res.RunDir != wantDir {
		t.Fatalf("run dir = %q, want %q", res.RunDir, wantDir)
	}
	if res.RunID != "0123abcd-0000-4000-8000-000000000000" || h.render.runID != res.RunID {
		t.Fatalf("run id not propagated: %q / %q", res.RunID, h.render.runID)
	}
	if h.gen.stage != StageGenerate {
		t.Fatalf("generate stage = %q", h.gen.stage)
	}
	script, err := os.ReadFile(filepath.Join(wantDir, ScriptFile))
	if err != nil || strings.TrimSpace(string(script)) != "one two three four" {
		t.Fatalf("script.txt = %q, %v", script, err)
	}

	req := h.render.req
	if req.VideoPath != h.settings.BaseVideo || req.AudioPath != filepath.Join(wantDir, "enhanced_speech.wav") {
		t.Fatalf("render request = %+v", req)
	}
	if req.Captions.Mode != captions.ModeWordCount || req.Captions.Text != "one two three four" || req.Captions.WordsPerLine != 2 {
		t.Fatalf("caption options = %+v", req.Captions)
	}
	if len(req.Segments) != 0 {
		t.Fatalf("wordcount run should not pass segments")
	}

	if res.SRTPath != filepath.Join(wantDir, "final_video.srt") {
		t.Fatalf("srt path = %q", res.SRTPath)
	}
	if data, err := os.ReadFile(res.SRTPath); err != nil || !strings.Contains(string(data), "three four") {
		t.Fatalf("srt = %q, %v", data, err)
	}
	if _, err := os.Stat(res.DocxPath); err != nil {
		t.Fatalf("docx missing: %v", err)
	}

	if h.cta.calls != 1 || h.cta.video != res.VideoPath || h.cta.text != "Subscribe Now!" {
		t.Fatalf("cta = %+v", h.cta)
	}
	if res.FinalPath != filepath.Join(wantDir, VideoCTAFile) {
		t.Fatalf("final = %q", res.FinalPath)
	}
	if res.Segments != 2 || res.Mode != captions.ModeWordCount {
		t.Fatalf("result = %+v", res)
	}
	if _, err := os.Stat(res.RunLogPath); err != nil {
		t.Fatalf("run log missing: %v", err)
	}
}

func TestProcessWithoutCTAOrExports(t *testing.T) {
	h := newHarness(t, func(s *Settings) {
		s.ExportSRT = false
		s.ExportDocx = false
	})
	h.engine.stages.CTA = nil
	res, err := h.engine.Process(context.Background(), h.doc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.FinalPath != res.VideoPath || res.SRTPath != "" || res.DocxPath != "" {
		t.Fatalf("result = %+v", res)
	}
}

func TestProcessManualSegmentsFile(t *testing.T) {
	segFile := filepath.Join(t.TempDir(), "segments.yaml")
	content := "- start: 0\n  end: 2\n  text: Hello\n- start: 2\n  end: 4\n  text: World\n"
	if err := os.WriteFile(segFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write segments: %v", err)
	}
	h := newHarness(t, func(s *Settings) {
		s.Mode = captions.ModeManual
		s.SegmentsFile = segFile
	})
	res, err := h.engine.Process(context.Background(), h.doc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(h.render.req.Segments) != 2 || h.render.req.Segments[1].Text != "World" {
		t.Fatalf("segments = %+v", h.render.req.Segments)
	}
	if res.Segments != 2 {
		t.Fatalf("segments = %d", res.Segments)
	}
}

func TestProcessManualWithoutFileDefersFallback(t *testing.T) {
	h := newHarness(t, func(s *Settings) { s.Mode = captions.ModeManual })
	if _, err := h.engine.Process(context.Background(), h.doc); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if h.render.req.Captions.Mode != captions.ModeManual || len(h.render.req.Segments) != 0 {
		t.Fatalf("request = %+v", h.render.req)
	}
}

func TestProcessBadSegmentsFile(t *testing.T) {
	h := newHarness(t, func(s *Settings) {
		s.Mode = captions.ModeManual
		s.SegmentsFile = filepath.Join(t.TempDir(), "missing.yaml")
	})
	if _, err := h.engine.Process(context.Background(), h.doc); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProcessStopsOnStageFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.gen.err = services.Wrap(services.ErrGeneration, "scriptgen", "generate", "all providers failed", nil)
	res, err := h.engine.Process(context.Background(), h.doc)
	if !errors.Is(err, services.ErrGeneration) {
		t.Fatalf("expected generation error, got %v", err)
	}
	if h.cta.calls != 0 || h.render.req.OutputPath != "" {
		t.Fatalf("later stages should not run")
	}
	if res.RunID == "" {
		t.Fatalf("run id should be reported on failure")
	}
}

func TestProcessMissingStage(t *testing.T) {
	engine := NewEngine(Settings{OutputDir: t.TempDir()}, Stages{}, logging.NewNop())
	if _, err := engine.Process(context.Background(), "doc.pdf"); !errors.Is(err, ErrMissingStage) || !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected missing stage error, got %v", err)
	}
}
