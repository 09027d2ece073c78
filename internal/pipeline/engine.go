package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"shortreel/internal/banner"
	"shortreel/internal/captions"
	"shortreel/internal/export"
	"shortreel/internal/logging"
	"shortreel/internal/overlay"
	"shortreel/internal/services"
	"shortreel/internal/speech"
	"shortreel/internal/textutil"
)

// Stage names used in logs and errors.
const (
	StageExtract  = "extract"
	StageGenerate = "generate"
	StageSpeech   = "speech"
	StageRender   = "render"
	StageExport   = "export"
	StageCTA      = "cta"
)

// Output file names inside a run directory.
const (
	ScriptFile     = "script.txt"
	SpeechFile     = "speech.wav"
	VideoFile      = "final_video.mp4"
	VideoCTAFile   = "final_video_with_cta.mp4"
	ScriptDocxFile = "script.docx"
)

// Extractor returns the source text of a document.
type Extractor func(ctx context.Context, path string) (string, error)

// ScriptGenerator writes narration for source text.
type ScriptGenerator interface {
	Generate(ctx context.Context, sourceText string) (string, error)
}

// Synthesizer turns narration into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, dest string) (speech.Result, error)
}

// Renderer composites captions onto the base video.
type Renderer interface {
	Render(ctx context.Context, req overlay.Request) (overlay.Result, error)
}

// CTAAdder appends the call-to-action card.
type CTAAdder interface {
	Add(ctx context.Context, videoPath, text, outputPath string) (string, error)
}

// Stages bundles the stage implementations. CTA may be nil to skip the card.
type Stages struct {
	Extract  Extractor
	Generate ScriptGenerator
	Speech   Synthesizer
	Render   Renderer
	CTA      CTAAdder
}

// Settings holds per-engine options.
type Settings struct {
	BaseVideo    string
	OutputDir    string
	RunLogDir    string
	Mode         captions.Mode
	WordsPerLine int
	MaxChars     int
	// SegmentsFile supplies manual segments when Mode is manual.
	SegmentsFile string
	Style        banner.Style
	CTAText      string
	ExportSRT    bool
	ExportDocx   bool
}

// Result reports a completed run.
type Result struct {
	RunID        string
	Source       string
	RunDir       string
	Script       string
	AudioPath    string
	VideoPath    string
	FinalPath    string
	SRTPath      string
	DocxPath     string
	RunLogPath   string
	Mode         captions.Mode
	Segments     int
	Degradations []services.Degradation
	Elapsed      time.Duration
}

// Engine processes documents.
type Engine struct {
	settings Settings
	stages   Stages
	logger   *slog.Logger
	newID    func() string
	now      func() time.Time
}

// NewEngine wires stages with settings.
func NewEngine(settings Settings, stages Stages, logger *slog.Logger) *Engine {
	return &Engine{
		settings: settings,
		stages:   stages,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		newID:    func() string { return uuid.NewString() },
		now:      time.Now,
	}
}

// Process runs documentPath through every stage and returns the final video.
func (e *Engine) Process(ctx context.Context, documentPath string) (result Result, err error) {
	if err := e.stages.Validate(); err != nil {
		return Result{Source: documentPath}, services.Wrap(services.ErrConfiguration, "pipeline", "validate stages", "", err)
	}
	started := e.now()
	runID := e.newID()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithSource(ctx, documentPath)
	result = Result{RunID: runID, Source: documentPath}

	logger, logPath, closeLog, logErr := logging.RunLogger(e.logger, e.settings.RunLogDir, runID)
	if logErr != nil {
		logging.WarnWithContext(e.logger, "run log unavailable", "run_log_unavailable",
			logging.Error(logErr),
			logging.String(logging.FieldImpact, "run is logged to the main log only"),
		)
		logger, closeLog = e.logger, func() error { return nil }
	}
	defer func() { _ = closeLog() }()
	result.RunLogPath = logPath

	runDir, err := e.runDir(documentPath, runID)
	if err != nil {
		return result, err
	}
	result.RunDir = runDir
	logging.WithContext(ctx, logger).Info("run started",
		logging.String("run_dir", runDir),
		logging.String("mode", string(e.settings.Mode)),
	)
	defer func() {
		result.Elapsed = e.now().Sub(started)
		if err != nil {
			logging.ErrorWithContext(logging.WithContext(ctx, logger), "run failed", "run_failed",
				logging.Error(err),
				logging.Duration("elapsed", result.Elapsed),
			)
		}
	}()

	// extract
	stageCtx := services.WithStage(ctx, StageExtract)
	text, err := e.stages.Extract(stageCtx, documentPath)
	if err != nil {
		return result, err
	}
	logging.WithContext(stageCtx, logger).Info("document extracted", logging.Int("chars", len(text)))

	// generate
	stageCtx = services.WithStage(ctx, StageGenerate)
	script, err := e.stages.Generate.Generate(stageCtx, text)
	if err != nil {
		return result, err
	}
	result.Script = script
	if err := os.WriteFile(filepath.Join(runDir, ScriptFile), []byte(script+"\n"), 0o644); err != nil {
		return result, services.Wrap(services.ErrGeneration, StageGenerate, "save script", "", err)
	}

	// speech
	stageCtx = services.WithStage(ctx, StageSpeech)
	audio, err := e.stages.Speech.Synthesize(stageCtx, script, filepath.Join(runDir, SpeechFile))
	if err != nil {
		return result, err
	}
	result.AudioPath = audio.Path

	// render
	stageCtx = services.WithStage(ctx, StageRender)
	req, err := e.renderRequest(stageCtx, logger, script, audio.Path, filepath.Join(runDir, VideoFile))
	if err != nil {
		return result, err
	}
	rendered, err := e.stages.Render.Render(stageCtx, req)
	if err != nil {
		return result, err
	}
	result.VideoPath = rendered.OutputPath
	result.FinalPath = rendered.OutputPath
	result.Mode = rendered.Mode
	result.Segments = len(rendered.Segments)
	result.Degradations = rendered.Degradations

	// export
	if err := e.export(&result, script, rendered.Segments); err != nil {
		return result, err
	}

	// cta
	if e.stages.CTA != nil {
		stageCtx = services.WithStage(ctx, StageCTA)
		final, err := e.stages.CTA.Add(stageCtx, rendered.OutputPath, e.settings.CTAText, filepath.Join(runDir, VideoCTAFile))
		if err != nil {
			return result, err
		}
		result.FinalPath = final
	}

	logging.WithContext(ctx, logger).Info("run complete",
		logging.String("final", result.FinalPath),
		logging.String("mode", string(result.Mode)),
		logging.Int("segments", result.Segments),
		logging.Int("degradations", len(result.Degradations)),
		logging.Duration("elapsed", e.now().Sub(started)),
	)
	return result, nil
}

func (e *Engine) runDir(documentPath, runID string) (string, error) {
	stem := textutil.SanitizeToken(textutil.Stem(documentPath))
	short := strings.ReplaceAll(runID, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	dir := filepath.Join(e.settings.OutputDir, fmt.Sprintf("%s-%s", stem, short))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "pipeline", "create run dir", dir, err)
	}
	return dir, nil
}

// renderRequest resolves the subtitle source. Manual mode with a segments
// file passes those segments through; manual mode without one falls back to
// wordcount inside the caption builder.
func (e *Engine) renderRequest(ctx context.Context, logger *slog.Logger, script, audioPath, outputPath string) (overlay.Request, error) {
	req := overlay.Request{
		VideoPath:  e.settings.BaseVideo,
		AudioPath:  audioPath,
		OutputPath: outputPath,
		Captions: overlay.CaptionOptions{
			Mode:         e.settings.Mode,
			Text:         script,
			WordsPerLine: e.settings.WordsPerLine,
			MaxChars:     e.settings.MaxChars,
		},
		Style: e.settings.Style,
	}
	if e.settings.Mode != captions.ModeManual || strings.TrimSpace(e.settings.SegmentsFile) == "" {
		return req, nil
	}
	segments, err := captions.LoadFile(e.settings.SegmentsFile)
	if err != nil {
		return req, services.Wrap(services.ErrValidation, StageRender, "load segments", e.settings.SegmentsFile, err)
	}
	logging.WithContext(ctx, logger).Info("manual segments loaded",
		logging.String("file", e.settings.SegmentsFile),
		logging.Int("segments", len(segments)),
	)
	req.Segments = segments
	return req, nil
}

func (e *Engine) export(result *Result, script string, segments []captions.Segment) error {
	if e.settings.ExportSRT {
		path := export.SidecarPath(result.VideoPath, ".srt")
		if err := export.WriteSRT(path, segments); err != nil {
			return err
		}
		result.SRTPath = path
	}
	if e.settings.ExportDocx {
		path := filepath.Join(result.RunDir, ScriptDocxFile)
		title := textutil.Stem(result.Source)
		if err := export.WriteScriptDocx(path, title, script, segments); err != nil {
			return err
		}
		result.DocxPath = path
	}
	return nil
}
