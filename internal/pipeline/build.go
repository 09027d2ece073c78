package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"shortreel/internal/asr"
	"shortreel/internal/banner"
	"shortreel/internal/captions"
	"shortreel/internal/config"
	"shortreel/internal/cta"
	"shortreel/internal/document"
	"shortreel/internal/layout"
	"shortreel/internal/overlay"
	"shortreel/internal/scriptgen"
	"shortreel/internal/speech"
)

// SettingsFromConfig maps config sections onto engine settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		BaseVideo:    cfg.Paths.BaseVideo,
		OutputDir:    cfg.Paths.OutputDir,
		RunLogDir:    cfg.RunLogDir(),
		Mode:         captions.ParseMode(cfg.Subtitles.Mode),
		WordsPerLine: cfg.Subtitles.WordsPerLine,
		MaxChars:     cfg.Subtitles.MaxChars,
		SegmentsFile: cfg.Subtitles.SegmentsFile,
		Style:        banner.StyleFromConfig(cfg.Style),
		CTAText:      cfg.CTA.Text,
		ExportSRT:    cfg.Export.SRT,
		ExportDocx:   cfg.Export.ScriptDocx,
	}
}

// NewCompositor builds the caption compositor with the configured ASR
// backend. The returned close function releases the ASR cache.
func NewCompositor(cfg *config.Config, fonts *layout.FontChain, logger *slog.Logger) (*overlay.Compositor, func() error, error) {
	backend, closeASR, err := asr.FromConfig(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	builder := captions.NewBuilder(backend, logger)
	renderer := banner.NewRenderer(fonts, logger)
	opts := overlay.OptionsFromConfig(cfg.Render)
	opts.TempRoot = cfg.Paths.CacheDir
	return overlay.NewCompositor(opts, builder, renderer, logger), closeASR, nil
}

// New builds an Engine with every production stage wired from cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Engine, func() error, error) {
	generator, err := scriptgen.New(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, nil, err
	}
	synth, err := speech.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	fonts := layout.NewSystemFontChain(logger, cfg.Style.FontPaths)
	compositor, closeFn, err := NewCompositor(cfg, fonts, logger)
	if err != nil {
		return nil, nil, err
	}
	stages := Stages{
		Extract:  document.Extract,
		Generate: generator,
		Speech:   synth,
		Render:   compositor,
	}
	if cfg.CTA.Enabled {
		stages.CTA = cta.NewAdder(cta.OptionsFromConfig(cfg.CTA, cfg.Render), fonts, logger)
	}
	return NewEngine(SettingsFromConfig(cfg), stages, logger), closeFn, nil
}

// ErrMissingStage is returned by Validate when a required stage is nil.
var ErrMissingStage = errors.New("pipeline stage missing")

// Validate reports the first missing required stage.
func (s Stages) Validate() error {
	switch {
	case s.Extract == nil:
		return fmt.Errorf("%w: %s", ErrMissingStage, StageExtract)
	case s.Generate == nil:
		return fmt.Errorf("%w: %s", ErrMissingStage, StageGenerate)
	case s.Speech == nil:
		return fmt.Errorf("%w: %s", ErrMissingStage, StageSpeech)
	case s.Render == nil:
		return fmt.Errorf("%w: %s", ErrMissingStage, StageRender)
	}
	return nil
}
