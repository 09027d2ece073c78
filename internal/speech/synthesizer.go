package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shortreel/internal/config"
	"shortreel/internal/logging"
	"shortreel/internal/media"
	"shortreel/internal/media/audio"
	"shortreel/internal/media/ffprobe"
	"shortreel/internal/services"
	"shortreel/internal/services/llm"
)

// Result describes the synthesized narration track.
type Result struct {
	Path     string
	RawPath  string
	Duration float64
	Engine   string
	Enhanced bool
}

// Options configures a Synthesizer.
type Options struct {
	Enhance       bool
	Enhancement   audio.Enhancement
	FFmpegBinary  string
	FFprobeBinary string
	Runner        media.Runner
}

// Synthesizer produces enhanced narration audio.
type Synthesizer struct {
	engine Engine
	opts   Options
	logger *slog.Logger
}

// NewSynthesizer wraps engine.
func NewSynthesizer(engine Engine, opts Options, logger *slog.Logger) *Synthesizer {
	if opts.FFmpegBinary == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if opts.FFprobeBinary == "" {
		opts.FFprobeBinary = "ffprobe"
	}
	if opts.Runner == nil {
		opts.Runner = media.ExecRunner
	}
	return &Synthesizer{engine: engine, opts: opts, logger: logging.NewComponentLogger(logger, "speech")}
}

// New builds a Synthesizer from config.
func New(cfg *config.Config, logger *slog.Logger) (*Synthesizer, error) {
	var engine Engine
	switch cfg.Speech.Engine {
	case "openai":
		if strings.TrimSpace(cfg.LLM.OpenAIAPIKey) == "" {
			return nil, services.Wrap(services.ErrConfiguration, "speech", "select engine", "speech engine openai requires OPENAI_API_KEY", nil)
		}
		engine = OpenAI{
			Client: llm.NewClient(llm.Config{
				APIKey:         cfg.LLM.OpenAIAPIKey,
				BaseURL:        cfg.Speech.BaseURL,
				TimeoutSeconds: cfg.LLM.TimeoutSeconds,
			}),
			Model: cfg.Speech.Model,
			Voice: cfg.Speech.Voice,
		}
	case "command", "":
		engine = Command{Binary: cfg.Speech.Command, Args: cfg.Speech.Args}
	default:
		return nil, services.Wrap(services.ErrConfiguration, "speech", "select engine", fmt.Sprintf("unsupported engine %q", cfg.Speech.Engine), nil)
	}
	return NewSynthesizer(engine, Options{
		Enhance:       cfg.Speech.Enhance,
		Enhancement:   audio.Enhancement{FadeSeconds: cfg.Speech.FadeSeconds, Volume: cfg.Speech.Volume},
		FFmpegBinary:  cfg.Render.FFmpegBinary,
		FFprobeBinary: cfg.Render.FFprobeBinary,
	}, logger), nil
}

// Synthesize writes narration for text to dest and returns the track to use
// downstream: the enhanced copy when enhancement is on, otherwise dest.
func (s *Synthesizer) Synthesize(ctx context.Context, text, dest string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, services.Wrap(services.ErrValidation, "speech", "synthesize", "script text is empty", nil)
	}
	if strings.TrimSpace(dest) == "" {
		return Result{}, services.Wrap(services.ErrValidation, "speech", "synthesize", "destination path required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrSynthesis, "speech", "prepare output", "", err)
	}
	logger := logging.WithContext(ctx, s.logger)
	started := time.Now()

	if err := s.engine.Synthesize(ctx, text, dest); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		return Result{}, services.Wrap(services.ErrSynthesis, "speech", s.engine.Name(), "", err)
	}
	if info, err := os.Stat(dest); err != nil || info.Size() == 0 {
		if err == nil {
			err = errors.New("empty audio file")
		}
		return Result{}, services.Wrap(services.ErrSynthesis, "speech", s.engine.Name(), "engine wrote no audio", err)
	}

	probe, err := ffprobe.InspectWith(ctx, s.opts.Runner, s.opts.FFprobeBinary, dest)
	if err != nil {
		return Result{}, services.Wrap(services.ErrSynthesis, "speech", "probe audio", "", err)
	}
	result := Result{Path: dest, RawPath: dest, Duration: probe.DurationSeconds(), Engine: s.engine.Name()}

	if s.opts.Enhance {
		enhanced := audio.EnhancedPath(dest)
		args := audio.EnhanceArgs(dest, enhanced, result.Duration, s.opts.Enhancement)
		if _, err := s.opts.Runner(ctx, s.opts.FFmpegBinary, args...); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{}, ctxErr
			}
			return Result{}, services.Wrap(services.ErrSynthesis, "speech", "enhance audio", s.opts.Enhancement.Describe(), err)
		}
		result.Path = enhanced
		result.Enhanced = true
	}

	logger.Info("narration synthesized",
		logging.String("engine", result.Engine),
		logging.String("path", result.Path),
		logging.Float64("duration_seconds", result.Duration),
		logging.Bool("enhanced", result.Enhanced),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}
