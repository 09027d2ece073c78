package cta

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fogleman/gg"

	"shortreel/internal/config"
	"shortreel/internal/layout"
	"shortreel/internal/logging"
	"shortreel/internal/media"
	"shortreel/internal/media/audio"
	"shortreel/internal/media/ffprobe"
	"shortreel/internal/overlay"
	"shortreel/internal/services"
)

// Options configures an Adder.
type Options struct {
	Seconds       float64
	FontSize      int
	URL           string
	FFmpegBinary  string
	FFprobeBinary string
	Encoder       overlay.Encoder
	TempRoot      string
	Runner        media.Runner
}

// OptionsFromConfig maps the [cta] and [render] sections.
func OptionsFromConfig(c config.CTA, r config.Render) Options {
	render := overlay.OptionsFromConfig(r)
	return Options{
		Seconds:       c.Seconds,
		FontSize:      c.FontSize,
		URL:           c.URL,
		FFmpegBinary:  render.FFmpegBinary,
		FFprobeBinary: render.FFprobeBinary,
		Encoder:       render.Encoder,
	}
}

// Adder overlays the call-to-action card on the tail of a video.
type Adder struct {
	opts   Options
	fonts  *layout.FontChain
	logger *slog.Logger
}

// NewAdder returns an Adder drawing with fonts.
func NewAdder(opts Options, fonts *layout.FontChain, logger *slog.Logger) *Adder {
	if opts.Seconds <= 0 {
		opts.Seconds = 5
	}
	if opts.FFmpegBinary == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if opts.FFprobeBinary == "" {
		opts.FFprobeBinary = "ffprobe"
	}
	if opts.Encoder.VideoCodec == "" {
		opts.Encoder.VideoCodec = "libx264"
	}
	if opts.Encoder.AudioCodec == "" {
		opts.Encoder.AudioCodec = "aac"
	}
	if opts.Runner == nil {
		opts.Runner = media.ExecRunner
	}
	return &Adder{opts: opts, fonts: fonts, logger: logging.NewComponentLogger(logger, "cta")}
}

// Add writes videoPath with the card shown for the last Seconds to outputPath.
func (a *Adder) Add(ctx context.Context, videoPath, text, outputPath string) (string, error) {
	text = strings.TrimSpace(text)
	switch {
	case videoPath == "" || outputPath == "":
		return "", services.Wrap(services.ErrValidation, "cta", "add", "video and output paths required", nil)
	case filepath.Clean(videoPath) == filepath.Clean(outputPath):
		return "", services.Wrap(services.ErrValidation, "cta", "add", "output must differ from input", nil)
	case text == "":
		return "", services.Wrap(services.ErrValidation, "cta", "add", "call-to-action text is empty", nil)
	}
	logger := logging.WithContext(ctx, a.logger)

	probe, err := ffprobe.InspectWith(ctx, a.opts.Runner, a.opts.FFprobeBinary, videoPath)
	if err != nil {
		return "", services.Wrap(services.ErrRender, "cta", "probe video", videoPath, err)
	}
	width, height, ok := probe.Dimensions()
	duration := probe.DurationSeconds()
	if !ok || duration <= 0 {
		return "", services.Wrap(services.ErrRender, "cta", "probe video", fmt.Sprintf("no usable video stream in %s", videoPath), nil)
	}

	dir, err := os.MkdirTemp(a.opts.TempRoot, "cta_")
	if err != nil {
		return "", services.Wrap(services.ErrRender, "cta", "create workspace", "", err)
	}
	defer os.RemoveAll(dir)

	img, degraded, err := Draw(a.fonts, Card{Text: text, FontSize: a.opts.FontSize, URL: a.opts.URL}, width, height)
	if err != nil {
		return "", err
	}
	for _, d := range degraded {
		logging.WarnDegraded(logger, "call-to-action degraded", d)
	}
	cardPath := filepath.Join(dir, "cta.png")
	if err := gg.SavePNG(cardPath, img); err != nil {
		return "", services.Wrap(services.ErrRender, "cta", "write card", cardPath, err)
	}

	start := max(0, duration-a.opts.Seconds)
	partial := filepath.Join(filepath.Dir(outputPath), ".partial-"+filepath.Base(outputPath))
	defer os.Remove(partial)
	if _, err := a.opts.Runner(ctx, a.opts.FFmpegBinary, a.args(videoPath, cardPath, partial, start)...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", services.Wrap(services.ErrRender, "cta", "encode", outputPath, err)
	}
	if err := os.Rename(partial, outputPath); err != nil {
		return "", services.Wrap(services.ErrRender, "cta", "finalize output", outputPath, err)
	}
	logger.Info("call-to-action added",
		logging.String("output", outputPath),
		logging.Float64("start_seconds", start),
		logging.Float64("duration_seconds", duration),
	)
	return outputPath, nil
}

// Filter returns the filter graph showing input 1 over input 0 from start.
func Filter(start float64) string {
	return "[0:v][1:v]overlay=x=0:y=0:enable='gte(t," + audio.FormatSeconds(start) + ")'[vout]"
}

func (a *Adder) args(videoPath, cardPath, partial string, start float64) []string {
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", videoPath,
		"-i", cardPath,
		"-filter_complex", Filter(start),
		"-map", "[vout]",
		"-map", "0:a?",
		"-c:v", a.opts.Encoder.VideoCodec,
	}
	if a.opts.Encoder.Preset != "" {
		args = append(args, "-preset", a.opts.Encoder.Preset)
	}
	if a.opts.Encoder.CRF > 0 {
		args = append(args, "-crf", strconv.Itoa(a.opts.Encoder.CRF))
	}
	return append(args,
		"-pix_fmt", "yuv420p",
		"-c:a", a.opts.Encoder.AudioCodec,
		"-movflags", "+faststart",
		partial,
	)
}
