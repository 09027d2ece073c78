package overlay

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"shortreel/internal/banner"
	"shortreel/internal/captions"
	"shortreel/internal/config"
	"shortreel/internal/logging"
	"shortreel/internal/media"
	"shortreel/internal/media/audio"
	"shortreel/internal/media/ffprobe"
	"shortreel/internal/services"
)

const lockRetryDelay = 250 * time.Millisecond

// Encoder holds output codec settings.
type Encoder struct {
	VideoCodec string
	AudioCodec string
	Preset     string
	CRF        int
}

// Options configures a Compositor.
type Options struct {
	FFmpegBinary  string
	FFprobeBinary string
	// Workers bounds concurrent banner rendering. Defaults to runtime.NumCPU.
	Workers int
	Encoder Encoder
	// TempRoot is the parent for render workspaces. Empty uses os.TempDir.
	TempRoot string
	Runner   media.Runner
}

// OptionsFromConfig maps the [render] section.
func OptionsFromConfig(cfg config.Render) Options {
	return Options{
		FFmpegBinary:  cfg.FFmpegBinary,
		FFprobeBinary: cfg.FFprobeBinary,
		Workers:       cfg.Workers,
		Encoder: Encoder{
			VideoCodec: cfg.VideoCodec,
			AudioCodec: cfg.AudioCodec,
			Preset:     cfg.Preset,
			CRF:        cfg.CRF,
		},
	}
}

// CaptionOptions selects how segments are built when a Request carries none.
type CaptionOptions struct {
	Mode         captions.Mode
	Text         string
	WordsPerLine int
	MaxChars     int
}

// Request describes one render.
type Request struct {
	VideoPath  string
	AudioPath  string
	OutputPath string
	// Segments are used as-is after validation. When empty, segments are
	// built from Captions.
	Segments []captions.Segment
	Captions CaptionOptions
	Style    banner.Style
}

// Result reports a completed render.
type Result struct {
	OutputPath    string
	Width, Height int
	Duration      float64
	Mode          captions.Mode
	Segments      []captions.Segment
	Clips         []Clip
	Degradations  []services.Degradation
	// Workspace is set when banner images were kept on disk.
	Workspace string
}

// BannerRenderer writes one caption banner PNG. *banner.Renderer satisfies it.
type BannerRenderer interface {
	RenderFile(path, text string, width, height int, style banner.Style) (banner.Output, error)
}

// Compositor renders captioned videos.
type Compositor struct {
	opts     Options
	builder  *captions.Builder
	renderer BannerRenderer
	logger   *slog.Logger
}

// NewCompositor returns a Compositor using builder for segment generation and
// renderer for banners.
func NewCompositor(opts Options, builder *captions.Builder, renderer BannerRenderer, logger *slog.Logger) *Compositor {
	if opts.FFmpegBinary == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if opts.FFprobeBinary == "" {
		opts.FFprobeBinary = "ffprobe"
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
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
	if builder == nil {
		builder = captions.NewBuilder(nil, logger)
	}
	if renderer == nil {
		renderer = banner.NewRenderer(nil, logger)
	}
	return &Compositor{
		opts:     opts,
		builder:  builder,
		renderer: renderer,
		logger:   logging.NewComponentLogger(logger, "overlay"),
	}
}

// Render produces req.OutputPath. Any media failure is returned wrapped with
// services.ErrRender; the workspace and partial output are removed and the
// output lock released regardless. A concurrent render of the same output
// waits for the lock until ctx ends.
func (c *Compositor) Render(ctx context.Context, req Request) (result Result, err error) {
	ctx = services.WithStage(ctx, "overlay")
	logger := logging.WithContext(ctx, c.logger)
	started := time.Now()

	if err := validateRequest(req); err != nil {
		return Result{}, err
	}
	style := req.Style.Normalize()

	probe, err := ffprobe.InspectWith(ctx, c.opts.Runner, c.opts.FFprobeBinary, req.VideoPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrRender, "overlay", "probe video", req.VideoPath, err)
	}
	width, height, ok := probe.Dimensions()
	if !ok {
		return Result{}, services.Wrap(services.ErrRender, "overlay", "probe video", "no video stream in "+req.VideoPath, nil)
	}
	duration := probe.DurationSeconds()
	if duration <= 0 {
		return Result{}, services.Wrap(services.ErrRender, "overlay", "probe video", "unknown duration for "+req.VideoPath, nil)
	}
	result = Result{OutputPath: req.OutputPath, Width: width, Height: height, Duration: duration}

	built, err := c.segments(ctx, req)
	if err != nil {
		return result, err
	}
	result.Mode = built.Mode
	result.Degradations = append(result.Degradations, built.Degradations...)
	result.Segments = fitToDuration(built.Segments, duration)
	if dropped := len(built.Segments) - len(result.Segments); dropped > 0 {
		logger.Info("segments past end of video dropped", logging.Int("dropped", dropped), logging.Float64("video_seconds", duration))
	}

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return result, services.Wrap(services.ErrRender, "overlay", "create output dir", req.OutputPath, err)
	}
	// The lock file is never removed: every render must contend on one inode.
	lock := flock.New(req.OutputPath + ".lock")
	locked, err := lock.TryLock()
	if err == nil && !locked {
		logger.Info("waiting for another render of the same output", logging.String("output", req.OutputPath))
		locked, err = lock.TryLockContext(ctx, lockRetryDelay)
	}
	if err != nil || !locked {
		return result, services.Wrap(services.ErrRender, "overlay", "lock output", req.OutputPath, err)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logger.Warn("release output lock failed", logging.Error(unlockErr))
		}
	}()

	ws, err := newWorkspace(c.opts.TempRoot, style.KeepIntermediateImages, logger)
	if err != nil {
		return result, services.Wrap(services.ErrRender, "overlay", "workspace", "", err)
	}
	defer func() {
		if closeErr := ws.Close(); closeErr != nil {
			logging.WarnWithContext(logger, "workspace cleanup failed", "workspace_cleanup_failed",
				logging.Error(closeErr),
				logging.String(logging.FieldImpact, "banner images left on disk"),
			)
		}
	}()
	if style.KeepIntermediateImages {
		result.Workspace = ws.dir
	}

	clips, degraded, err := c.renderBanners(ctx, logger, ws, result.Segments, style, width, height)
	if err != nil {
		return result, err
	}
	result.Clips = clips
	result.Degradations = append(result.Degradations, degraded...)

	if err := c.encode(ctx, ws, req, clips, duration); err != nil {
		return result, err
	}

	c.logDegradations(logger, result.Degradations)
	logger.Info("render complete",
		logging.String("output", req.OutputPath),
		logging.Int("segments", len(result.Segments)),
		logging.String("mode", string(result.Mode)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

func validateRequest(req Request) error {
	for name, value := range map[string]string{
		"video path":  req.VideoPath,
		"audio path":  req.AudioPath,
		"output path": req.OutputPath,
	} {
		if strings.TrimSpace(value) == "" {
			return services.Wrap(services.ErrValidation, "overlay", "render", name+" is required", nil)
		}
	}
	for name, value := range map[string]string{"video": req.VideoPath, "audio": req.AudioPath} {
		if _, err := os.Stat(value); err != nil {
			return services.Wrap(services.ErrRender, "overlay", "open "+name, value, err)
		}
	}
	return nil
}

func (c *Compositor) segments(ctx context.Context, req Request) (captions.Result, error) {
	if len(req.Segments) > 0 {
		return c.builder.Build(ctx, captions.Manual{Segments: req.Segments})
	}

	opts := req.Captions
	var audioSeconds float64
	if opts.Mode != captions.ModeASR {
		probe, err := ffprobe.InspectWith(ctx, c.opts.Runner, c.opts.FFprobeBinary, req.AudioPath)
		if err != nil {
			return captions.Result{}, services.Wrap(services.ErrRender, "overlay", "probe audio", req.AudioPath, err)
		}
		audioSeconds = probe.DurationSeconds()
	}
	wc := captions.WordCount{Text: opts.Text, Duration: audioSeconds, WordsPerLine: opts.WordsPerLine}

	var strategy captions.Strategy
	switch opts.Mode {
	case captions.ModeASR:
		strategy = captions.ASR{AudioPath: req.AudioPath, MaxChars: opts.MaxChars}
	case captions.ModeManual:
		strategy = captions.Manual{Fallback: wc}
	default:
		strategy = wc
	}
	res, err := c.builder.Build(ctx, strategy)
	if err != nil {
		return res, services.Wrap(services.ErrRender, "overlay", "build segments", "", err)
	}
	return res, nil
}

// fitToDuration drops segments starting at or after the video end and clips
// the rest to it.
func fitToDuration(segments []captions.Segment, duration float64) []captions.Segment {
	out := make([]captions.Segment, 0, len(segments))
	for _, seg := range segments {
		if seg.Start >= duration {
			continue
		}
		seg.End = min(seg.End, duration)
		out = append(out, seg)
	}
	return out
}

func (c *Compositor) renderBanners(ctx context.Context, logger *slog.Logger, ws *workspace, segments []captions.Segment, style banner.Style, width, height int) ([]Clip, []services.Degradation, error) {
	if len(segments) == 0 {
		return nil, nil, nil
	}
	place := style.Place(width, height)
	clips := make([]Clip, len(segments))
	outputs := make([]banner.Output, len(segments))
	errs := make([]error, len(segments))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		done    int
		sampler = logging.NewProgressSampler(25)
	)
	for range min(c.opts.Workers, len(segments)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				seg := segments[i]
				path := ws.bannerPath()
				out, err := c.renderer.RenderFile(path, seg.Text, place.Width, place.Height, style)
				if err != nil {
					errs[i] = err
					cancel()
					continue
				}
				outputs[i] = out
				clips[i] = Clip{
					ImagePath: path,
					Start:     seg.Start,
					Duration:  seg.End - seg.Start,
					X:         place.X,
					Y:         place.Y,
					Text:      seg.Text,
				}
				mu.Lock()
				done++
				if sampler.ShouldLogCount(done, len(segments), "banners") {
					logger.Debug("banner progress", logging.Int("done", done), logging.Int("total", len(segments)))
				}
				mu.Unlock()
			}
		}()
	}

dispatch:
	for i := range segments {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, nil, services.Wrap(services.ErrRender, "overlay", "render banners", "", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, services.Wrap(services.ErrRender, "overlay", "render banners", "cancelled", err)
	}

	var degraded []services.Degradation
	seen := map[string]bool{}
	for _, out := range outputs {
		for _, d := range out.Degradations {
			if seen[d.Event] {
				continue
			}
			seen[d.Event] = true
			degraded = append(degraded, d)
		}
	}
	return clips, degraded, nil
}

// encodeArgs builds the ffmpeg command line. Banner i is input i+1 and the
// narration, capped at the video duration, is the last input.
func (c *Compositor) encodeArgs(req Request, clips []Clip, scriptPath, partial string, duration float64) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", req.VideoPath}
	for _, clip := range clips {
		args = append(args, "-i", clip.ImagePath)
	}
	args = append(args, audio.TrimArgs(req.AudioPath, duration)...)
	args = append(args,
		"-filter_complex_script", scriptPath,
		"-map", "[vout]",
		"-map", strconv.Itoa(len(clips)+1)+":a:0",
		"-c:v", c.opts.Encoder.VideoCodec,
	)
	if c.opts.Encoder.Preset != "" {
		args = append(args, "-preset", c.opts.Encoder.Preset)
	}
	if c.opts.Encoder.CRF > 0 {
		args = append(args, "-crf", strconv.Itoa(c.opts.Encoder.CRF))
	}
	args = append(args,
		"-pix_fmt", "yuv420p",
		"-c:a", c.opts.Encoder.AudioCodec,
		"-t", audio.FormatSeconds(duration),
		"-movflags", "+faststart",
		partial,
	)
	return args
}

func (c *Compositor) encode(ctx context.Context, ws *workspace, req Request, clips []Clip, duration float64) error {
	scriptPath := ws.path("overlay.ffscript")
	if err := os.WriteFile(scriptPath, []byte(FilterGraph(clips)), 0o644); err != nil {
		return services.Wrap(services.ErrRender, "overlay", "write filter script", scriptPath, err)
	}

	partial := partialPath(req.OutputPath)
	defer os.Remove(partial)

	if _, err := c.opts.Runner(ctx, c.opts.FFmpegBinary, c.encodeArgs(req, clips, scriptPath, partial, duration)...); err != nil {
		return services.Wrap(services.ErrRender, "overlay", "encode", req.OutputPath, err)
	}
	if err := os.Rename(partial, req.OutputPath); err != nil {
		return services.Wrap(services.ErrRender, "overlay", "finalize output", req.OutputPath, err)
	}
	return nil
}

// partialPath keeps the extension so ffmpeg can infer the container.
func partialPath(output string) string {
	return filepath.Join(filepath.Dir(output), ".partial-"+filepath.Base(output))
}

func (c *Compositor) logDegradations(logger *slog.Logger, degraded []services.Degradation) {
	for _, d := range degraded {
		if d.Event == services.EventASRUnavailable {
			// already reported by the caption builder
			continue
		}
		logging.WarnDegraded(logger, "render degraded", d)
	}
}
