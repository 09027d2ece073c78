package whisperx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrUVXMissing is returned when the uvx launcher cannot be found on PATH.
var ErrUVXMissing = errors.New("uvx not found on PATH")

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	ffmpegBinary  string
	commandRunner func(ctx context.Context, name string, args ...string) error
	lookPath      func(string) (string, error)
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config, ffmpegBinary string) *Service {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	return &Service{
		cfg:          cfg,
		ffmpegBinary: ffmpegBinary,
		lookPath:     exec.LookPath,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// WithLookPath overrides executable discovery (for testing).
func (s *Service) WithLookPath(lookPath func(string) (string, error)) {
	if lookPath != nil {
		s.lookPath = lookPath
	}
}

// Model returns the configured model name for logging and cache keys.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// Identity lists every setting that changes transcription output. The HF
// token only contributes whether one is set.
func (s *Service) Identity() string {
	vadMethod := s.cfg.VADMethod
	if vadMethod == "" {
		vadMethod = VADMethodSilero
	}
	device := "cpu"
	if s.cfg.CUDAEnabled {
		device = "cuda"
	}
	parts := []string{
		"model=" + s.Model(),
		"language=" + normalizeLanguage(s.cfg.Language),
		"vad=" + vadMethod,
		"device=" + device,
		fmt.Sprintf("hf_token=%t", s.cfg.HFToken != ""),
	}
	parts = append(parts, s.cfg.Decoding.orDefault().args()...)
	return strings.Join(parts, " ")
}

// Available reports whether the uvx launcher can be found.
func (s *Service) Available() error {
	if _, err := s.lookPath(UVXCommand); err != nil {
		return fmt.Errorf("%w: %v", ErrUVXMissing, err)
	}
	return nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Transcribe runs WhisperX against source and returns the path of the JSON
// transcript written into outputDir. Non-WAV inputs are first converted with
// ffmpeg.
func (s *Service) Transcribe(ctx context.Context, source, outputDir string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", errors.New("transcribe: source path required")
	}
	if err := s.Available(); err != nil {
		return "", err
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	input := source
	if needsExtraction(source) {
		input = filepath.Join(outputDir, extractedName(source))
		if err := s.run(ctx, s.ffmpegBinary, buildExtractArgs(source, input)...); err != nil {
			return "", fmt.Errorf("transcribe: extract audio: %w", err)
		}
	}

	if err := s.run(ctx, UVXCommand, s.buildArgs(input, outputDir)...); err != nil {
		return "", fmt.Errorf("whisperx: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(outputDir, baseName+".json"), nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 40)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", cudaIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.Model(),
		"--output_dir", outputDir,
		"--output_format", "json",
		"--segment_resolution", "sentence",
	)
	args = append(args, s.cfg.Decoding.orDefault().args()...)

	vadMethod := s.cfg.VADMethod
	if vadMethod == "" {
		vadMethod = VADMethodSilero
	}
	args = append(args, "--vad_method", vadMethod)
	if vadMethod == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}

	if lang := normalizeLanguage(s.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", "cuda")
	} else {
		args = append(args, "--device", "cpu", "--compute_type", "float32")
	}

	return args
}

func normalizeLanguage(language string) string {
	lang := strings.ToLower(strings.TrimSpace(language))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if len(lang) != 2 {
		return ""
	}
	return lang
}

// Word represents a single word with timing from WhisperX output. Start and
// End are nil when alignment failed for the token (common for numerals).
type Word struct {
	Word  string   `json:"word"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

// Timed reports whether alignment produced both timestamps.
func (w Word) Timed() bool {
	return w.Start != nil && w.End != nil
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words"`
}

type payload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return p.Segments, nil
}
