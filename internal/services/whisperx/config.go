package whisperx

import "strconv"

// Config captures runtime settings for WhisperX operations.
type Config struct {
	Model       string
	CUDAEnabled bool
	// VADMethod is silero or pyannote. Pyannote needs HFToken.
	VADMethod string
	HFToken   string
	// Language is an ISO 639-1 hint; empty lets WhisperX detect it.
	Language string
	// Decoding overrides DefaultDecoding when non-zero.
	Decoding Decoding
}

// Decoding holds the decoder knobs passed through to WhisperX.
type Decoding struct {
	BatchSize   int
	ChunkSize   int
	BeamSize    int
	BestOf      int
	Temperature float64
	Patience    float64
	VADOnset    float64
	VADOffset   float64
}

// DefaultDecoding is tuned for short narration clips: small chunks keep word
// alignment tight around sentence boundaries.
func DefaultDecoding() Decoding {
	return Decoding{
		BatchSize: 4,
		ChunkSize: 15,
		BeamSize:  10,
		BestOf:    10,
		Patience:  1.0,
		VADOnset:  0.08,
		VADOffset: 0.07,
	}
}

func (d Decoding) orDefault() Decoding {
	if d == (Decoding{}) {
		return DefaultDecoding()
	}
	return d
}

func (d Decoding) args() []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{
		"--batch_size", strconv.Itoa(d.BatchSize),
		"--chunk_size", strconv.Itoa(d.ChunkSize),
		"--vad_onset", f(d.VADOnset),
		"--vad_offset", f(d.VADOffset),
		"--beam_size", strconv.Itoa(d.BeamSize),
		"--best_of", strconv.Itoa(d.BestOf),
		"--temperature", f(d.Temperature),
		"--patience", f(d.Patience),
	}
}

const (
	DefaultModel      = "large-v3"
	VADMethodPyannote = "pyannote"
	VADMethodSilero   = "silero"

	UVXCommand    = "uvx"
	FFmpegCommand = "ffmpeg"

	cudaIndexURL = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL = "https://pypi.org/simple"
)
