package whisperx

import (
	"fmt"
	"path/filepath"
	"strings"
)

// buildExtractArgs converts the first audio stream of source into a mono
// 16kHz PCM WAV, the input format WhisperX aligns most reliably.
func buildExtractArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", "0:a:0",
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}

// needsExtraction reports whether source must be converted before transcription.
func needsExtraction(source string) bool {
	return !strings.EqualFold(filepath.Ext(source), ".wav")
}

func extractedName(source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return fmt.Sprintf("%s.16k.wav", base)
}
