package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"shortreel/internal/captions"
	"shortreel/internal/config"
	"shortreel/internal/document"
	"shortreel/internal/services"
)

// captionFlags are shared by render and segments.
type captionFlags struct {
	mode         string
	text         string
	textFile     string
	segmentsFile string
	wordsPerLine int
	maxChars     int
}

func (f *captionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mode, "mode", "", "Subtitle mode: manual, wordcount, or asr (defaults to subtitles.mode)")
	cmd.Flags().StringVar(&f.text, "text", "", "Narration text for wordcount mode")
	cmd.Flags().StringVar(&f.textFile, "text-file", "", "Read narration text from a .txt, .md, or .pdf file")
	cmd.Flags().StringVar(&f.segmentsFile, "segments", "", "Manual segments file (.yaml, .json, or .srt)")
	cmd.Flags().IntVar(&f.wordsPerLine, "words-per-line", 0, "Words per caption in wordcount mode (defaults to subtitles.words_per_line)")
	cmd.Flags().IntVar(&f.maxChars, "max-chars", 0, "Characters per caption in asr mode (defaults to subtitles.max_chars)")
}

func (f *captionFlags) resolvedMode(cfg *config.Config) captions.Mode {
	if strings.TrimSpace(f.mode) != "" {
		return captions.ParseMode(f.mode)
	}
	return captions.ParseMode(cfg.Subtitles.Mode)
}

func (f *captionFlags) resolvedWordsPerLine(cfg *config.Config) int {
	if f.wordsPerLine > 0 {
		return f.wordsPerLine
	}
	return cfg.Subtitles.WordsPerLine
}

func (f *captionFlags) resolvedMaxChars(cfg *config.Config) int {
	if f.maxChars > 0 {
		return f.maxChars
	}
	return cfg.Subtitles.MaxChars
}

func (f *captionFlags) resolvedText(ctx context.Context) (string, error) {
	if text := strings.TrimSpace(f.text); text != "" {
		return text, nil
	}
	if path := strings.TrimSpace(f.textFile); path != "" {
		return document.Extract(ctx, path)
	}
	return "", nil
}

// manualSegments loads --segments, falling back to subtitles.segments_file
// when manual mode is selected.
func (f *captionFlags) manualSegments(cfg *config.Config, mode captions.Mode) ([]captions.Segment, error) {
	path := strings.TrimSpace(f.segmentsFile)
	if path == "" && mode == captions.ModeManual {
		path = strings.TrimSpace(cfg.Subtitles.SegmentsFile)
	}
	if path == "" {
		return nil, nil
	}
	segments, err := captions.LoadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "captions", "load segments", path, err)
	}
	return segments, nil
}
