package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"shortreel/internal/asr"
	"shortreel/internal/captions"
	"shortreel/internal/media/ffprobe"
	"shortreel/internal/services"
)

func newSegmentsCommand(ctx *commandContext) *cobra.Command {
	var caps captionFlags
	var audioPath string
	var duration float64
	var format string

	cmd := &cobra.Command{
		Use:   "segments",
		Short: "Build subtitle segments without rendering",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			mode := caps.resolvedMode(cfg)
			audio := strings.TrimSpace(audioPath)
			if duration <= 0 && audio != "" && mode != captions.ModeASR {
				probe, err := ffprobe.Inspect(cmd.Context(), cfg.Render.FFprobeBinary, audio)
				if err != nil {
					return services.Wrap(services.ErrExternalTool, "segments", "probe audio", audio, err)
				}
				duration = probe.DurationSeconds()
			}

			text, err := caps.resolvedText(cmd.Context())
			if err != nil {
				return err
			}
			fallback := captions.WordCount{
				Text:         text,
				Duration:     duration,
				WordsPerLine: caps.resolvedWordsPerLine(cfg),
			}

			var strategy captions.Strategy = fallback
			needsText := true
			switch mode {
			case captions.ModeManual:
				segments, err := caps.manualSegments(cfg, mode)
				if err != nil {
					return err
				}
				strategy = captions.Manual{Segments: segments, Fallback: fallback}
				needsText = len(segments) == 0
			case captions.ModeASR:
				if audio == "" {
					return services.Wrap(services.ErrValidation, "segments", "flags", "--audio is required in asr mode", nil)
				}
				strategy = captions.ASR{AudioPath: audio, MaxChars: caps.resolvedMaxChars(cfg)}
				needsText = false
			}
			if needsText && (strings.TrimSpace(text) == "" || duration <= 0) {
				return services.Wrap(services.ErrValidation, "segments", "flags", "wordcount segments need text and --duration or --audio", nil)
			}

			backend, closeFn, err := asr.FromConfig(cfg, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := captions.NewBuilder(backend, logger).Build(cmd.Context(), strategy)
			if err != nil {
				return err
			}
			return writeSegments(cmd, result, format)
		},
	}

	caps.register(cmd)
	cmd.Flags().StringVar(&audioPath, "audio", "", "Narration audio (transcribed in asr mode, probed for duration otherwise)")
	cmd.Flags().Float64Var(&duration, "duration", 0, "Narration length in seconds for wordcount mode")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json, yaml, or srt")
	return cmd
}

func writeSegments(cmd *cobra.Command, result captions.Result, format string) error {
	out := cmd.OutOrStdout()
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return writeJSON(cmd, result.Segments)
	case "yaml":
		data, err := captions.MarshalYAML(result.Segments)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case "srt":
		_, err := fmt.Fprint(out, captions.FormatSRT(result.Segments))
		return err
	case "", "table":
	default:
		return services.Wrap(services.ErrValidation, "segments", "flags", "unknown format "+strconv.Quote(format), nil)
	}

	rows := make([][]string, 0, len(result.Segments))
	for i, seg := range result.Segments {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(seg.Start, 'f', 2, 64),
			strconv.FormatFloat(seg.End, 'f', 2, 64),
			seg.Text,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Start", "End", "Text"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "Mode %s, %d segments", result.Mode, len(result.Segments))
	if len(result.Dropped) > 0 {
		fmt.Fprintf(out, ", %d dropped", len(result.Dropped))
	}
	fmt.Fprintln(out)
	for _, d := range result.Degradations {
		fmt.Fprintf(out, "Warning: %s\n", d.Error())
	}
	return nil
}
