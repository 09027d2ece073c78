package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shortreel/internal/banner"
	"shortreel/internal/export"
	"shortreel/internal/layout"
	"shortreel/internal/overlay"
	"shortreel/internal/pipeline"
	"shortreel/internal/services"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var caps captionFlags
	var videoPath, audioPath, outputPath string
	var writeSRT bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Overlay subtitle banners and narration onto a video",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			video := strings.TrimSpace(videoPath)
			if video == "" {
				video = cfg.Paths.BaseVideo
			}
			if strings.TrimSpace(outputPath) == "" {
				return services.Wrap(services.ErrValidation, "render", "flags", "--output is required", nil)
			}

			mode := caps.resolvedMode(cfg)
			segments, err := caps.manualSegments(cfg, mode)
			if err != nil {
				return err
			}
			text, err := caps.resolvedText(cmd.Context())
			if err != nil {
				return err
			}

			fonts := layout.NewSystemFontChain(logger, cfg.Style.FontPaths)
			compositor, closeFn, err := pipeline.NewCompositor(cfg, fonts, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := compositor.Render(cmd.Context(), overlay.Request{
				VideoPath:  video,
				AudioPath:  strings.TrimSpace(audioPath),
				OutputPath: strings.TrimSpace(outputPath),
				Segments:   segments,
				Captions: overlay.CaptionOptions{
					Mode:         mode,
					Text:         text,
					WordsPerLine: caps.resolvedWordsPerLine(cfg),
					MaxChars:     caps.resolvedMaxChars(cfg),
				},
				Style: banner.StyleFromConfig(cfg.Style),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Rendered %s (%dx%d, %.2fs)\n", result.OutputPath, result.Width, result.Height, result.Duration)
			fmt.Fprintf(out, "Mode %s, %d segments\n", result.Mode, len(result.Segments))
			if writeSRT {
				srtPath := export.SidecarPath(result.OutputPath, ".srt")
				if err := export.WriteSRT(srtPath, result.Segments); err != nil {
					return err
				}
				fmt.Fprintf(out, "Subtitles %s\n", srtPath)
			}
			for _, d := range result.Degradations {
				fmt.Fprintf(out, "Warning: %s\n", d.Error())
			}
			return nil
		},
	}

	caps.register(cmd)
	cmd.Flags().StringVar(&videoPath, "video", "", "Input video (defaults to paths.base_video)")
	cmd.Flags().StringVar(&audioPath, "audio", "", "Narration audio to mix in")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output video path")
	cmd.Flags().BoolVar(&writeSRT, "srt", false, "Write an .srt sidecar next to the output")
	return cmd
}
