package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shortreel/internal/captions"
	"shortreel/internal/config"
	"shortreel/internal/notifications"
	"shortreel/internal/pipeline"
	"shortreel/internal/preflight"
	"shortreel/internal/services"
)

type runFlags struct {
	mode      string
	baseVideo string
	outputDir string
	ctaText   string
	noCTA     bool
	docx      bool
	jsonOut   bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run <document>",
		Short: "Generate a narrated, captioned video from a PDF, text, or markdown file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{RequireBaseVideo: true, RequireScript: true})
			if failed := preflight.Failed(results); len(failed) > 0 {
				return services.Wrap(services.ErrConfiguration, "preflight", "run", preflight.Summary(failed), nil)
			}

			engine, closeFn, err := pipeline.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			notifier := notifications.NewService(cfg.Notifications)
			result, err := engine.Process(cmd.Context(), args[0])
			if err != nil {
				if cmd.Context().Err() == nil {
					notify(cmd.Context(), logger, notifier.NotifyRunFailed(cmd.Context(), args[0], err))
				}
				return err
			}
			notify(cmd.Context(), logger, notifier.NotifyRunCompleted(cmd.Context(), args[0], result.FinalPath, result.Elapsed))
			if flags.jsonOut {
				return writeJSON(cmd, result)
			}
			printRunResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.mode, "mode", "", "Subtitle mode: manual, wordcount, or asr")
	cmd.Flags().StringVar(&flags.baseVideo, "base-video", "", "Background video (defaults to paths.base_video)")
	cmd.Flags().StringVarP(&flags.outputDir, "output", "o", "", "Output directory (defaults to paths.output_dir)")
	cmd.Flags().StringVar(&flags.ctaText, "cta-text", "", "Call-to-action card text")
	cmd.Flags().BoolVar(&flags.noCTA, "no-cta", false, "Skip the call-to-action card")
	cmd.Flags().BoolVar(&flags.docx, "docx", false, "Also export the script as DOCX")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Print the run result as JSON")
	return cmd
}

func (f runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if mode := strings.TrimSpace(f.mode); mode != "" {
		cfg.Subtitles.Mode = string(captions.ParseMode(mode))
	}
	if path := strings.TrimSpace(f.baseVideo); path != "" {
		if expanded, err := config.ExpandPath(path); err == nil {
			cfg.Paths.BaseVideo = expanded
		}
	}
	if dir := strings.TrimSpace(f.outputDir); dir != "" {
		if expanded, err := config.ExpandPath(dir); err == nil {
			cfg.Paths.OutputDir = expanded
		}
	}
	if text := strings.TrimSpace(f.ctaText); text != "" {
		cfg.CTA.Text = text
	}
	if f.noCTA {
		cfg.CTA.Enabled = false
	}
	if cmd.Flags().Changed("docx") {
		cfg.Export.ScriptDocx = f.docx
	}
}

func printRunResult(out io.Writer, result pipeline.Result) {
	fmt.Fprintf(out, "Run:       %s\n", result.RunID)
	fmt.Fprintf(out, "Source:    %s\n", result.Source)
	fmt.Fprintf(out, "Mode:      %s (%d segments)\n", result.Mode, result.Segments)
	fmt.Fprintf(out, "Video:     %s\n", result.FinalPath)
	if result.SRTPath != "" {
		fmt.Fprintf(out, "Subtitles: %s\n", result.SRTPath)
	}
	if result.DocxPath != "" {
		fmt.Fprintf(out, "Script:    %s\n", result.DocxPath)
	}
	if result.RunLogPath != "" {
		fmt.Fprintf(out, "Log:       %s\n", result.RunLogPath)
	}
	fmt.Fprintf(out, "Elapsed:   %s\n", result.Elapsed.Round(time.Millisecond))
	for _, d := range result.Degradations {
		fmt.Fprintf(out, "Warning:   %s\n", d.Error())
	}
}
