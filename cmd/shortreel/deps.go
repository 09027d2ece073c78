package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"shortreel/internal/deps"
	"shortreel/internal/preflight"
	"shortreel/internal/services"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tools and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := preflight.CheckSystemDeps(cfg)
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				detail := s.Path
				if !s.Available {
					detail = s.Detail
				}
				rows = append(rows, []string{s.Name, s.Command, statusLabel(s, colorize), yesNo(s.Optional), detail})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Dependency", "Command", "Status", "Optional", "Detail"},
				rows,
				nil,
			))

			checks := []preflight.Result{
				preflight.CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
				preflight.CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir),
				preflight.CheckReadableFile("Base video", cfg.Paths.BaseVideo),
			}
			printChecks(out, checks, colorize)

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				names := make([]string, 0, len(missing))
				for _, m := range missing {
					names = append(names, m.Name)
				}
				return services.Wrap(services.ErrConfiguration, "deps", "check", fmt.Sprintf("missing required tools: %v", names), nil)
			}
			return nil
		},
	}
}

func statusLabel(s deps.Status, colorize bool) string {
	switch {
	case s.Available:
		return paint("ok", text.FgGreen, colorize)
	case s.Optional:
		return paint("missing", text.FgYellow, colorize)
	default:
		return paint("missing", text.FgRed, colorize)
	}
}

func printChecks(out io.Writer, checks []preflight.Result, colorize bool) {
	for _, c := range checks {
		mark := paint("ok", text.FgGreen, colorize)
		if !c.Passed {
			mark = paint("fail", text.FgRed, colorize)
		}
		fmt.Fprintf(out, "%-17s %-4s %s\n", c.Name, mark, c.Detail)
	}
}

func paint(s string, color text.Color, colorize bool) string {
	if !colorize {
		return s
	}
	return color.Sprint(s)
}
