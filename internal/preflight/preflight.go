package preflight

import (
	"context"
	"strings"

	"shortreel/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options selects which checks RunAll performs.
type Options struct {
	// RequireBaseVideo checks paths.base_video. Renders given an explicit
	// video skip it.
	RequireBaseVideo bool
	// RequireScript checks that a script provider key is configured.
	RequireScript bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result

	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	if cfg.Paths.CacheDir != "" {
		results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))
	}
	if opts.RequireBaseVideo {
		results = append(results, CheckReadableFile("Base video", cfg.Paths.BaseVideo))
	}
	if opts.RequireScript {
		if err := cfg.RequireScriptProvider(); err != nil {
			results = append(results, Result{Name: "Script provider", Detail: err.Error()})
		} else {
			results = append(results, Result{Name: "Script provider", Passed: true, Detail: cfg.LLM.Provider})
		}
	}
	for _, status := range CheckSystemDeps(cfg) {
		if status.Optional && !status.Available {
			continue
		}
		detail := status.Path
		if !status.Available {
			detail = status.Detail
		}
		results = append(results, Result{Name: status.Name, Passed: status.Available, Detail: detail})
	}
	if err := ctx.Err(); err != nil {
		return append(results, Result{Name: "Preflight", Detail: err.Error()})
	}
	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Summary joins failed check names and details for an error message.
func Summary(failed []Result) string {
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, r.Name+": "+r.Detail)
	}
	return strings.Join(parts, "; ")
}
