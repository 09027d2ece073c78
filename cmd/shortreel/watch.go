package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shortreel/internal/config"
	"shortreel/internal/document"
	"shortreel/internal/logging"
	"shortreel/internal/notifications"
	"shortreel/internal/pipeline"
	"shortreel/internal/preflight"
	"shortreel/internal/services"
	"shortreel/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var scanExisting bool
	var maxConcurrent int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process documents dropped into the watch directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if d := strings.TrimSpace(dir); d != "" {
				expanded, err := config.ExpandPath(d)
				if err != nil {
					return err
				}
				cfg.Watch.InputDir = expanded
			}
			if maxConcurrent > 0 {
				cfg.Watch.MaxConcurrent = maxConcurrent
			}

			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{RequireBaseVideo: true, RequireScript: true})
			if failed := preflight.Failed(results); len(failed) > 0 {
				return services.Wrap(services.ErrConfiguration, "preflight", "watch", preflight.Summary(failed), nil)
			}

			engine, closeFn, err := pipeline.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeFn()

			notifier := notifications.NewService(cfg.Notifications)
			w, err := watch.New(watch.Options{
				Dir:           cfg.Watch.InputDir,
				MaxConcurrent: cfg.Watch.MaxConcurrent,
				Settle:        time.Duration(cfg.Watch.SettleMillis) * time.Millisecond,
				Accept:        document.Supported,
				ScanExisting:  scanExisting,
			}, processHandler(engine, notifier, logger), logger)
			if err != nil {
				return err
			}
			logger.Info("watching for documents",
				logging.String("dir", cfg.Watch.InputDir),
				logging.Int("max_concurrent", cfg.Watch.MaxConcurrent),
			)
			notify(cmd.Context(), logger, notifier.NotifyWatchStarted(cmd.Context(), cfg.Watch.InputDir))
			return w.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory to watch (defaults to watch.input_dir)")
	cmd.Flags().BoolVar(&scanExisting, "scan-existing", true, "Process documents already in the directory")
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 0, "Concurrent runs (defaults to watch.max_concurrent)")
	return cmd
}

type documentProcessor interface {
	Process(ctx context.Context, documentPath string) (pipeline.Result, error)
}

func processHandler(engine documentProcessor, notifier notifications.Service, logger *slog.Logger) watch.Handler {
	return func(ctx context.Context, path string) error {
		result, err := engine.Process(ctx, path)
		if err != nil {
			if ctx.Err() == nil {
				notify(ctx, logger, notifier.NotifyRunFailed(ctx, path, err))
			}
			return err
		}
		notify(ctx, logger, notifier.NotifyRunCompleted(ctx, path, result.FinalPath, result.Elapsed))
		logger.Info("document processed",
			logging.String("source", path),
			logging.String("video", result.FinalPath),
			logging.String(logging.FieldRunID, result.RunID),
		)
		return nil
	}
}

// notify logs a failed delivery; notifications never fail a run.
func notify(ctx context.Context, logger *slog.Logger, err error) {
	if err == nil {
		return
	}
	logging.WarnWithContext(logging.WithContext(ctx, logger), "notification failed", "notification_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "run outcome not delivered to ntfy"),
		logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
	)
}
