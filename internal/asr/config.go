package asr

import (
	"fmt"
	"log/slog"

	"shortreel/internal/config"
	"shortreel/internal/logging"
	"shortreel/internal/services/whisperx"
)

// FromConfig builds the backend selected by the [asr] section, wrapped in the
// word cache when enabled. The returned close function releases the cache.
func FromConfig(cfg *config.Config, logger *slog.Logger) (Backend, func() error, error) {
	noop := func() error { return nil }
	var backend Backend
	switch cfg.ASR.Backend {
	case "none", "":
		return None{}, noop, nil
	case "json":
		backend = JSONFile{Path: cfg.ASR.JSONPath}
	case "whisperx":
		backend = NewWhisperX(whisperx.NewService(whisperx.Config{
			Model:       cfg.ASR.Model,
			CUDAEnabled: cfg.ASR.CUDAEnabled,
			VADMethod:   cfg.ASR.VADMethod,
			HFToken:     cfg.ASR.HFToken,
			Language:    cfg.ASR.Language,
		}, cfg.Render.FFmpegBinary))
	default:
		return nil, noop, fmt.Errorf("asr backend %q not supported", cfg.ASR.Backend)
	}
	if !cfg.ASR.CacheEnabled {
		return backend, noop, nil
	}
	cache, err := OpenCache(cfg.ASRCachePath())
	if err != nil {
		logging.WarnWithContext(logging.NewComponentLogger(logger, "asr"), "asr cache unavailable", "asr_cache_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "transcripts are not reused between runs"),
			logging.String(logging.FieldErrorHint, "check paths.cache_dir permissions"),
		)
		return backend, noop, nil
	}
	return NewCached(backend, cache, logger), cache.Close, nil
}
