package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// RunLogPattern matches the per-run log files written by RunLogger.
const RunLogPattern = "run-*.log"

// RunLogger tees base into a JSON log dedicated to a single pipeline run. The
// returned close function must be called once the run finishes.
func RunLogger(base *slog.Logger, dir, runID string) (*slog.Logger, string, func() error, error) {
	dir = strings.TrimSpace(dir)
	runID = strings.TrimSpace(runID)
	if dir == "" || runID == "" {
		return base, "", func() error { return nil }, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", nil, fmt.Errorf("ensure run log dir: %w", err)
	}
	path := filepath.Join(dir, "run-"+runID+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open run log: %w", err)
	}
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)
	logger := TeeLogger(base, newJSONHandler(file, levelVar, false)).With(String(FieldRunID, runID))
	return logger, path, file.Close, nil
}
