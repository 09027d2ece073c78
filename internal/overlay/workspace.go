package overlay

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// workspace is a per-render scratch directory holding banner images and the
// filter script. Close removes it unless keep is set.
type workspace struct {
	dir    string
	keep   bool
	logger *slog.Logger
}

func newWorkspace(root string, keep bool, logger *slog.Logger) (*workspace, error) {
	dir, err := os.MkdirTemp(root, "subs_")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &workspace{dir: dir, keep: keep, logger: logger}, nil
}

// bannerPath returns a fresh subtitle_<hex>.png path inside the workspace.
func (w *workspace) bannerPath() string {
	return filepath.Join(w.dir, "subtitle_"+strings.ReplaceAll(uuid.NewString(), "-", "")+".png")
}

func (w *workspace) path(name string) string {
	return filepath.Join(w.dir, name)
}

func (w *workspace) Close() error {
	if w == nil || w.dir == "" {
		return nil
	}
	if w.keep {
		w.logger.Info("keeping banner images", slog.String("workspace", w.dir))
		return nil
	}
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("remove workspace %s: %w", w.dir, err)
	}
	return nil
}
