// Package media holds the process runner shared by the ffmpeg and ffprobe
// wrappers. Subpackages build arguments; this package executes them.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes binary with args and returns stdout. Implementations
// include trailing stderr in the returned error.
type Runner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// maxStderr bounds how much tool output is folded into an error.
const maxStderr = 2048

// ExecRunner runs the command with exec.CommandContext.
func ExecRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s: %w: %s", binary, err, tail(stderr.String(), maxStderr))
	}
	return stdout.Bytes(), nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
