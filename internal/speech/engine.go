package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"shortreel/internal/services/llm"
)

// OutputPlaceholder is replaced by the destination path in command args.
const OutputPlaceholder = "{{output}}"

// DefaultCommandArgs suit espeak-ng.
var DefaultCommandArgs = []string{"--stdin", "-w", OutputPlaceholder}

// Engine writes speech audio for text to dest.
type Engine interface {
	Name() string
	Synthesize(ctx context.Context, text, dest string) error
}

// StdinRunner runs binary with stdin attached and returns stdout.
type StdinRunner func(ctx context.Context, stdin, binary string, args ...string) ([]byte, error)

// ExecStdinRunner runs the command with exec.CommandContext.
func ExecStdinRunner(ctx context.Context, stdin, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s: %w: %s", binary, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Command synthesizes with a local TTS binary. When no argument carries the
// output placeholder, stdout is written to the destination instead.
type Command struct {
	Binary string
	Args   []string
	Run    StdinRunner
}

func (c Command) Name() string { return "command:" + filepath.Base(c.Binary) }

func (c Command) Synthesize(ctx context.Context, text, dest string) error {
	args := c.Args
	if len(args) == 0 {
		args = DefaultCommandArgs
	}
	run := c.Run
	if run == nil {
		run = ExecStdinRunner
	}
	resolved := make([]string, len(args))
	toStdout := true
	for i, arg := range args {
		if strings.Contains(arg, OutputPlaceholder) {
			toStdout = false
		}
		resolved[i] = strings.ReplaceAll(arg, OutputPlaceholder, dest)
	}
	out, err := run(ctx, text, c.Binary, resolved...)
	if err != nil {
		return err
	}
	if toStdout {
		if len(out) == 0 {
			return errors.New("tts command produced no audio on stdout")
		}
		return os.WriteFile(dest, out, 0o644)
	}
	return nil
}

// OpenAI synthesizes through an OpenAI-compatible speech endpoint.
type OpenAI struct {
	Client *llm.Client
	Model  string
	Voice  string
}

func (o OpenAI) Name() string { return "openai:" + o.Model }

func (o OpenAI) Synthesize(ctx context.Context, text, dest string) error {
	audio, err := o.Client.Speech(ctx, o.Model, o.Voice, responseFormat(dest), text)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, audio, 0o644)
}

func responseFormat(dest string) string {
	switch ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(dest)), "."); ext {
	case "wav", "mp3", "flac", "aac", "opus":
		return ext
	default:
		return "mp3"
	}
}
