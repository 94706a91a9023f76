package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"dihi/internal/services"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (stdout []byte, err error)
}

// Option configures the runner.
type Option func(*Runner)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *Runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// Runner invokes the external transcoding tool with explicit argument lists.
type Runner struct {
	ffmpeg  string
	ffprobe string
	exec    Executor
}

// NewRunner constructs a transcoding tool runner.
func NewRunner(ffmpegBinary, ffprobeBinary string, opts ...Option) (*Runner, error) {
	ffmpegBinary = strings.TrimSpace(ffmpegBinary)
	ffprobeBinary = strings.TrimSpace(ffprobeBinary)
	if ffmpegBinary == "" || ffprobeBinary == "" {
		return nil, errors.New("ffmpeg and ffprobe binaries required")
	}
	runner := &Runner{ffmpeg: ffmpegBinary, ffprobe: ffprobeBinary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(runner)
	}
	return runner, nil
}

// Run executes one ffmpeg invocation. Failure is a non-zero exit; the stderr
// tail rides along in the error since the tool prints its banner first and
// the real failure last.
func (r *Runner) Run(ctx context.Context, args []string) error {
	if _, err := r.exec.Run(ctx, r.ffmpeg, args); err != nil {
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "run", "", err)
	}
	return nil
}

// RunCreating executes an ffmpeg invocation that produces output, removing
// the partial file when the invocation fails.
func (r *Runner) RunCreating(ctx context.Context, args []string, output string) error {
	if err := r.Run(ctx, args); err != nil {
		if output != "" {
			_ = os.Remove(output)
		}
		return err
	}
	return nil
}

const stderrTailLimit = 500

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		tail := strings.TrimSpace(stderr.String())
		if len(tail) > stderrTailLimit {
			tail = tail[len(tail)-stderrTailLimit:]
		}
		if tail != "" {
			return nil, fmt.Errorf("%w: %s", err, tail)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
