package ytdlp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"dihi/internal/ident"
	"dihi/internal/services"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithJSRuntimeLookup overrides challenge-solver runtime resolution.
func WithJSRuntimeLookup(lookup func() string) Option {
	return func(c *Client) {
		if lookup != nil {
			c.jsRuntime = lookup
		}
	}
}

// Client wraps retrieval engine CLI interactions.
type Client struct {
	binary    string
	exec      Executor
	jsRuntime func() string
}

// New constructs a retrieval engine client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("retrieval engine binary required")
	}
	client := &Client{
		binary:    binary,
		exec:      commandExecutor{},
		jsRuntime: findJSRuntime,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Download runs the engine against the target described by opts. The engine
// fetches, merges, writes sidecars, and appends to the archive manifest on
// success. Progress lines are passed to onProgress when non-nil.
func (c *Client) Download(ctx context.Context, opts Options, onProgress func(string)) error {
	if err := opts.validate(); err != nil {
		return services.Wrap(services.ErrConfiguration, "ytdlp", "download", err.Error(), nil)
	}
	if err := os.MkdirAll(opts.MergedDir, 0o755); err != nil {
		return fmt.Errorf("create merged directory: %w", err)
	}
	if dir := filepath.Dir(opts.ArchivePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create archive directory: %w", err)
		}
	}

	var runtimePath string
	if opts.ChallengeSolver {
		runtimePath = c.jsRuntime()
	}
	args := opts.Args(runtimePath, fileExists(opts.CookiesFile))

	if err := c.exec.Run(ctx, c.binary, args, onProgress); err != nil {
		return services.Wrap(services.ErrExternalTool, "ytdlp", "download", opts.Target, err)
	}
	return nil
}

// Enumerate lists a collection's member item IDs without downloading.
// Output lines that do not look like item IDs are skipped.
func (c *Client) Enumerate(ctx context.Context, opts Options) ([]string, error) {
	if strings.TrimSpace(opts.Target) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "ytdlp", "enumerate", "target required", nil)
	}

	var members []string
	collect := func(line string) {
		token := strings.TrimSpace(line)
		if ident.IsItemID(token) {
			members = append(members, token)
		}
	}

	args := opts.EnumerateArgs(fileExists(opts.CookiesFile))
	if err := c.exec.Run(ctx, c.binary, args, collect); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ytdlp", "enumerate", opts.Target, err)
	}
	return members, nil
}

// findJSRuntime locates the deno binary the engine's challenge solver needs,
// checking PATH first and then common install locations.
func findJSRuntime() string {
	if path, err := exec.LookPath("deno"); err == nil {
		return path
	}
	candidates := []string{"/root/.deno/bin/deno"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".deno", "bin", "deno"))
	}
	for _, candidate := range candidates {
		if fileExists(candidate) {
			return candidate
		}
	}
	// Let the engine resolve it from PATH if it can.
	return "deno"
}

func fileExists(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

const stderrTailLimit = 500

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var stderrTail string
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if onStdout != nil {
				onStdout(scanner.Text())
			}
		}
	}()
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		var tail strings.Builder
		for scanner.Scan() {
			line := scanner.Text()
			tail.WriteString(line)
			tail.WriteByte('\n')
			if tail.Len() > 4*stderrTailLimit {
				trimmed := tail.String()
				tail.Reset()
				tail.WriteString(trimmed[len(trimmed)-2*stderrTailLimit:])
			}
		}
		stderrTail = tail.String()
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if tail := lastChars(stderrTail, stderrTailLimit); tail != "" {
			return fmt.Errorf("%w: %s", err, tail)
		}
		return err
	}
	return nil
}

func lastChars(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
