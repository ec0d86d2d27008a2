// Package sandbox runs generated scripts in a subprocess and normalizes
// their output for the conversation: combined stdout/stderr, control
// sequences stripped, tail-truncated to a bounded size.
//
// It is the reference Runner for the code-generation backend. The scripts
// it runs come from a language model, so the process group is killed on
// timeout and output is captured through a bounded rolling buffer rather
// than trusted to stay small.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	osexec "os/exec"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout  = 60 * time.Second
	defaultMaxLines = 500
	defaultMaxBytes = 32 * 1024
)

// Runner executes scripts through an interpreter subprocess.
type Runner struct {
	logger      *zap.Logger
	interpreter []string
	suffix      string
	timeout     time.Duration
	maxLines    int
	maxBytes    int
}

// Option configures a [Runner].
type Option func(*Runner)

// WithInterpreter sets the interpreter command. Default is python3.
func WithInterpreter(name string, args ...string) Option {
	return func(r *Runner) { r.interpreter = append([]string{name}, args...) }
}

// WithScriptSuffix sets the temp file suffix for the script. Default .py.
func WithScriptSuffix(suffix string) Option {
	return func(r *Runner) { r.suffix = suffix }
}

// WithTimeout caps how long a script may run. Default is 60s.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// WithLogger sets the logger. Default is zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		logger:      zap.NewNop(),
		interpreter: []string{"python3"},
		suffix:      ".py",
		timeout:     defaultTimeout,
		maxLines:    defaultMaxLines,
		maxBytes:    defaultMaxBytes,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run writes code to a temp file, executes it under the interpreter, and
// returns the sanitized combined output. A non-zero exit or timeout returns
// an error carrying the output tail, so the failure is still reportable to
// the operator.
func (r *Runner) Run(ctx context.Context, code string) (string, error) {
	script, err := os.CreateTemp("", "teleop-script-*"+r.suffix)
	if err != nil {
		return "", fmt.Errorf("sandbox: %w", err)
	}
	defer os.Remove(script.Name())
	if _, err := script.WriteString(code); err != nil {
		script.Close()
		return "", fmt.Errorf("sandbox: %w", err)
	}
	if err := script.Close(); err != nil {
		return "", fmt.Errorf("sandbox: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := append(r.interpreter[1:], script.Name())
	cmd := osexec.CommandContext(ctx, r.interpreter[0], args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	out := newCollector(r.maxBytes * 2)
	cmd.Stdout = out
	cmd.Stderr = out

	start := time.Now()
	waitErr := cmd.Run()
	output := r.render(out)

	r.logger.Debug("script finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("failed", waitErr != nil))

	if waitErr == nil {
		return output, nil
	}

	var exitErr *osexec.ExitError
	realExit := errors.As(waitErr, &exitErr) && exitErr.ExitCode() >= 0
	if !realExit && ctx.Err() != nil {
		return output, fmt.Errorf("sandbox: script timed out after %s\n%s", r.timeout, output)
	}
	if realExit {
		return output, fmt.Errorf("sandbox: exit code %d\n%s", exitErr.ExitCode(), output)
	}
	return output, fmt.Errorf("sandbox: %w", waitErr)
}

// render sanitizes and truncates the collected output, annotating when the
// collector saw more than what is shown.
func (r *Runner) render(c *collector) string {
	tail, stats := TruncateTail(Sanitize(string(c.bytes())), r.maxLines, r.maxBytes)
	if total := c.totalLines(); stats.Truncated || total > stats.TotalLines {
		if total > stats.TotalLines {
			stats.TotalLines = total
		}
		tail += fmt.Sprintf("\n[showing last %d of %d lines]", stats.KeptLines, stats.TotalLines)
	}
	return tail
}
