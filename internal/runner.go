package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// ErrToolMissing is returned when the external tool is not on the execution
// search path at all, as opposed to the tool running and exiting non-zero.
var ErrToolMissing = errors.New("tool not found in PATH")

// Runner executes an external command-line tool and returns its stdout.
// Implementations must distinguish a missing tool (ErrToolMissing) from a
// tool that ran and exited non-zero.
type Runner interface {
	Run(ctx context.Context, tool string, args []string, opts RunOptions) (string, error)
}

// RunOptions carries per-invocation settings. Env entries are appended to the
// parent environment for this single subprocess only; the process-wide
// environment is never touched.
type RunOptions struct {
	Dir string
	Env []string
}

// ExecRunner runs tools via os/exec.
type ExecRunner struct{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, tool string, args []string, opts RunOptions) (string, error) {
	if _, err := exec.LookPath(tool); err != nil {
		return "", fmt.Errorf("%s: %w", tool, ErrToolMissing)
	}

	cmd := exec.CommandContext(ctx, tool, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("run %s: %w", tool, err)
		}
		msg := strings.TrimSpace(errb.String())
		if msg == "" {
			// Some tools report errors on stdout.
			msg = strings.TrimSpace(out.String())
		}
		if msg == "" {
			msg = fmt.Sprintf("exited with status %d", exitErr.ExitCode())
		}
		return "", fmt.Errorf("%s: %s", tool, msg)
	}

	return out.String(), nil
}

// logger overrides the default diagnostics destination when set via
// SetLogger. Diagnostics are warnings only: parse anomalies and classifier
// misses.
var logger *slog.Logger

// SetLogger redirects diagnostic warnings to l. A nil l restores the
// process-default logger.
func SetLogger(l *slog.Logger) {
	logger = l
}

func logWarn(msg string, args ...any) {
	l := logger
	if l == nil {
		l = slog.Default()
	}
	l.Warn(msg, args...)
}

const previewLimit = 4000

// preview truncates raw tool output for diagnostic logging, collapsing line
// breaks to a visible marker so the preview fits on one log line.
func preview(s string) string {
	if len(s) > previewLimit {
		s = s[:previewLimit]
	}
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// logParseAnomaly records that a tool ran successfully but its output yielded
// nothing usable. Observational only; callers still return an empty result.
func logParseAnomaly(provider Provider, raw string) {
	logWarn("no entries parsed from tool output",
		"provider", provider.String(),
		"output", preview(raw))
}
