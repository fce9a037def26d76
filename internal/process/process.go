// Package process runs external commands with an explicit argument list.
// Commands are never passed through a shell, so repository names and
// credentials cannot inject extra arguments.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"sync"
)

const redacted = "xxxxx"

// Command describes one process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string

	// Env entries ("KEY=value") are appended to the parent environment.
	// They are never logged.
	Env []string

	// Secrets are scrubbed from String() and from captured stderr.
	Secrets []string
}

// String renders the command line for logs and errors with secrets and URL
// passwords removed.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, a := range c.Args {
		parts = append(parts, redactURL(a))
	}
	return c.Redact(strings.Join(parts, " "))
}

// Redact replaces every secret (raw or URL-escaped) in s.
func (c Command) Redact(s string) string {
	for _, secret := range c.Secrets {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, redacted)
		if esc := url.QueryEscape(secret); esc != secret {
			s = strings.ReplaceAll(s, esc, redacted)
		}
		if esc := url.PathEscape(secret); esc != secret {
			s = strings.ReplaceAll(s, esc, redacted)
		}
	}
	return s
}

func redactURL(arg string) string {
	if !strings.Contains(arg, "://") {
		return arg
	}
	u, err := url.Parse(arg)
	if err != nil || u.User == nil {
		return arg
	}
	return u.Redacted()
}

// Runner executes a command and returns nil on exit status zero.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExitError is a command that could not start or exited non-zero.
type ExitError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("command %q failed: %v (stderr: %s)", e.Command, e.Err, e.Stderr)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit status, or -1 if it never ran to completion.
func (e *ExitError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Logger *slog.Logger

	// Output receives the command's stdout and stderr as they are produced.
	// Nil discards them; stderr is captured for errors either way.
	Output io.Writer
}

func NewExecRunner(logger *slog.Logger, output io.Writer) *ExecRunner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ExecRunner{Logger: logger, Output: output}
}

func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	line := cmd.String()
	logger.Info("executing command", "command", line, "dir", cmd.Dir)

	command := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	command.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		command.Env = append(os.Environ(), cmd.Env...)
	}

	var stderr bytes.Buffer
	var out io.Writer = io.Discard
	if r.Output != nil {
		out = &redactWriter{w: r.Output, cmd: cmd}
	}
	command.Stdout = out
	command.Stderr = io.MultiWriter(&stderr, out)

	if err := command.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return &ExitError{
			Command: line,
			Stderr:  cmd.Redact(strings.TrimSpace(stderr.String())),
			Err:     err,
		}
	}
	logger.Debug("command finished", "command", line)
	return nil
}

// redactWriter scrubs secrets from streamed output chunk by chunk.
type redactWriter struct {
	mu  sync.Mutex
	w   io.Writer
	cmd Command
}

func (rw *redactWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if _, err := io.WriteString(rw.w, rw.cmd.Redact(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}
