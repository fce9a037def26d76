// Package workspace prepares the scratch directory the template is cloned into.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"reposeed/internal/process"
)

type Preparer struct {
	runner process.Runner
	logger *slog.Logger
}

func NewPreparer(runner process.Runner, logger *slog.Logger) *Preparer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Preparer{runner: runner, logger: logger}
}

// Prepare guarantees that path exists as an empty directory. An existing path
// is removed recursively through the runner and recreated.
func (p *Preparer) Prepare(ctx context.Context, path string) error {
	if path == "" {
		return errors.New("workspace path is empty")
	}

	_, err := os.Lstat(path)
	switch {
	case err == nil:
		p.logger.Info("deleting previously existing workspace", "path", path)
		rm := process.Command{Name: "rm", Args: []string{"-rf", "--", path}}
		if err := p.runner.Run(ctx, rm); err != nil {
			return fmt.Errorf("remove workspace %s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("stat workspace %s: %w", path, err)
	}

	p.logger.Info("creating workspace", "path", path)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create workspace %s: %w", path, err)
	}
	return nil
}
