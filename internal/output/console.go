package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Console formats.
const (
	FormatText   = "text"
	FormatNDJSON = "ndjson"
)

type ConsoleSink struct {
	writer io.Writer
	format string
	mu     sync.Mutex

	stage   *color.Color
	success *color.Color
	failure *color.Color
	faint   *color.Color
}

func NewConsoleSink(w io.Writer, format string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = FormatText
	}
	return &ConsoleSink{
		writer:  w,
		format:  format,
		stage:   color.New(color.FgCyan, color.Bold),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed, color.Bold),
		faint:   color.New(color.Faint),
	}
}

func (s *ConsoleSink) Write(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case FormatNDJSON:
		if err := json.NewEncoder(s.writer).Encode(e); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	case FormatText:
		line := s.render(e)
		if line == "" {
			return nil
		}
		if _, err := fmt.Fprintln(s.writer, line); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

// render returns the text line for e, or "" for events that stay silent in
// text mode.
func (s *ConsoleSink) render(e Event) string {
	switch e.Type {
	case EventRunStarted:
		prefix := ""
		if e.DryRun {
			prefix = "[dry-run] "
		}
		return fmt.Sprintf("%sprovisioning %d repositories in %s", prefix, e.Repos, e.Org)
	case EventStageStarted:
		return s.stage.Sprintf("==> %s", e.Message)
	case EventRepoPlanned:
		line := fmt.Sprintf("  would create %s", e.Repo)
		if len(e.Collaborators) > 0 {
			line += s.faint.Sprintf(" (collaborators: %s)", strings.Join(e.Collaborators, ", "))
		}
		return line
	case EventRepoCreated:
		return s.success.Sprintf("  created %s", e.Repo)
	case EventCollaboratorAdded:
		return fmt.Sprintf("    + %s", e.Collaborator)
	case EventRepoPushed:
		return s.success.Sprintf("  pushed %s", e.Repo)
	case EventRunFinished:
		return s.success.Sprint("done")
	case EventRunFailed:
		return s.failure.Sprintf("failed: %s", e.Error)
	default:
		return ""
	}
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.format != FormatText && s.format != FormatNDJSON {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}
