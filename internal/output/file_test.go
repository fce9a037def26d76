package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFileSink_Extensions(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"run.ndjson", "run.jsonl", "RUN.LOG"} {
		s, err := NewFileSink(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("NewFileSink(%s) error: %v", name, err)
		}
		_ = s.Close()
	}

	_, err := NewFileSink(filepath.Join(dir, "run.json"))
	if err == nil {
		t.Fatalf("expected error for .json, got nil")
	}
	if !strings.Contains(err.Error(), "unsupported output file extension") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewFileSink_EmptyPath(t *testing.T) {
	if _, err := NewFileSink(""); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestNewFileSink_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "run.ndjson")
	s, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected output file to exist: %v", err)
	}
}

func TestFileSink_StreamsEventsAsNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")

	s, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}

	if err := s.Write(Event{Type: EventRunStarted, Org: "acme", Repos: 2}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// Each event reaches the file before Close.
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(b), `"type":"run.started"`) {
		t.Fatalf("expected run.started on disk before Close, got %q", string(b))
	}

	if err := s.Write(Event{Type: EventRunFailed, Stage: "creating-repositories", Error: "boom"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	b, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 ndjson lines, got %d\nbody=%s", len(lines), string(b))
	}

	var e Event
	if err := json.Unmarshal([]byte(lines[1]), &e); err != nil {
		t.Fatalf("Unmarshal line 2 failed: %v", err)
	}
	if e.Type != EventRunFailed || e.Stage != "creating-repositories" || e.Error != "boom" {
		t.Fatalf("unexpected event: %#v", e)
	}
}
