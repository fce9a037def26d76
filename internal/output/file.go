package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileSink appends every event to a file as NDJSON, giving an audit trail of
// the run.
type FileSink struct {
	path string
	file *os.File
	buf  *bufio.Writer
	mu   sync.Mutex
}

func NewFileSink(path string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("output path required")
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".ndjson", ".jsonl", ".log":
	default:
		return nil, fmt.Errorf("unsupported output file extension %q (want .ndjson, .jsonl or .log)", ext)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &FileSink{
		path: path,
		file: f,
		buf:  bufio.NewWriter(f),
	}, nil
}

func (s *FileSink) Write(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := json.NewEncoder(s.buf).Encode(e); err != nil {
		return err
	}
	// Flush per event so a crashed run still leaves its trail on disk.
	return flushIfPossible(s.buf)
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.buf.Flush()
	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
