package output

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type sinkA struct {
	writes   []Event
	writeErr error
	closeErr error
}

func (s *sinkA) Write(e Event) error {
	s.writes = append(s.writes, e)
	return s.writeErr
}

func (s *sinkA) Close() error {
	return s.closeErr
}

type sinkB struct {
	writes   []Event
	writeErr error
	closeErr error
}

func (s *sinkB) Write(e Event) error {
	s.writes = append(s.writes, e)
	return s.writeErr
}

func (s *sinkB) Close() error {
	return s.closeErr
}

func TestManager(t *testing.T) {
	t.Run("writes to all sinks", func(t *testing.T) {
		a := &sinkA{}
		b := &sinkB{}

		mgr := NewManager()
		if err := mgr.AddSink(a); err != nil {
			t.Fatalf("AddSink(a) error: %v", err)
		}
		if err := mgr.AddSink(b); err != nil {
			t.Fatalf("AddSink(b) error: %v", err)
		}

		if err := mgr.Write(Event{Type: EventRunStarted}); err != nil {
			t.Fatalf("Write(run.started) error: %v", err)
		}
		if err := mgr.Write(Event{Type: EventRunFinished}); err != nil {
			t.Fatalf("Write(run.finished) error: %v", err)
		}
		if err := mgr.Close(); err != nil {
			t.Fatalf("Close() error: %v", err)
		}

		if got := len(a.writes); got != 2 {
			t.Fatalf("sinkA writes: want 2, got %d", got)
		}
		if got := len(b.writes); got != 2 {
			t.Fatalf("sinkB writes: want 2, got %d", got)
		}
	})

	t.Run("stamps time only when unset", func(t *testing.T) {
		fixed := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		a := &sinkA{}
		mgr := NewManager()
		mgr.now = func() time.Time { return fixed }
		if err := mgr.AddSink(a); err != nil {
			t.Fatalf("AddSink(a) error: %v", err)
		}

		given := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		_ = mgr.Write(Event{Type: EventRunStarted})
		_ = mgr.Write(Event{Type: EventRunFinished, Time: given})

		if !a.writes[0].Time.Equal(fixed) {
			t.Fatalf("first event time: want %v, got %v", fixed, a.writes[0].Time)
		}
		if !a.writes[1].Time.Equal(given) {
			t.Fatalf("second event time: want %v, got %v", given, a.writes[1].Time)
		}
	})

	t.Run("AddSink rejects nil", func(t *testing.T) {
		mgr := NewManager()
		if err := mgr.AddSink(nil); err == nil {
			t.Fatalf("AddSink(nil) want error, got nil")
		}
	})

	t.Run("Write aggregates sink errors", func(t *testing.T) {
		a := &sinkA{writeErr: errors.New("boom-a")}
		b := &sinkB{writeErr: errors.New("boom-b")}
		mgr := NewManager()
		if err := mgr.AddSink(a); err != nil {
			t.Fatalf("AddSink(a) error: %v", err)
		}
		if err := mgr.AddSink(b); err != nil {
			t.Fatalf("AddSink(b) error: %v", err)
		}

		err := mgr.Write(Event{Type: EventRunStarted})
		if err == nil {
			t.Fatalf("Write want error, got nil")
		}
		msg := err.Error()
		for _, want := range []string{"errors writing to sinks", "boom-a", "boom-b", "sinkA", "sinkB"} {
			if !strings.Contains(msg, want) {
				t.Fatalf("Write error missing %q; got: %s", want, msg)
			}
		}
		if len(b.writes) != 1 {
			t.Fatalf("sinkB should still receive the event after sinkA failed")
		}
	})

	t.Run("Close aggregates sink errors", func(t *testing.T) {
		a := &sinkA{closeErr: errors.New("close-a")}
		b := &sinkB{closeErr: errors.New("close-b")}
		mgr := NewManager()
		if err := mgr.AddSink(a); err != nil {
			t.Fatalf("AddSink(a) error: %v", err)
		}
		if err := mgr.AddSink(b); err != nil {
			t.Fatalf("AddSink(b) error: %v", err)
		}

		err := mgr.Close()
		if err == nil {
			t.Fatalf("Close want error, got nil")
		}
		msg := err.Error()
		for _, want := range []string{"errors closing sinks", "close-a", "close-b", "sinkA", "sinkB"} {
			if !strings.Contains(msg, want) {
				t.Fatalf("Close error missing %q; got: %s", want, msg)
			}
		}
	})
}
