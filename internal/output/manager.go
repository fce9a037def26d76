package output

import (
	"errors"
	"fmt"
	"time"
)

// Sink defines a destination for run events.
type Sink interface {
	Write(e Event) error
	Close() error
}

// Manager fans events out to multiple sinks.
type Manager struct {
	sinks []Sink
	now   func() time.Time
}

func NewManager() *Manager {
	return &Manager{now: time.Now}
}

func (m *Manager) AddSink(s Sink) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	if s == nil {
		return fmt.Errorf("sink must not be nil")
	}
	m.sinks = append(m.sinks, s)
	return nil
}

// Write stamps the event with the current time when unset and hands it to
// every sink. A failing sink does not stop the others.
func (m *Manager) Write(e Event) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	if e.Time.IsZero() && m.now != nil {
		e.Time = m.now().UTC()
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(e); err != nil {
			errs = append(errs, fmt.Errorf("write %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors writing to sinks: %w", errors.Join(errs...))
	}
	return nil
}

func (m *Manager) Close() error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sinks: %w", errors.Join(errs...))
	}
	return nil
}
