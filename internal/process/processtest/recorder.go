// Package processtest provides a process.Runner that records invocations
// instead of running them.
package processtest

import (
	"context"
	"strings"
	"sync"

	"reposeed/internal/process"
)

// Recorder is a process.Runner for tests. It records every command and the
// start/end order of invocations so tests can assert sequencing.
type Recorder struct {
	// Fail, if set, decides the result of each command.
	Fail func(cmd process.Command) error

	// During, if set, runs while the command is "executing".
	During func(cmd process.Command)

	mu        sync.Mutex
	commands  []process.Command
	events    []string
	active    int
	maxActive int
}

func (r *Recorder) Run(ctx context.Context, cmd process.Command) error {
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	r.events = append(r.events, "start "+Line(cmd))
	r.active++
	if r.active > r.maxActive {
		r.maxActive = r.active
	}
	r.mu.Unlock()

	if r.During != nil {
		r.During(cmd)
	}
	var err error
	if r.Fail != nil {
		err = r.Fail(cmd)
	}
	if err == nil {
		err = ctx.Err()
	}

	r.mu.Lock()
	r.active--
	r.events = append(r.events, "end "+Line(cmd))
	r.mu.Unlock()
	return err
}

// Commands returns the recorded commands in invocation order.
func (r *Recorder) Commands() []process.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]process.Command(nil), r.commands...)
}

// Lines returns the recorded command lines ("name arg...") in invocation order.
func (r *Recorder) Lines() []string {
	cmds := r.Commands()
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, Line(c))
	}
	return out
}

// Events returns "start <line>" and "end <line>" markers in the order they happened.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// MaxConcurrent is the largest number of commands that were in flight at once.
func (r *Recorder) MaxConcurrent() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxActive
}

// Line joins the command name and raw arguments.
func Line(cmd process.Command) string {
	return strings.Join(append([]string{cmd.Name}, cmd.Args...), " ")
}
