package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func withoutColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestConsoleSink_Text(t *testing.T) {
	withoutColor(t)

	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "run started",
			event: Event{Type: EventRunStarted, Org: "acme", Repos: 3},
			want:  "provisioning 3 repositories in acme\n",
		},
		{
			name:  "dry run started",
			event: Event{Type: EventRunStarted, Org: "acme", Repos: 1, DryRun: true},
			want:  "[dry-run] provisioning 1 repositories in acme\n",
		},
		{
			name:  "stage started",
			event: Event{Type: EventStageStarted, Stage: "listing-existing", Message: "listing existing repositories"},
			want:  "==> listing existing repositories\n",
		},
		{
			name:  "stage finished is silent",
			event: Event{Type: EventStageFinished, Stage: "listing-existing"},
			want:  "",
		},
		{
			name:  "planned with collaborators",
			event: Event{Type: EventRepoPlanned, Repo: "alpha", Collaborators: []string{"alice", "bob"}},
			want:  "  would create alpha (collaborators: alice, bob)\n",
		},
		{
			name:  "planned without collaborators",
			event: Event{Type: EventRepoPlanned, Repo: "beta"},
			want:  "  would create beta\n",
		},
		{
			name:  "created",
			event: Event{Type: EventRepoCreated, Repo: "alpha"},
			want:  "  created alpha\n",
		},
		{
			name:  "collaborator added",
			event: Event{Type: EventCollaboratorAdded, Repo: "alpha", Collaborator: "alice"},
			want:  "    + alice\n",
		},
		{
			name:  "pushed",
			event: Event{Type: EventRepoPushed, Repo: "alpha"},
			want:  "  pushed alpha\n",
		},
		{
			name:  "failed",
			event: Event{Type: EventRunFailed, Stage: "checking-duplicates", Error: "checking-duplicates: found duplicate repositories: alpha"},
			want:  "failed: checking-duplicates: found duplicate repositories: alpha\n",
		},
		{
			name:  "finished",
			event: Event{Type: EventRunFinished},
			want:  "done\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			sink := NewConsoleSink(&buf, FormatText)
			if err := sink.Write(tt.event); err != nil {
				t.Fatalf("Write error: %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Fatalf("output mismatch\nwant: %q\ngot:  %q", tt.want, got)
			}
		})
	}
}

func TestConsoleSink_NDJSON_WritesEveryEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf, FormatNDJSON)

	for _, e := range []Event{
		{Type: EventStageStarted, Stage: "creating-repositories"},
		{Type: EventStageFinished, Stage: "creating-repositories"},
		{Type: EventRepoCreated, Repo: "alpha"},
	} {
		if err := sink.Write(e); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 ndjson lines, got %d\nbody=%s", len(lines), buf.String())
	}
	var last Event
	if err := json.Unmarshal([]byte(lines[2]), &last); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if last.Type != EventRepoCreated || last.Repo != "alpha" {
		t.Fatalf("unexpected event: %#v", last)
	}
	if strings.Contains(lines[0], `"repo"`) {
		t.Fatalf("empty fields should be omitted: %s", lines[0])
	}
}

func TestConsoleSink_UnsupportedFormat(t *testing.T) {
	sink := NewConsoleSink(&bytes.Buffer{}, "xml")
	if err := sink.Write(Event{Type: EventRunStarted}); err == nil {
		t.Fatalf("Write want error, got nil")
	}
	if err := sink.Close(); err == nil {
		t.Fatalf("Close want error, got nil")
	}
}
