package output

import "time"

// Event types emitted over the course of a provisioning run.
const (
	EventRunStarted        = "run.started"
	EventStageStarted      = "stage.started"
	EventStageFinished     = "stage.finished"
	EventRepoPlanned       = "repo.planned"
	EventRepoCreated       = "repo.created"
	EventCollaboratorAdded = "collaborator.added"
	EventRepoPushed        = "repo.pushed"
	EventRunFinished       = "run.finished"
	EventRunFailed         = "run.failed"
)

// Event is a lifecycle record. Console text mode renders it as a line of
// progress; NDJSON mode encodes one object per line.
type Event struct {
	Type          string    `json:"type"`
	Time          time.Time `json:"time"`
	Org           string    `json:"org,omitempty"`
	Stage         string    `json:"stage,omitempty"`
	Repo          string    `json:"repo,omitempty"`
	Collaborator  string    `json:"collaborator,omitempty"`
	Collaborators []string  `json:"collaborators,omitempty"`
	Message       string    `json:"message,omitempty"`
	Error         string    `json:"error,omitempty"`
	Repos         int       `json:"repos,omitempty"`
	DryRun        bool      `json:"dry_run,omitempty"`
}
