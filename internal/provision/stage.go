package provision

import "fmt"

// Stage names a step of a provisioning run. A run moves through the stages
// in declaration order and never goes back.
type Stage string

const (
	StagePreparingWorkspace    Stage = "preparing-workspace"
	StageListingExisting       Stage = "listing-existing"
	StageCheckingDuplicates    Stage = "checking-duplicates"
	StageCheckingCollaborators Stage = "checking-collaborators"
	StageCreatingRepositories  Stage = "creating-repositories"
	StageCloningTemplate       Stage = "cloning-template"
	StagePushingRepository     Stage = "pushing-repository"
	StageDone                  Stage = "done"
)

func (s Stage) describe(repo string) string {
	switch s {
	case StagePreparingWorkspace:
		return "preparing workspace"
	case StageListingExisting:
		return "listing existing repositories"
	case StageCheckingDuplicates:
		return "checking for duplicate repositories"
	case StageCheckingCollaborators:
		return "checking that collaborators exist"
	case StageCreatingRepositories:
		return "creating repositories"
	case StageCloningTemplate:
		return "cloning template"
	case StagePushingRepository:
		return "pushing template to " + repo
	default:
		return string(s)
	}
}

// StageError records the stage a run failed in. Repo is set for per-repository
// stages.
type StageError struct {
	Stage Stage
	Repo  string
	Err   error
}

func (e *StageError) Error() string {
	if e.Repo != "" {
		return fmt.Sprintf("%s %s: %v", e.Stage, e.Repo, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
