// Package provision runs a batch of repository creations against one
// organization: it guards against name collisions and unknown collaborators,
// creates every repository, then seeds each one with the template history.
package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"reposeed/internal/config"
	"reposeed/internal/output"
)

// Platform is the subset of the hosting API a run needs.
type Platform interface {
	ListOrgRepositoryNames(ctx context.Context, org string) ([]string, error)
	UserExists(ctx context.Context, login string) (bool, error)
	CreateRepository(ctx context.Context, org, name, description string) error
	AddCollaborator(ctx context.Context, org, repo, login string) error
}

// Preparer readies the scratch workspace.
type Preparer interface {
	Prepare(ctx context.Context, path string) error
}

// VCS operates on the local clone of the template.
type VCS interface {
	Clone(ctx context.Context, templateURL string) error
	AddRemote(ctx context.Context, name, remoteURL string) error
	Push(ctx context.Context, remote, branch string) error
	RemoteURL(org, repo string) string
}

// Reporter receives lifecycle events. output.Manager satisfies it.
type Reporter interface {
	Write(e output.Event) error
}

type Engine struct {
	platform Platform
	preparer Preparer
	vcs      VCS
	reporter Reporter
	logger   *slog.Logger

	mu sync.Mutex
}

type Option func(*Engine)

func WithReporter(r Reporter) Option {
	return func(e *Engine) {
		e.reporter = r
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewEngine(platform Platform, preparer Preparer, vcs VCS, opts ...Option) *Engine {
	e := &Engine{
		platform: platform,
		preparer: preparer,
		vcs:      vcs,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, apply := range opts {
		if apply != nil {
			apply(e)
		}
	}
	return e
}

// Run executes the whole pipeline for cfg, which must already be validated.
// The first failing stage ends the run; its error is returned as a
// *StageError. Nothing created before the failure is rolled back.
//
// With cfg.Runtime.DryRun set, only the read-only stages run and the planned
// repositories are reported instead of created.
func (e *Engine) Run(ctx context.Context, cfg *config.Config) (err error) {
	if ctx == nil {
		return errors.New("context is nil")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	if e.platform == nil || e.preparer == nil || e.vcs == nil {
		return errors.New("provision engine is not fully configured")
	}

	e.logger.Info("provisioning", "org", cfg.Target.Org, "repos", cfg.RepositoryNames(), "dry_run", cfg.Runtime.DryRun)
	e.emit(output.Event{
		Type:   output.EventRunStarted,
		Org:    cfg.Target.Org,
		Repos:  len(cfg.Repositories),
		DryRun: cfg.Runtime.DryRun,
	})
	defer func() {
		if err == nil {
			e.emit(output.Event{Type: output.EventRunFinished, Stage: string(StageDone), Org: cfg.Target.Org})
			return
		}
		ev := output.Event{Type: output.EventRunFailed, Org: cfg.Target.Org, Error: err.Error()}
		var se *StageError
		if errors.As(err, &se) {
			ev.Stage = string(se.Stage)
			ev.Repo = se.Repo
		}
		e.emit(ev)
	}()

	if !cfg.Runtime.DryRun {
		if err := e.stage(ctx, StagePreparingWorkspace, "", func() error {
			return e.preparer.Prepare(ctx, cfg.Template.Workspace)
		}); err != nil {
			return err
		}
	}

	var existing []string
	if err := e.stage(ctx, StageListingExisting, "", func() error {
		var err error
		existing, err = e.listExisting(ctx, cfg.Target.Org)
		return err
	}); err != nil {
		return err
	}

	if err := e.stage(ctx, StageCheckingDuplicates, "", func() error {
		_, err := CheckDuplicates(cfg.Repositories, existing)
		return err
	}); err != nil {
		return err
	}

	if err := e.stage(ctx, StageCheckingCollaborators, "", func() error {
		return e.checkCollaborators(ctx, cfg.Collaborators(), cfg.Runtime.Concurrency)
	}); err != nil {
		return err
	}

	if cfg.Runtime.DryRun {
		e.reportPlan(cfg)
		return nil
	}

	if err := e.stage(ctx, StageCreatingRepositories, "", func() error {
		return e.createRepositories(ctx, cfg)
	}); err != nil {
		return err
	}

	if err := e.stage(ctx, StageCloningTemplate, "", func() error {
		return e.vcs.Clone(ctx, cfg.Template.URL)
	}); err != nil {
		return err
	}

	return e.pushInitialCommits(ctx, cfg)
}

// stage runs fn as the given stage, reporting its start and end.
func (e *Engine) stage(ctx context.Context, s Stage, repo string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: s, Repo: repo, Err: err}
	}
	e.emit(output.Event{Type: output.EventStageStarted, Stage: string(s), Repo: repo, Message: s.describe(repo)})
	if err := fn(); err != nil {
		return &StageError{Stage: s, Repo: repo, Err: err}
	}
	e.emit(output.Event{Type: output.EventStageFinished, Stage: string(s), Repo: repo})
	return nil
}

func (e *Engine) listExisting(ctx context.Context, org string) ([]string, error) {
	names, err := e.platform.ListOrgRepositoryNames(ctx, org)
	if err != nil {
		return nil, err
	}
	e.logger.Info("existing repositories", "org", org, "count", len(names), "names", names)
	return names, nil
}

// checkCollaborators looks up every distinct login concurrently. A lookup
// that errors aborts the check; logins the platform does not know are collected and
// reported together.
func (e *Engine) checkCollaborators(ctx context.Context, logins []string, concurrency int) error {
	logins = distinctLogins(logins)
	if len(logins) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(groupLimit(concurrency))

	var (
		mu      sync.Mutex
		missing []string
	)
	for _, login := range logins {
		g.Go(func() error {
			ok, err := e.platform.UserExists(gctx, login)
			if err != nil {
				return fmt.Errorf("check collaborator %s: %w", login, err)
			}
			if !ok {
				mu.Lock()
				missing = append(missing, login)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &MissingCollaboratorsError{Logins: missing}
	}
	return nil
}

// createRepositories creates all configured repositories concurrently. Each
// repository is independent: a failure is recorded and the others still run.
func (e *Engine) createRepositories(ctx context.Context, cfg *config.Config) error {
	var g errgroup.Group
	g.SetLimit(groupLimit(cfg.Runtime.Concurrency))

	errs := make([]error, len(cfg.Repositories))
	for i, spec := range cfg.Repositories {
		g.Go(func() error {
			errs[i] = e.createRepository(ctx, cfg.Target.Org, cfg.Target.Description, spec)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (e *Engine) createRepository(ctx context.Context, org, description string, spec config.RepositorySpec) error {
	if err := e.platform.CreateRepository(ctx, org, spec.Name, description); err != nil {
		return wrapRepoError("create repository", spec.Name, err)
	}
	e.logger.Info("created repository", "org", org, "repo", spec.Name)
	e.emit(output.Event{Type: output.EventRepoCreated, Org: org, Repo: spec.Name})

	if len(spec.Collaborators) == 0 {
		return nil
	}

	var g errgroup.Group
	errs := make([]error, len(spec.Collaborators))
	for i, login := range spec.Collaborators {
		g.Go(func() error {
			if err := e.platform.AddCollaborator(ctx, org, spec.Name, login); err != nil {
				errs[i] = fmt.Errorf("add collaborator %s to %s: %w", login, spec.Name, err)
				return nil
			}
			e.emit(output.Event{Type: output.EventCollaboratorAdded, Org: org, Repo: spec.Name, Collaborator: login})
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// pushInitialCommits pushes the template branch to each repository, one at a
// time in configuration order. The first failure stops the remaining pushes.
func (e *Engine) pushInitialCommits(ctx context.Context, cfg *config.Config) error {
	for _, spec := range cfg.Repositories {
		if err := e.stage(ctx, StagePushingRepository, spec.Name, func() error {
			return e.pushInitialCommit(ctx, cfg, spec.Name)
		}); err != nil {
			return err
		}
	}
	return nil
}

// remoteName is the clone's remote for repo. The prefix keeps it clear of the
// clone's own origin.
func remoteName(repo string) string {
	return remotePrefix + repo
}

const remotePrefix = "reposeed-"

func (e *Engine) pushInitialCommit(ctx context.Context, cfg *config.Config, repo string) error {
	remote := remoteName(repo)
	if err := e.vcs.AddRemote(ctx, remote, e.vcs.RemoteURL(cfg.Target.Org, repo)); err != nil {
		return err
	}
	if err := e.vcs.Push(ctx, remote, cfg.Template.Branch); err != nil {
		return err
	}
	e.logger.Info("pushed template", "org", cfg.Target.Org, "repo", repo, "branch", cfg.Template.Branch)
	e.emit(output.Event{Type: output.EventRepoPushed, Org: cfg.Target.Org, Repo: repo})
	return nil
}

func (e *Engine) reportPlan(cfg *config.Config) {
	for _, spec := range cfg.Repositories {
		e.emit(output.Event{
			Type:          output.EventRepoPlanned,
			Org:           cfg.Target.Org,
			Repo:          spec.Name,
			Collaborators: spec.Collaborators,
			DryRun:        true,
		})
	}
}

// emit serializes reporter writes; creations report from several goroutines.
func (e *Engine) emit(ev output.Event) {
	if e.reporter == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.reporter.Write(ev); err != nil {
		e.logger.Warn("failed to write event", "type", ev.Type, "error", err)
	}
}
