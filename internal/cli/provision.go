package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"reposeed/internal/config"
	"reposeed/internal/git"
	gh "reposeed/internal/github"
	"reposeed/internal/output"
	"reposeed/internal/provision"
	"reposeed/internal/workspace"
)

func newProvisionCmd(a *app) *cobra.Command {
	opts := &configOptions{}
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the configured repositories and seed them from the template",
		Long: `Create every configured repository in the target organization, add its
collaborators, and push the template branch into it.

The run stops at the first failing step:
	1. prepare the scratch workspace (deleted and recreated)
	2. list the organization's repositories
	3. refuse if any configured name already exists
	4. refuse if any collaborator is not a GitHub user
	5. create all repositories and add their collaborators (concurrently)
	6. clone the template into the workspace
	7. push the template branch to each repository, in configuration order

Nothing is rolled back: repositories created before a failure stay in place.

Authentication:
	Either credentials.user plus a password (credentials.password or
	REPOSEED_PASSWORD), or a token: credentials.token, GITHUB_TOKEN, or the
	GitHub CLI (gh auth token). Credentials are never written to logs, command
	lines or remote URLs unless --embed-credentials-in-url is set.

Output:
	Console output is controlled by --console-format (default: text). With
	ndjson, every lifecycle event is one JSON object per line with a "type"
	field (run.started, stage.started, stage.finished, repo.created,
	collaborator.added, repo.pushed, repo.planned, run.finished, run.failed).

Exit codes:
	0 = all repositories created and pushed
	1 = the run failed
	2 = invalid configuration or credentials

Examples:
	reposeed provision --config teams.yaml
	reposeed provision --config teams.yaml --dry-run
	reposeed provision --config teams.yaml --no-console --out run.ndjson`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runProvision(cmd, opts)
		},
	}
	bindConfigFlags(cmd, opts)
	bindRunFlags(cmd, opts)
	return cmd
}

func (a *app) runProvision(cmd *cobra.Command, opts *configOptions) error {
	cfg, err := a.loadConfig(cmd, opts)
	if err != nil {
		return withExitCode(ExitConfigInvalid, err)
	}

	logger := newLogger(a.stderr, cfg.Runtime.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if cfg.Runtime.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Runtime.Timeout)
		defer cancel()
	}

	if err := resolveCredentials(ctx, cfg, logger); err != nil {
		return withExitCode(ExitConfigInvalid, err)
	}

	deps, err := a.buildDeps(ctx, cfg, logger)
	if err != nil {
		return withExitCode(ExitConfigInvalid, err)
	}

	outMgr, err := setupOutputManager(cfg, a.stdout)
	if err != nil {
		return withExitCode(ExitConfigInvalid, err)
	}
	runErr := provision.NewEngine(deps.platform, deps.preparer, deps.vcs,
		provision.WithReporter(outMgr),
		provision.WithLogger(logger),
	).Run(ctx, cfg)
	if err := outMgr.Close(); err != nil {
		logger.Warn("failed to close output", "error", err)
	}
	return withExitCode(ExitRunFailed, runErr)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolveCredentials falls back to a token when no user is configured.
func resolveCredentials(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	cfg.Credentials.User = strings.TrimSpace(cfg.Credentials.User)
	if cfg.Credentials.User == "" {
		token, source, err := gh.ResolveAuthToken(ctx, cfg.Credentials.Token, cfg.Target.Host)
		if err != nil {
			return fmt.Errorf("failed to resolve GitHub auth token: %w", err)
		}
		cfg.Credentials.Token = token
		if token != "" {
			logger.Debug("using GitHub token", "source", source)
		}
	}
	return cfg.Credentials.Validate()
}

type runDeps struct {
	platform provision.Platform
	preparer provision.Preparer
	vcs      provision.VCS
}

func (a *app) buildDeps(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*runDeps, error) {
	creds := cfg.Credentials
	client, err := gh.NewClient(ctx,
		gh.Auth{User: creds.User, Password: creds.Password, Token: creds.Token},
		gh.WithVerbose(cfg.Runtime.Verbose, a.stderr),
		gh.WithAPIURL(cfg.Target.APIURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	// Git progress is only streamed in verbose mode; stderr is captured for errors regardless.
	var gitOutput io.Writer
	if cfg.Runtime.Verbose {
		gitOutput = a.stderr
	}
	runner := a.newRunner(logger, gitOutput)

	return &runDeps{
		platform: client,
		preparer: workspace.NewPreparer(runner, logger),
		vcs: git.NewWorkspace(runner, cfg.Template.Workspace, cfg.Target.Host, git.Auth{
			User:       creds.User,
			Password:   creds.Password,
			Token:      creds.Token,
			EmbedInURL: creds.EmbedInURL,
		}),
	}, nil
}

func setupOutputManager(cfg *config.Config, stdout io.Writer) (*output.Manager, error) {
	outMgr := output.NewManager()

	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(stdout, cfg.Output.ConsoleFormat)); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}
