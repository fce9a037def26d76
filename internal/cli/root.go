package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"reposeed/internal/flags"
	"reposeed/internal/process"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

// Exit codes.
const (
	ExitOK            = 0
	ExitRunFailed     = 1
	ExitConfigInvalid = 2
)

// exitError carries the process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// ExitCode maps an error returned by a command to a process exit code.
// Errors without an explicit code are usage errors from cobra.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitConfigInvalid
}

// globalOptions holds flags shared by every subcommand.
type globalOptions struct {
	configPath string
	verbose    bool
}

// app bundles the process environment a command runs against.
type app struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	global globalOptions

	// newRunner builds the process runner for git and workspace commands.
	newRunner func(logger *slog.Logger, output io.Writer) process.Runner
}

func newApp() *app {
	return &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
		newRunner: func(logger *slog.Logger, output io.Writer) process.Runner {
			return process.NewExecRunner(logger, output)
		},
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "reposeed",
		Short: "Create a batch of GitHub repositories seeded from a template",
		Long: `reposeed creates a batch of repositories in a GitHub organization, adds
collaborators to each, and pushes the history of a template repository into
every new repository.

Examples:
	# Show available commands and global flags
	reposeed --help

	# Check a configuration file without touching GitHub
	reposeed validate --config teams.yaml

	# Preview a run (read-only API calls only)
	reposeed provision --config teams.yaml --dry-run

	# Provision
	REPOSEED_PASSWORD=... reposeed provision --config teams.yaml

	# Print build info
	reposeed version`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVarP(&a.global.configPath, flags.FlagConfig, "c", "", "Path to the YAML configuration file")
	root.PersistentFlags().BoolVar(&a.global.verbose, flags.FlagVerbose, false, "Enable verbose logging (prints every GitHub API call and git command)")

	root.AddCommand(newProvisionCmd(a))
	root.AddCommand(newValidateCmd(a))
	root.AddCommand(newVersionCmd())

	root.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	root.SetVersionTemplate("{{.Version}}\n")
	return root
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	a := newApp()
	err := newRootCmd(a).Execute()
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
	os.Exit(ExitCode(err))
}
