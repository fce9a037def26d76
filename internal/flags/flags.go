package flags

// Package flags defines canonical CLI flag names shared across the CLI and
// config validation messages.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&opts.org, flags.FlagOrg, "", "...")
//	arg := "--" + flags.FlagOrg
const (
	// Global
	FlagConfig  = "config"
	FlagVerbose = "verbose"

	// Target
	FlagOrg         = "org"
	FlagHost        = "host"
	FlagAPIURL      = "api-url"
	FlagDescription = "description"

	// Template
	FlagTemplate  = "template"
	FlagBranch    = "branch"
	FlagWorkspace = "workspace"

	// Credentials
	FlagUser       = "user"
	FlagEmbedInURL = "embed-credentials-in-url"

	// Output
	FlagConsoleFormat = "console-format"
	FlagOut           = "out"
	FlagNoConsole     = "no-console"

	// Runtime
	FlagDryRun      = "dry-run"
	FlagConcurrency = "concurrency"
	FlagTimeout     = "timeout"
)
