package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reposeed/internal/config"
	"reposeed/internal/flags"
)

// configOptions mirrors the configuration keys that can be overridden on the
// command line. A flag only wins over the file when it was set explicitly.
type configOptions struct {
	org         string
	host        string
	apiURL      string
	description string

	template  string
	branch    string
	workspace string

	user       string
	embedInURL bool

	consoleFormat string
	out           string
	noConsole     bool

	dryRun      bool
	concurrency int
	timeout     time.Duration
}

func bindConfigFlags(cmd *cobra.Command, opts *configOptions) {
	// MAINTAINER NOTE: keep in sync with the YAML keys in internal/config.

	// Target
	cmd.Flags().StringVar(&opts.org, flags.FlagOrg, "", "Organization that receives the repositories (name or URL; overrides target.org)")
	cmd.Flags().StringVar(&opts.host, flags.FlagHost, config.DefaultHost, "Git host for push remotes (overrides target.host)")
	cmd.Flags().StringVar(&opts.apiURL, flags.FlagAPIURL, "", "GitHub Enterprise API base URL (overrides target.api_url)")
	cmd.Flags().StringVar(&opts.description, flags.FlagDescription, config.DefaultDescription, "Description set on every created repository (overrides target.description)")

	// Template
	cmd.Flags().StringVar(&opts.template, flags.FlagTemplate, "", "Clone URL of the template repository (overrides template.url)")
	cmd.Flags().StringVar(&opts.branch, flags.FlagBranch, config.DefaultBranch, "Template branch pushed to every repository (overrides template.branch)")
	cmd.Flags().StringVar(&opts.workspace, flags.FlagWorkspace, "", "Scratch directory for the template clone; deleted and recreated on every run (overrides template.workspace)")

	// Credentials
	cmd.Flags().StringVar(&opts.user, flags.FlagUser, "", "GitHub user for basic authentication; the password comes from "+config.PasswordEnv+" (overrides credentials.user)")
	cmd.Flags().BoolVar(&opts.embedInURL, flags.FlagEmbedInURL, false, "Put credentials into push remote URLs instead of an HTTP header (overrides credentials.embed_in_url)")
}

func bindRunFlags(cmd *cobra.Command, opts *configOptions) {
	// Output
	cmd.Flags().StringVar(&opts.consoleFormat, flags.FlagConsoleFormat, "text", "Console output format: text|ndjson (default: text)")
	cmd.Flags().StringVar(&opts.out, flags.FlagOut, "", "Also write every event as NDJSON to this path (.ndjson, .jsonl or .log)")
	cmd.Flags().BoolVar(&opts.noConsole, flags.FlagNoConsole, false, "Suppress console output (use with --out)")

	// Runtime
	cmd.Flags().BoolVar(&opts.dryRun, flags.FlagDryRun, false, "Run only the read-only checks and print the plan (still requires credentials)")
	cmd.Flags().IntVar(&opts.concurrency, flags.FlagConcurrency, 0, "Maximum concurrent API calls per step (0 = unbounded)")
	cmd.Flags().DurationVar(&opts.timeout, flags.FlagTimeout, 0, "Deadline for the whole run (0 = none)")
}

// applyOverrides copies explicitly set flags onto cfg. Output and runtime
// settings only exist on the command line and are always copied.
func applyOverrides(cmd *cobra.Command, cfg *config.Config, opts *configOptions) {
	changed := func(name string) bool {
		return cmd != nil && cmd.Flags().Changed(name)
	}

	if changed(flags.FlagOrg) {
		cfg.Target.Org = opts.org
	}
	if changed(flags.FlagHost) {
		cfg.Target.Host = opts.host
	}
	if changed(flags.FlagAPIURL) {
		cfg.Target.APIURL = opts.apiURL
	}
	if changed(flags.FlagDescription) {
		cfg.Target.Description = opts.description
	}
	if changed(flags.FlagTemplate) {
		cfg.Template.URL = opts.template
	}
	if changed(flags.FlagBranch) {
		cfg.Template.Branch = opts.branch
	}
	if changed(flags.FlagWorkspace) {
		cfg.Template.Workspace = opts.workspace
	}
	if changed(flags.FlagUser) {
		cfg.Credentials.User = opts.user
	}
	if changed(flags.FlagEmbedInURL) {
		cfg.Credentials.EmbedInURL = opts.embedInURL
	}

	if opts.consoleFormat != "" {
		cfg.Output.ConsoleFormat = opts.consoleFormat
	}
	cfg.Output.Out = opts.out
	cfg.Output.NoConsole = opts.noConsole
	cfg.Runtime.DryRun = opts.dryRun
	cfg.Runtime.Concurrency = opts.concurrency
	cfg.Runtime.Timeout = opts.timeout
}

// loadConfig builds the run configuration: defaults, then the file, then the
// environment, then flags. The result is validated.
func (a *app) loadConfig(cmd *cobra.Command, opts *configOptions) (*config.Config, error) {
	cfg := config.New()
	if a.global.configPath != "" {
		if err := config.LoadFile(a.global.configPath, cfg); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(a.getenv)
	applyOverrides(cmd, cfg, opts)
	cfg.Runtime.Verbose = a.global.verbose

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
