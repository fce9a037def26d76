package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"reposeed/internal/config"
)

func newValidateCmd(a *app) *cobra.Command {
	opts := &configOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a configuration without contacting GitHub",
		Long: `Load the configuration file, apply flag overrides, and report whether it
is valid. Repository names, collaborator logins, the template URL and the
workspace path are checked offline; nothing is created or deleted.

Examples:
	reposeed validate --config teams.yaml
	reposeed validate --config teams.yaml --org other-org`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, opts)
			if err != nil {
				return withExitCode(ExitConfigInvalid, err)
			}
			printSummary(cmd, cfg)
			return nil
		},
	}
	bindConfigFlags(cmd, opts)
	return cmd
}

func printSummary(cmd *cobra.Command, cfg *config.Config) {
	w := cmd.OutOrStdout()
	ok := color.New(color.FgGreen, color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(w, "%s configuration is valid\n", ok("OK"))
	fmt.Fprintf(w, "organization: %s (%s)\n", cfg.Target.Org, cfg.Target.Host)
	fmt.Fprintf(w, "template:     %s @ %s\n", cfg.Template.URL, cfg.Template.Branch)
	fmt.Fprintf(w, "workspace:    %s\n", cfg.Template.Workspace)
	fmt.Fprintf(w, "repositories: %d\n", len(cfg.Repositories))
	for _, r := range cfg.Repositories {
		if len(r.Collaborators) == 0 {
			fmt.Fprintf(w, "  %s\n", r.Name)
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", r.Name, faint("("+strings.Join(r.Collaborators, ", ")+")"))
	}
}
