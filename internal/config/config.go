package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHost        = "github.com"
	DefaultBranch      = "master"
	DefaultDescription = "a Scrum for Developers training team"

	// PasswordEnv supplies Credentials.Password when the file leaves it empty.
	PasswordEnv = "REPOSEED_PASSWORD"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields that affect the
	// provisioning run, keep the CLI overrides in internal/cli/options.go
	// (applyOverrides) in sync.
	Target       Target           `yaml:"target"`
	Template     Template         `yaml:"template"`
	Credentials  Credentials      `yaml:"credentials"`
	Repositories []RepositorySpec `yaml:"repositories"`

	Output  Output  `yaml:"-"`
	Runtime Runtime `yaml:"-"`
}

type Target struct {
	// Org is the organization that receives the new repositories (name or URL; see --org).
	Org string `yaml:"org"`

	// Host is the git host used for push remotes (default: github.com).
	Host string `yaml:"host"`

	// APIURL overrides the REST API base URL (GitHub Enterprise). Empty means api.github.com.
	APIURL string `yaml:"api_url"`

	// Description is set on every created repository.
	Description string `yaml:"description"`
}

type Template struct {
	// URL is the clone URL of the template repository (see --template).
	URL string `yaml:"url"`

	// Branch is pushed to every new repository (default: master).
	Branch string `yaml:"branch"`

	// Workspace is the scratch directory the template is cloned into (see --workspace).
	// It is deleted and recreated on every run and left on disk afterwards.
	Workspace string `yaml:"workspace"`
}

type Credentials struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Token    string `yaml:"token"`

	// EmbedInURL puts user and password into the push remote URL instead of
	// passing them through git configuration. Only for hosts that reject
	// header authentication.
	EmbedInURL bool `yaml:"embed_in_url"`
}

// RepositorySpec is one repository to create. Immutable for a run.
type RepositorySpec struct {
	Name          string   `yaml:"name"`
	Collaborators []string `yaml:"collaborators,omitempty"`
}

type Output struct {
	// ConsoleFormat controls the console sink format (see --console-format).
	// Allowed values: text, ndjson.
	ConsoleFormat string

	// Out writes an NDJSON event log to this path (see --out).
	Out string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// DryRun runs only the read-only steps and prints the plan (see --dry-run).
	DryRun bool

	// Concurrency bounds in-flight API calls per fan-out step. 0 means unbounded.
	Concurrency int

	// Timeout is the deadline for the whole run. 0 means no deadline.
	Timeout time.Duration

	// Verbose enables debug logging and HTTP tracing.
	Verbose bool
}

func New() *Config {
	return &Config{
		Target: Target{
			Host:        DefaultHost,
			Description: DefaultDescription,
		},
		Template: Template{
			Branch: DefaultBranch,
		},
		Output: Output{
			ConsoleFormat: "text",
		},
	}
}

// LoadFile reads a YAML configuration file on top of cfg. Keys absent from the
// file keep their current values.
func LoadFile(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv fills secrets the file left empty.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		return
	}
	if c.Credentials.Password == "" {
		c.Credentials.Password = strings.TrimSpace(getenv(PasswordEnv))
	}
}

// Collaborators flattens every repository's collaborator list in configuration
// order. Duplicates are preserved.
func (c *Config) Collaborators() []string {
	var out []string
	for _, r := range c.Repositories {
		out = append(out, r.Collaborators...)
	}
	return out
}

// RepositoryNames returns the configured names in configuration order.
func (c *Config) RepositoryNames() []string {
	names := make([]string, 0, len(c.Repositories))
	for _, r := range c.Repositories {
		names = append(names, r.Name)
	}
	return names
}

func (c *Config) Validate() error {
	c.Target.Host = normalizeHost(c.Target.Host)
	if c.Target.Host == "" {
		c.Target.Host = DefaultHost
	}
	c.Target.APIURL = strings.TrimSpace(c.Target.APIURL)
	c.Target.Description = strings.TrimSpace(c.Target.Description)

	if c.Target.Org != "" {
		org, err := normalizeAccountSelector(c.Target.Org, c.Target.Host)
		if err != nil {
			return fmt.Errorf("invalid --org value: %w", err)
		}
		c.Target.Org = org
	}
	if c.Target.Org == "" {
		return errors.New("target organization is required (set target.org or --org)")
	}
	if c.Target.APIURL != "" {
		u, err := url.Parse(c.Target.APIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid target.api_url %q", c.Target.APIURL)
		}
	}

	c.Template.URL = strings.TrimSpace(c.Template.URL)
	if c.Template.URL == "" {
		return errors.New("template repository URL is required (set template.url or --template)")
	}
	c.Template.Branch = strings.TrimSpace(c.Template.Branch)
	if c.Template.Branch == "" {
		c.Template.Branch = DefaultBranch
	}
	if strings.HasPrefix(c.Template.Branch, "-") {
		return fmt.Errorf("invalid template.branch %q", c.Template.Branch)
	}

	ws, err := normalizeWorkspace(c.Template.Workspace)
	if err != nil {
		return err
	}
	c.Template.Workspace = ws

	if err := c.validateRepositories(); err != nil {
		return err
	}

	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		c.Output.ConsoleFormat = "text"
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, ndjson)", c.Output.ConsoleFormat)
	}

	if c.Runtime.Concurrency < 0 {
		return errors.New("--concurrency must be >= 0")
	}
	if c.Runtime.Timeout < 0 {
		return errors.New("--timeout must be >= 0")
	}
	return nil
}

// Validate checks that a usable credential is present. It runs
// after token resolution, so it is separate from Validate.
func (c *Credentials) Validate() error {
	c.User = strings.TrimSpace(c.User)
	c.Token = strings.TrimSpace(c.Token)
	if c.Token != "" {
		return nil
	}
	if c.User == "" || c.Password == "" {
		return fmt.Errorf("credentials required: set credentials.user and %s, or GITHUB_TOKEN", PasswordEnv)
	}
	return nil
}

func (c *Config) validateRepositories() error {
	if len(c.Repositories) == 0 {
		return errors.New("at least one repository must be configured")
	}
	seen := make(map[string]int, len(c.Repositories))
	for i := range c.Repositories {
		r := &c.Repositories[i]
		r.Name = strings.TrimSpace(r.Name)
		if err := validateRepositoryName(r.Name); err != nil {
			return fmt.Errorf("repository %d: %w", i+1, err)
		}
		key := strings.ToLower(r.Name)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("repository %d: name %q already used by repository %d", i+1, r.Name, prev)
		}
		seen[key] = i + 1

		r.Collaborators = splitCommaList(r.Collaborators)
		for _, login := range r.Collaborators {
			if err := validateLogin(login); err != nil {
				return fmt.Errorf("repository %q: collaborator: %w", r.Name, err)
			}
		}
	}
	return nil
}

var (
	repoNamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	loginPattern    = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?$`)
)

func validateRepositoryName(name string) error {
	if name == "" {
		return errors.New("repository name is required")
	}
	if len(name) > 100 {
		return fmt.Errorf("repository name %q must be 100 characters or less", name)
	}
	if !repoNamePattern.MatchString(name) {
		return fmt.Errorf("repository name %q can only contain alphanumeric characters, periods, hyphens, and underscores", name)
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") || strings.HasPrefix(name, "-") {
		return fmt.Errorf("repository name %q cannot start with a period or hyphen, or end with a period", name)
	}
	return nil
}

func validateLogin(login string) error {
	if len(login) > 39 {
		return fmt.Errorf("login %q must be 39 characters or less", login)
	}
	if !loginPattern.MatchString(login) || strings.Contains(login, "--") {
		return fmt.Errorf("login %q is invalid: must contain only alphanumeric characters and single hyphens, cannot start or end with hyphen", login)
	}
	return nil
}

func normalizeWorkspace(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("scratch workspace path is required (set template.workspace or --workspace)")
	}
	ws := filepath.Clean(raw)
	if ws == "." || ws == string(filepath.Separator) {
		return "", fmt.Errorf("refusing to use %q as scratch workspace", raw)
	}
	if home, err := os.UserHomeDir(); err == nil && filepath.Clean(home) == ws {
		return "", fmt.Errorf("refusing to use home directory %q as scratch workspace", raw)
	}
	return ws, nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func normalizeHost(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	raw = strings.TrimPrefix(raw, "https://")
	raw = strings.TrimPrefix(raw, "http://")
	return strings.TrimSuffix(raw, "/")
}

func normalizeAccountSelector(raw, host string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	// Accept a raw account name, or a URL on the target host like:
	//   https://github.com/<name>
	//   https://github.com/orgs/<name>
	//   github.com/<name>
	if strings.HasPrefix(raw, host+"/") || strings.HasPrefix(raw, "www."+host+"/") {
		raw = "https://" + raw
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("%q", raw)
		}
		h := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		if h != host {
			return "", fmt.Errorf("%q", raw)
		}
		parts := strings.FieldsFunc(strings.Trim(u.Path, "/"), func(r rune) bool { return r == '/' })
		if len(parts) == 0 {
			return "", fmt.Errorf("%q", raw)
		}
		if parts[0] == "orgs" || parts[0] == "users" {
			if len(parts) < 2 {
				return "", fmt.Errorf("%q", raw)
			}
			return parts[1], nil
		}
		return parts[0], nil
	}

	// Basic sanity: reject obvious repo-like inputs.
	if strings.Contains(raw, "/") {
		return "", fmt.Errorf("%q", raw)
	}
	return raw, nil
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
