// Package git drives the git CLI for the scratch workspace: cloning the
// template and pushing its history to each new repository. Every command
// is an explicit argument list run through a process.Runner.
//
// Credentials never appear in argv or remote URLs by default. They are handed
// to git as an http.<url>.extraheader entry through the GIT_CONFIG_COUNT /
// GIT_CONFIG_KEY_n / GIT_CONFIG_VALUE_n environment, scoped to the target host.
package git

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"path/filepath"

	"reposeed/internal/process"
)

// tokenUser is the basic-auth user name paired with a token.
const tokenUser = "x-access-token"

// Auth holds the push credentials.
type Auth struct {
	User     string
	Password string
	Token    string

	// EmbedInURL writes user and password into remote URLs instead of the
	// header configuration.
	EmbedInURL bool
}

func (a Auth) basic() (user, secret string, ok bool) {
	if a.Token != "" {
		return tokenUser, a.Token, true
	}
	if a.User != "" && a.Password != "" {
		return a.User, a.Password, true
	}
	return "", "", false
}

// Workspace is a local clone of the template at dir.
type Workspace struct {
	runner process.Runner
	dir    string
	host   string
	auth   Auth
}

func NewWorkspace(runner process.Runner, dir, host string, auth Auth) *Workspace {
	return &Workspace{runner: runner, dir: dir, host: host, auth: auth}
}

// Clone clones templateURL into the workspace directory, which must be
// empty or absent.
func (w *Workspace) Clone(ctx context.Context, templateURL string) error {
	return w.run(ctx, "", "clone", "--", templateURL, w.dir)
}

// AddRemote registers a remote named name pointing at remoteURL.
func (w *Workspace) AddRemote(ctx context.Context, name, remoteURL string) error {
	return w.run(ctx, w.gitDir(), "remote", "add", name, remoteURL)
}

// Push pushes branch to remote.
func (w *Workspace) Push(ctx context.Context, remote, branch string) error {
	return w.run(ctx, w.gitDir(), "push", remote, branch)
}

// RemoteURL returns the push URL for org/repo on the workspace's host,
// carrying credentials only when EmbedInURL is set.
func (w *Workspace) RemoteURL(org, repo string) string {
	if w.auth.EmbedInURL {
		if user, secret, ok := w.auth.basic(); ok {
			return CredentialedRemoteURL(w.host, org, repo, user, secret)
		}
	}
	return RemoteURL(w.host, org, repo)
}

func (w *Workspace) gitDir() string {
	return filepath.Join(w.dir, ".git")
}

func (w *Workspace) run(ctx context.Context, gitDir string, args ...string) error {
	cmd := process.Command{
		Name: "git",
		Args: args,
		Env:  []string{"GIT_TERMINAL_PROMPT=0"},
	}
	if gitDir != "" {
		cmd.Env = append(cmd.Env, "GIT_DIR="+gitDir)
	}
	if user, secret, ok := w.auth.basic(); ok {
		header := "Authorization: Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+secret))
		cmd.Secrets = append(cmd.Secrets, secret, header)
		if !w.auth.EmbedInURL && w.host != "" {
			cmd.Env = append(cmd.Env,
				"GIT_CONFIG_COUNT=1",
				"GIT_CONFIG_KEY_0=http.https://"+w.host+"/.extraheader",
				"GIT_CONFIG_VALUE_0="+header,
			)
		}
	}
	if err := w.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("git %s: %w", args[0], err)
	}
	return nil
}

// RemoteURL is https://<host>/<org>/<repo>.git.
func RemoteURL(host, org, repo string) string {
	u := url.URL{Scheme: "https", Host: host, Path: "/" + org + "/" + repo + ".git"}
	return u.String()
}

// CredentialedRemoteURL is https://<user>:<url-encoded password>@<host>/<org>/<repo>.git.
func CredentialedRemoteURL(host, org, repo, user, password string) string {
	u := url.URL{
		Scheme: "https",
		User:   url.UserPassword(user, password),
		Host:   host,
		Path:   "/" + org + "/" + repo + ".git",
	}
	return u.String()
}
