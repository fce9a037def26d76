package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/go-github/v81/github"
)

// CollaboratorPermission is granted to every collaborator (write access).
const CollaboratorPermission = "push"

// ListOrgRepositoryNames returns the names of every repository in org,
// following pagination.
func (c *Client) ListOrgRepositoryNames(ctx context.Context, org string) ([]string, error) {
	var names []string

	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		repos, resp, err := c.Client.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, wrapError(fmt.Sprintf("list repositories of %s", org), err)
		}
		for _, repo := range repos {
			names = append(names, repo.GetName())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return names, nil
}

// createRepositoryRequest is the POST /orgs/{org}/repos body. go-github's
// Repositories.Create drops has_downloads, so the request is built here.
type createRepositoryRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	HasIssues    bool   `json:"has_issues"`
	HasWiki      bool   `json:"has_wiki"`
	HasDownloads bool   `json:"has_downloads"`
	AutoInit     bool   `json:"auto_init"`
}

// CreateRepository creates an empty repository in org. Issues, wiki and
// downloads are disabled and auto-init is off so the first push supplies the
// repository's entire history.
func (c *Client) CreateRepository(ctx context.Context, org, name, description string) error {
	op := fmt.Sprintf("create repository %s/%s", org, name)
	body := &createRepositoryRequest{
		Name:        name,
		Description: description,
	}
	req, err := c.Client.NewRequest(http.MethodPost, "orgs/"+url.PathEscape(org)+"/repos", body)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	if _, err := c.Client.Do(ctx, req, new(github.Repository)); err != nil {
		return wrapError(op, err)
	}
	return nil
}

// AddCollaborator grants login write access to org/repo.
func (c *Client) AddCollaborator(ctx context.Context, org, repo, login string) error {
	opts := &github.RepositoryAddCollaboratorOptions{Permission: CollaboratorPermission}
	if _, _, err := c.Client.Repositories.AddCollaborator(ctx, org, repo, login, opts); err != nil {
		return wrapError(fmt.Sprintf("add collaborator %s to %s/%s", login, org, repo), err)
	}
	return nil
}

// UserExists calls GET /users/{login}. A 404 means the user does not exist;
// any other failure is returned as an error.
func (c *Client) UserExists(ctx context.Context, login string) (bool, error) {
	_, _, err := c.Client.Users.Get(ctx, login)
	if err == nil {
		return true, nil
	}
	err = wrapError(fmt.Sprintf("look up user %s", login), err)
	if IsNotFound(err) {
		return false, nil
	}
	return false, err
}
