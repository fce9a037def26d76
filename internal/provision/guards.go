package provision

import (
	"fmt"
	"sort"
	"strings"

	"reposeed/internal/config"
)

// DuplicateError reports configured repositories that already exist in the
// target organization.
type DuplicateError struct {
	Names []string
}

func (e *DuplicateError) Error() string {
	return "found duplicate repositories: " + strings.Join(e.Names, ", ")
}

// MissingCollaboratorsError reports collaborator logins that are not users on
// the platform.
type MissingCollaboratorsError struct {
	Logins []string
}

func (e *MissingCollaboratorsError) Error() string {
	return "some collaborators do not exist: " + strings.Join(e.Logins, ", ")
}

// CheckDuplicates fails with a *DuplicateError when any configured repository
// name is already taken in existing. Names compare case-insensitively, as the
// platform does. On success existing is returned unchanged.
func CheckDuplicates(repos []config.RepositorySpec, existing []string) ([]string, error) {
	taken := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		taken[strings.ToLower(name)] = struct{}{}
	}

	seen := make(map[string]struct{})
	var dupes []string
	for _, r := range repos {
		key := strings.ToLower(r.Name)
		if _, ok := taken[key]; !ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		dupes = append(dupes, r.Name)
	}
	if len(dupes) > 0 {
		sort.Strings(dupes)
		return nil, &DuplicateError{Names: dupes}
	}
	return existing, nil
}

// distinctLogins drops repeated logins (case-insensitively), keeping the first
// spelling and the original order.
func distinctLogins(logins []string) []string {
	seen := make(map[string]struct{}, len(logins))
	out := make([]string, 0, len(logins))
	for _, l := range logins {
		key := strings.ToLower(l)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}

// groupLimit maps a configured concurrency to an errgroup limit; 0 means
// unbounded.
func groupLimit(concurrency int) int {
	if concurrency <= 0 {
		return -1
	}
	return concurrency
}

func wrapRepoError(action, repo string, err error) error {
	return fmt.Errorf("%s %s: %w", action, repo, err)
}
