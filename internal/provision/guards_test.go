package provision

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reposeed/internal/config"
)

func specs(names ...string) []config.RepositorySpec {
	out := make([]config.RepositorySpec, 0, len(names))
	for _, n := range names {
		out = append(out, config.RepositorySpec{Name: n})
	}
	return out
}

func TestCheckDuplicates(t *testing.T) {
	tests := []struct {
		name       string
		configured []string
		existing   []string
		wantDupes  []string
	}{
		{name: "nothing exists", configured: []string{"alpha", "beta"}},
		{name: "disjoint", configured: []string{"alpha"}, existing: []string{"beta", "gamma"}},
		{name: "single collision", configured: []string{"alpha"}, existing: []string{"alpha"}, wantDupes: []string{"alpha"}},
		{
			name:       "only the intersection is reported, sorted",
			configured: []string{"zeta", "alpha", "beta"},
			existing:   []string{"other", "zeta", "alpha"},
			wantDupes:  []string{"alpha", "zeta"},
		},
		{name: "case-insensitive", configured: []string{"Alpha"}, existing: []string{"alpha"}, wantDupes: []string{"Alpha"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckDuplicates(specs(tt.configured...), tt.existing)
			if len(tt.wantDupes) == 0 {
				require.NoError(t, err)
				assert.Equal(t, tt.existing, got, "existing names pass through unchanged")
				return
			}

			require.Error(t, err)
			assert.Nil(t, got)
			var dupErr *DuplicateError
			require.True(t, errors.As(err, &dupErr))
			assert.Equal(t, tt.wantDupes, dupErr.Names)
			assert.Equal(t, "found duplicate repositories: "+strings.Join(tt.wantDupes, ", "), err.Error())
		})
	}
}

func TestDistinctLogins(t *testing.T) {
	got := distinctLogins([]string{"alice", "bob", "Alice", "carol", "bob"})
	assert.Equal(t, []string{"alice", "bob", "carol"}, got)
	assert.Empty(t, distinctLogins(nil))
}

func TestGroupLimit(t *testing.T) {
	assert.Equal(t, -1, groupLimit(0))
	assert.Equal(t, -1, groupLimit(-3))
	assert.Equal(t, 4, groupLimit(4))
}

func TestStageError(t *testing.T) {
	cause := errors.New("boom")

	err := &StageError{Stage: StageCloningTemplate, Err: cause}
	assert.Equal(t, "cloning-template: boom", err.Error())
	assert.ErrorIs(t, err, cause)

	err = &StageError{Stage: StagePushingRepository, Repo: "alpha", Err: cause}
	assert.Equal(t, "pushing-repository alpha: boom", err.Error())
}
