package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitHubResolveBranchShortCircuitsWhenConfigured(t *testing.T) {
	// A repo with a branch already set resolves without any API call, so
	// no token and no network are needed here.
	src := NewGitHubSource("")

	repo := Repo{Owner: "acme", Name: "docs", Branch: "release"}
	got, err := src.ResolveBranch(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, repo, got)
}
