package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docschat-dev/docschat/internal/config"
	"github.com/docschat-dev/docschat/internal/source"
)

func TestParseRepo(t *testing.T) {
	repo, err := parseRepo("acme/docs")
	require.NoError(t, err)
	assert.Equal(t, source.Repo{Owner: "acme", Name: "docs"}, repo)

	repo, err = parseRepo("acme/docs@release-2.0")
	require.NoError(t, err)
	assert.Equal(t, source.Repo{Owner: "acme", Name: "docs", Branch: "release-2.0"}, repo)
}

func TestParseRepoRejectsMalformed(t *testing.T) {
	for _, arg := range []string{"", "acme", "acme/", "/docs", "a/b/c", "@main"} {
		_, err := parseRepo(arg)
		assert.Error(t, err, "arg %q", arg)
	}
}

func TestNewSourceSelectsBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Source.Local.Root = t.TempDir()

	gh, err := newSource(cfg, "")
	require.NoError(t, err)
	assert.IsType(t, &source.GitHubSource{}, gh)

	local, err := newSource(cfg, "local")
	require.NoError(t, err)
	assert.IsType(t, &source.LocalSource{}, local)

	_, err = newSource(cfg, "ftp")
	assert.Error(t, err)
}

func TestNewSourceLocalRequiresRoot(t *testing.T) {
	cfg := config.DefaultConfig()

	_, err := newSource(cfg, "local")
	assert.Error(t, err)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "first line", snippet("  first line\nsecond line"))

	long := strings.Repeat("x", 300)
	got := snippet(long)
	assert.Len(t, got, 160)
	assert.True(t, strings.HasSuffix(got, "..."))
}
