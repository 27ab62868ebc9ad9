package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// githubTimeout bounds a single API call.
	githubTimeout = 30 * time.Second

	// API budget: stay well under GitHub's secondary rate limits.
	githubRequestsPerSecond = 5
	githubBurst             = 10
)

// GitHubSource reads repository contents through the GitHub API.
type GitHubSource struct {
	client  *gh.Client
	limiter *rate.Limiter
}

// NewGitHubSource creates a GitHub-backed source. An empty token falls
// back to unauthenticated access, which is enough for public
// documentation repositories at a much lower rate limit.
func NewGitHubSource(token string) *GitHubSource {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	} else {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = githubTimeout

	return &GitHubSource{
		client:  gh.NewClient(httpClient),
		limiter: rate.NewLimiter(rate.Limit(githubRequestsPerSecond), githubBurst),
	}
}

// ListTextFiles returns every text-bearing file reachable from the
// branch head, using one recursive git tree call instead of crawling
// directories.
func (s *GitHubSource) ListTextFiles(ctx context.Context, repo Repo) ([]FileInfo, error) {
	repo, err := s.ResolveBranch(ctx, repo)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	tree, _, err := s.client.Git.GetTree(ctx, repo.Owner, repo.Name, repo.Branch, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list tree for %s: %w", repo, err)
	}
	if tree.GetTruncated() {
		log.Warn("GitHub tree listing truncated", "repo", repo.String())
	}

	var files []FileInfo
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" || !IsTextFile(entry.GetPath()) {
			continue
		}
		files = append(files, FileInfo{
			Path: entry.GetPath(),
			Size: int64(entry.GetSize()),
			Hash: entry.GetSHA(),
		})
	}

	log.Debug("Listed repository files", "repo", repo.String(), "branch", repo.Branch, "text_files", len(files))
	return files, nil
}

// FetchContent returns the decoded text of one file at the branch head.
func (s *GitHubSource) FetchContent(ctx context.Context, repo Repo, path string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", &ContentFetchError{Repo: repo, Path: path, Err: err}
	}

	opts := &gh.RepositoryContentGetOptions{}
	if repo.Branch != "" {
		opts.Ref = repo.Branch
	}
	content, _, _, err := s.client.Repositories.GetContents(ctx, repo.Owner, repo.Name, path, opts)
	if err != nil {
		return "", &ContentFetchError{Repo: repo, Path: path, Err: err}
	}
	if content == nil {
		return "", &ContentFetchError{Repo: repo, Path: path, Err: fmt.Errorf("path is not a file")}
	}

	text, err := content.GetContent()
	if err != nil {
		return "", &ContentFetchError{Repo: repo, Path: path, Err: err}
	}
	return text, nil
}

// ResolveBranch pins the repository to the branch content will be read
// from, asking GitHub for the default branch when none is configured.
// A repo with a branch already set is returned unchanged without a
// network call.
func (s *GitHubSource) ResolveBranch(ctx context.Context, repo Repo) (Repo, error) {
	if repo.Branch != "" {
		return repo, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return repo, err
	}
	repository, _, err := s.client.Repositories.Get(ctx, repo.Owner, repo.Name)
	if err != nil {
		return repo, fmt.Errorf("failed to resolve default branch for %s: %w", repo, err)
	}
	repo.Branch = repository.GetDefaultBranch()
	return repo, nil
}

// Verify GitHubSource implements Source.
var _ Source = (*GitHubSource)(nil)
