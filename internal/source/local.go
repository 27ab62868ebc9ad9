package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	ignore "github.com/sabhiram/go-gitignore"
)

// LocalSource maps repositories onto directories under a root:
// owner/name resolves to <root>/<owner>/<name>. Branches have no meaning
// on disk and are ignored. Useful for docs checked out locally and for
// tests.
type LocalSource struct {
	root           string
	ignorePatterns []string
}

// NewLocalSource creates a directory-backed source. ignorePatterns use
// gitignore syntax and apply on top of any .gitignore in the repository
// directory.
func NewLocalSource(root string, ignorePatterns []string) *LocalSource {
	return &LocalSource{root: root, ignorePatterns: ignorePatterns}
}

// ResolveBranch returns the repository unchanged. Directories carry no
// branch information, so whatever branch the caller configured stands.
func (s *LocalSource) ResolveBranch(_ context.Context, repo Repo) (Repo, error) {
	return repo, nil
}

// RepoDir returns the directory backing a repository.
func (s *LocalSource) RepoDir(repo Repo) string {
	return filepath.Join(s.root, repo.Owner, repo.Name)
}

// ListTextFiles walks the repository directory and returns its
// text-bearing files with xxhash content fingerprints.
func (s *LocalSource) ListTextFiles(ctx context.Context, repo Repo) ([]FileInfo, error) {
	dir := s.RepoDir(repo)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("no local repository at %s", dir)
	}

	matcher := s.ignoreMatcher(dir)

	var files []FileInfo
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if d.Name() == ".git" || (matcher != nil && matcher.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsTextFile(path) || (matcher != nil && matcher.MatchesPath(rel)) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil // unreadable file, leave it out of the listing
		}
		files = append(files, FileInfo{
			Path: rel,
			Size: int64(len(content)),
			Hash: strconv.FormatUint(xxhash.Sum64(content), 16),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return files, nil
}

// FetchContent reads one file relative to the repository directory.
func (s *LocalSource) FetchContent(ctx context.Context, repo Repo, path string) (string, error) {
	if ctx.Err() != nil {
		return "", &ContentFetchError{Repo: repo, Path: path, Err: ctx.Err()}
	}

	// Prefix check includes the separator so a sibling directory sharing
	// the repo dir as a string prefix (docs vs docs-private) is rejected.
	dir := s.RepoDir(repo)
	full := filepath.Join(dir, filepath.FromSlash(path))
	if !strings.HasPrefix(full, dir+string(os.PathSeparator)) {
		return "", &ContentFetchError{Repo: repo, Path: path, Err: fmt.Errorf("path escapes repository directory")}
	}

	content, err := os.ReadFile(full)
	if err != nil {
		return "", &ContentFetchError{Repo: repo, Path: path, Err: err}
	}
	return string(content), nil
}

// ignoreMatcher compiles the repository .gitignore, if any, together
// with the configured extra patterns.
func (s *LocalSource) ignoreMatcher(dir string) *ignore.GitIgnore {
	lines := append([]string{}, s.ignorePatterns...)

	if data, err := os.ReadFile(filepath.Join(dir, ".gitignore")); err == nil {
		lines = append(lines, strings.Split(string(data), "\n")...)
	}
	if len(lines) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(lines...)
}

// Verify LocalSource implements Source.
var _ Source = (*LocalSource)(nil)
