// Package source abstracts where documentation text comes from. A Source
// lists the text-bearing files of a repository and fetches one file's raw
// content on demand; everything downstream is source-agnostic.
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Repo identifies one content source location.
type Repo struct {
	Owner  string
	Name   string
	Branch string
}

func (r Repo) String() string {
	if r.Branch == "" {
		return r.Owner + "/" + r.Name
	}
	return r.Owner + "/" + r.Name + "@" + r.Branch
}

// FileInfo describes one text-bearing file in a repository. Hash is a
// cheap content fingerprint (blob SHA for GitHub, xxhash for local
// files) used to skip unchanged files on reindex.
type FileInfo struct {
	Path string
	Size int64
	Hash string
}

// Source supplies file listings and raw text for a repository. Listing
// failures abort the repository run; fetch failures are per-file and
// recoverable. ResolveBranch pins an unset branch to the concrete one
// content will be read from, so stored chunks carry real provenance.
type Source interface {
	ResolveBranch(ctx context.Context, repo Repo) (Repo, error)
	ListTextFiles(ctx context.Context, repo Repo) ([]FileInfo, error)
	FetchContent(ctx context.Context, repo Repo, path string) (string, error)
}

// ContentFetchError indicates a failure reading one file from the
// source. The indexer counts it against the file and moves on; it never
// aborts the batch.
type ContentFetchError struct {
	Repo Repo
	Path string
	Err  error
}

func (e *ContentFetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s from %s: %v", e.Path, e.Repo, e.Err)
}

func (e *ContentFetchError) Unwrap() error { return e.Err }

// textExtensions lists the file extensions treated as text-bearing
// documentation.
var textExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdx":      true,
	".txt":      true,
	".rst":      true,
	".adoc":     true,
	".asciidoc": true,
	".org":      true,
	".html":     true,
	".htm":      true,
}

// IsTextFile reports whether the path looks like a documentation text
// file worth indexing.
func IsTextFile(path string) bool {
	return textExtensions[strings.ToLower(filepath.Ext(path))]
}
