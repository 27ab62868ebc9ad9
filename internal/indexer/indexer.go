// Package indexer orchestrates content source -> chunker -> chunk store
// for whole repositories.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/docschat-dev/docschat/internal/chunker"
	"github.com/docschat-dev/docschat/internal/source"
	"github.com/docschat-dev/docschat/internal/store"
)

// Options configures an indexing run.
type Options struct {
	// BatchSize is how many files are processed concurrently. Files
	// within a batch fail independently.
	BatchSize int

	// FetchTimeout bounds a single content fetch; network calls are the
	// one real blocking point in a run.
	FetchTimeout time.Duration

	// FetchRetries is how many times a transient fetch failure is
	// retried before the file is counted as failed.
	FetchRetries int

	// RetryDelay is the initial backoff between fetch retries; it
	// doubles per attempt.
	RetryDelay time.Duration
}

// DefaultOptions returns the standard indexing parameters.
func DefaultOptions() Options {
	return Options{
		BatchSize:    10,
		FetchTimeout: 30 * time.Second,
		FetchRetries: 2,
		RetryDelay:   500 * time.Millisecond,
	}
}

// Result reports the outcome of one repository run. A run is considered
// complete once every file has been attempted; failures are counted, not
// fatal.
type Result struct {
	Repo       source.Repo
	TotalFiles int
	Processed  int
	Failed     int
	Chunks     int
	Duration   time.Duration
}

// Indexer pulls files from a content source, chunks them, and persists
// the chunks. The chunk store is the only shared mutable state between
// concurrently processed files.
type Indexer struct {
	store   store.ChunkStore
	source  source.Source
	chunker *chunker.Chunker
	opts    Options

	mu sync.Mutex // guards result counters during a run
}

// New creates an Indexer, applying defaults for zero option values.
func New(st store.ChunkStore, src source.Source, ck *chunker.Chunker, opts Options) *Indexer {
	defaults := DefaultOptions()
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaults.BatchSize
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaults.FetchTimeout
	}
	if opts.FetchRetries < 0 {
		opts.FetchRetries = defaults.FetchRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaults.RetryDelay
	}
	return &Indexer{store: st, source: src, chunker: ck, opts: opts}
}

// IndexRepository indexes one repository. Without force, a repository
// that already has chunks in the store is left untouched; with force its
// scope is purged first and rebuilt from current source content.
func (ix *Indexer) IndexRepository(ctx context.Context, repo source.Repo, force bool) (*Result, error) {
	scope := store.Scope{Owner: repo.Owner, Name: repo.Name, Branch: repo.Branch}

	if !force {
		if n := ix.countScope(scope); n > 0 {
			log.Info("Repository already indexed, skipping", "repo", repo.String(), "chunks", n)
			return &Result{Repo: repo}, nil
		}
	} else {
		removed, err := ix.store.DeleteByScope(scope)
		if err != nil {
			return nil, fmt.Errorf("failed to purge %s: %w", repo, err)
		}
		if removed > 0 {
			log.Info("Purged repository before reindex", "repo", repo.String(), "chunks", removed)
		}
	}

	return ix.run(ctx, repo)
}

// ReprocessRepository purges every chunk of the repository, across all
// branches, and rebuilds from the current source content. Running it
// twice on unchanged content yields an identical chunk set. Queries that
// arrive between the purge and the rebuild may see an empty or partial
// result for this repository; that window is an accepted trade-off.
func (ix *Indexer) ReprocessRepository(ctx context.Context, repo source.Repo) (*Result, error) {
	removed, err := ix.store.DeleteByScope(store.Scope{Owner: repo.Owner, Name: repo.Name})
	if err != nil {
		return nil, fmt.Errorf("failed to purge %s: %w", repo, err)
	}
	log.Info("Reprocessing repository", "repo", repo.String(), "purged", removed)

	return ix.run(ctx, repo)
}

// run lists the repository's files and processes them in batches. The
// branch is resolved up front so every stored chunk carries the concrete
// branch its content was read from.
func (ix *Indexer) run(ctx context.Context, repo source.Repo) (*Result, error) {
	start := time.Now()

	repo, err := ix.source.ResolveBranch(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve branch for %s: %w", repo, err)
	}

	files, err := ix.source.ListTextFiles(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to list files for %s: %w", repo, err)
	}

	result := &Result{Repo: repo, TotalFiles: len(files)}
	log.Info("Indexing repository", "repo", repo.String(), "files", len(files), "batch_size", ix.opts.BatchSize)

	for batchStart := 0; batchStart < len(files); batchStart += ix.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		batchEnd := batchStart + ix.opts.BatchSize
		if batchEnd > len(files) {
			batchEnd = len(files)
		}

		// One file's failure must not block or fail its siblings, so
		// workers report through the counters instead of the group error.
		var g errgroup.Group
		for _, fi := range files[batchStart:batchEnd] {
			g.Go(func() error {
				chunks, err := ix.indexFile(ctx, repo, fi)
				ix.mu.Lock()
				defer ix.mu.Unlock()
				if err != nil {
					log.Warn("Failed to index file", "repo", repo.String(), "path", fi.Path, "error", err)
					result.Failed++
					return nil
				}
				result.Processed++
				result.Chunks += chunks
				return nil
			})
		}
		_ = g.Wait()
	}

	result.Duration = time.Since(start).Round(time.Millisecond)
	log.Info("Indexing complete",
		"repo", repo.String(),
		"processed", result.Processed,
		"failed", result.Failed,
		"chunks", result.Chunks,
		"duration", result.Duration,
	)
	return result, nil
}

// indexFile fetches, chunks, and persists one file. Returns the number
// of chunks stored.
func (ix *Indexer) indexFile(ctx context.Context, repo source.Repo, fi source.FileInfo) (int, error) {
	text, err := ix.fetchWithRetry(ctx, repo, fi.Path)
	if err != nil {
		return 0, err
	}

	chunks := ix.chunker.Split(text)
	if len(chunks) == 0 {
		log.Debug("No viable chunks", "repo", repo.String(), "path", fi.Path)
		return 0, nil
	}

	for i, chunkText := range chunks {
		c := &store.Chunk{
			FilePath:        fi.Path,
			Text:            chunkText,
			ChunkIndex:      i,
			RepositoryOwner: repo.Owner,
			RepositoryName:  repo.Name,
			Branch:          repo.Branch,
		}
		if err := ix.store.Add(c); err != nil {
			return i, fmt.Errorf("failed to store chunk %d of %s: %w", i, fi.Path, err)
		}
	}

	log.Debug("Indexed file", "repo", repo.String(), "path", fi.Path, "chunks", len(chunks))
	return len(chunks), nil
}

// fetchWithRetry fetches one file's content, retrying transient content
// fetch errors with doubling backoff. Each attempt gets its own timeout.
func (ix *Indexer) fetchWithRetry(ctx context.Context, repo source.Repo, path string) (string, error) {
	delay := ix.opts.RetryDelay
	var lastErr error

	for attempt := 0; attempt <= ix.opts.FetchRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			delay *= 2
		}

		fetchCtx, cancel := context.WithTimeout(ctx, ix.opts.FetchTimeout)
		text, err := ix.source.FetchContent(fetchCtx, repo, path)
		cancel()
		if err == nil {
			return text, nil
		}
		lastErr = err

		// Only transient fetch failures are worth retrying.
		var fetchErr *source.ContentFetchError
		if !errors.As(err, &fetchErr) || ctx.Err() != nil {
			return "", err
		}
		log.Debug("Retrying fetch", "path", path, "attempt", attempt+1, "error", err)
	}
	return "", lastErr
}

// countScope counts chunks currently stored for the scope.
func (ix *Indexer) countScope(scope store.Scope) int {
	n := 0
	for _, c := range ix.store.FindAll() {
		if scope.Matches(c) {
			n++
		}
	}
	return n
}

// ListingFingerprint condenses a file listing into a single hash. Two
// listings with the same paths and content hashes fingerprint equal, so
// callers can tell whether a repository changed without refetching it.
func ListingFingerprint(files []source.FileInfo) string {
	d := xxhash.New()
	for _, fi := range files {
		_, _ = d.WriteString(fi.Path)
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(fi.Hash)
		_, _ = d.WriteString("\x00")
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
