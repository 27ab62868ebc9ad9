// Package watcher re-indexes local repositories when their files change.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/docschat-dev/docschat/internal/indexer"
	"github.com/docschat-dev/docschat/internal/source"
)

// Watcher watches the directories backing local repositories and
// triggers a reprocess when their text files change.
type Watcher struct {
	src  *source.LocalSource
	idx  *indexer.Indexer
	repo source.Repo

	debounceTime time.Duration

	mu          sync.Mutex
	pending     bool
	fingerprint string
	onReindex   func(*indexer.Result)
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounceTime sets the quiet period after the last event before a
// reprocess is triggered.
func WithDebounceTime(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounceTime = d
	}
}

// WithReindexCallback sets a callback invoked after each reprocess.
func WithReindexCallback(fn func(*indexer.Result)) Option {
	return func(w *Watcher) {
		w.onReindex = fn
	}
}

// New creates a watcher for one local repository.
func New(src *source.LocalSource, idx *indexer.Indexer, repo source.Repo, opts ...Option) *Watcher {
	w := &Watcher{
		src:          src,
		idx:          idx,
		repo:         repo,
		debounceTime: 1 * time.Second,
		onReindex:    func(*indexer.Result) {},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. Blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	root := w.src.RepoDir(w.repo)
	if err := w.addDirectories(fsw, root); err != nil {
		return err
	}

	// Remember what the repository currently looks like so spurious
	// events (touches, editor temp files) don't trigger a reprocess.
	if files, err := w.src.ListTextFiles(ctx, w.repo); err == nil {
		w.fingerprint = indexer.ListingFingerprint(files)
	}

	log.Info("Watching repository", "repo", w.repo.String(), "root", root)

	ticker := time.NewTicker(w.debounceTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event, fsw)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

// handleEvent marks the repository dirty for relevant events.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event, fsw *fsnotify.Watcher) {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return
	}

	// New directories need watching too.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fsw.Add(event.Name); err != nil {
				log.Debug("Failed to watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}

	if !source.IsTextFile(event.Name) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	w.pending = true
	w.mu.Unlock()
	log.Debug("File event", "path", event.Name, "op", event.Op.String())
}

// flush reprocesses the repository if events arrived and the listing
// actually changed since the last reprocess.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	pending := w.pending
	w.pending = false
	w.mu.Unlock()
	if !pending {
		return
	}

	files, err := w.src.ListTextFiles(ctx, w.repo)
	if err != nil {
		log.Warn("Failed to list repository after change", "repo", w.repo.String(), "error", err)
		return
	}
	fp := indexer.ListingFingerprint(files)
	if fp == w.fingerprint {
		log.Debug("Repository unchanged, skipping reprocess", "repo", w.repo.String())
		return
	}

	result, err := w.idx.ReprocessRepository(ctx, w.repo)
	if err != nil {
		log.Error("Reprocess failed", "repo", w.repo.String(), "error", err)
		return
	}
	w.fingerprint = fp
	w.onReindex(result)
}

// addDirectories recursively watches every directory under root.
func (w *Watcher) addDirectories(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); strings.HasPrefix(name, ".") && path != root {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			log.Debug("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}
