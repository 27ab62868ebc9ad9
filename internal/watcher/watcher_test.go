package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docschat-dev/docschat/internal/chunker"
	"github.com/docschat-dev/docschat/internal/indexer"
	"github.com/docschat-dev/docschat/internal/source"
	"github.com/docschat-dev/docschat/internal/store"
)

var watchedRepo = source.Repo{Owner: "acme", Name: "docs", Branch: "main"}

type watchFixture struct {
	root    string
	src     *source.LocalSource
	store   *store.JSONLStore
	watcher *Watcher
	results chan *indexer.Result
	cancel  context.CancelFunc
	done    chan struct{}
}

func startWatchFixture(t *testing.T) *watchFixture {
	t.Helper()

	root := t.TempDir()
	repoDir := filepath.Join(root, watchedRepo.Owner, watchedRepo.Name)
	require.NoError(t, os.MkdirAll(repoDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "initial.md"), []byte("Initial documentation content."), 0644))

	st, err := store.NewJSONLStore(filepath.Join(t.TempDir(), "chunks.jsonl"))
	require.NoError(t, err)

	src := source.NewLocalSource(root, nil)
	ck := chunker.New(chunker.Options{MaxChunkSize: 500, MinViableSize: 1})
	idx := indexer.New(st, src, ck, indexer.Options{RetryDelay: time.Millisecond})

	_, err = idx.IndexRepository(context.Background(), watchedRepo, false)
	require.NoError(t, err)

	results := make(chan *indexer.Result, 8)
	w := New(src, idx, watchedRepo,
		WithDebounceTime(30*time.Millisecond),
		WithReindexCallback(func(r *indexer.Result) { results <- r }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx)
	}()
	// Give fsnotify a moment to register the directories.
	time.Sleep(100 * time.Millisecond)

	f := &watchFixture{root: root, src: src, store: st, watcher: w, results: results, cancel: cancel, done: done}
	t.Cleanup(func() {
		f.cancel()
		<-f.done
		st.Close()
	})
	return f
}

func (f *watchFixture) writeFile(t *testing.T, rel, content string) {
	t.Helper()
	full := filepath.Join(f.root, watchedRepo.Owner, watchedRepo.Name, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func (f *watchFixture) waitForReindex(t *testing.T) *indexer.Result {
	t.Helper()
	select {
	case r := <-f.results:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reindex")
		return nil
	}
}

func TestWatcherReindexesOnContentChange(t *testing.T) {
	f := startWatchFixture(t)

	f.writeFile(t, "initial.md", "Updated documentation content.")

	result := f.waitForReindex(t)
	assert.Equal(t, watchedRepo, result.Repo)

	found := false
	for _, c := range f.store.FindAll() {
		if c.Text == "Updated documentation content." {
			found = true
		}
	}
	assert.True(t, found)
}

func TestWatcherPicksUpNewFile(t *testing.T) {
	f := startWatchFixture(t)

	f.writeFile(t, "added.md", "Brand new documentation page.")

	result := f.waitForReindex(t)
	assert.Equal(t, 2, result.TotalFiles)
}

func TestWatcherIgnoresNonTextFiles(t *testing.T) {
	f := startWatchFixture(t)

	f.writeFile(t, "binary.bin", "not documentation")

	select {
	case <-f.results:
		t.Fatal("reindex triggered for a non-text file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherSkipsReindexWhenContentUnchanged(t *testing.T) {
	f := startWatchFixture(t)

	// Rewrite the same bytes; the listing fingerprint stays equal.
	f.writeFile(t, "initial.md", "Initial documentation content.")

	select {
	case <-f.results:
		t.Fatal("reindex triggered for unchanged content")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherStopsOnContextCancel(t *testing.T) {
	f := startWatchFixture(t)

	f.cancel()

	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
