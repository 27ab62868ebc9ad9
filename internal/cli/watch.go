package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docschat-dev/docschat/internal/chunker"
	"github.com/docschat-dev/docschat/internal/config"
	"github.com/docschat-dev/docschat/internal/indexer"
	"github.com/docschat-dev/docschat/internal/source"
	"github.com/docschat-dev/docschat/internal/store"
	"github.com/docschat-dev/docschat/internal/ui"
	"github.com/docschat-dev/docschat/internal/watcher"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <owner/name>",
	Short: "Re-index a local repository when its files change",
	Long: `Watch the directory backing a local repository and reprocess it when
text files change. Only works with the local content source.

Example:
  docschat watch acme/product-docs`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	repo, err := parseRepo(args[0])
	if err != nil {
		return err
	}
	cfg := config.Get()
	if cfg.Source.Local.Root == "" {
		return fmt.Errorf("source.local.root is not configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nStopping watcher...")
		cancel()
	}()

	st, err := store.NewJSONLStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open chunk store: %w", err)
	}
	defer st.Close()

	src := source.NewLocalSource(cfg.Source.Local.Root, cfg.Source.Local.Ignore)
	idx := indexer.New(st, src, chunker.New(chunker.Options{
		MaxChunkSize:  cfg.Indexing.MaxChunkSize,
		MinViableSize: cfg.Indexing.MinChunkSize,
	}), indexer.Options{
		BatchSize:    cfg.Indexing.BatchSize,
		FetchTimeout: time.Duration(cfg.Indexing.FetchTimeout) * time.Second,
		FetchRetries: cfg.Indexing.FetchRetries,
	})

	// Make sure the repository is indexed before watching for deltas.
	if _, err := idx.IndexRepository(ctx, repo, false); err != nil {
		return fmt.Errorf("initial index failed: %w", err)
	}

	w := watcher.New(src, idx, repo, watcher.WithReindexCallback(func(r *indexer.Result) {
		fmt.Printf("%s %d files, %d chunks (%d failed)\n",
			ui.Success.Render("Re-indexed "+r.Repo.String()+":"), r.Processed, r.Chunks, r.Failed)
	}))

	fmt.Println(ui.Header.Render("Watching " + repo.String()))
	err = w.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
