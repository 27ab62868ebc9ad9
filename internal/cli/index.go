package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/docschat-dev/docschat/internal/chunker"
	"github.com/docschat-dev/docschat/internal/config"
	"github.com/docschat-dev/docschat/internal/indexer"
	"github.com/docschat-dev/docschat/internal/source"
	"github.com/docschat-dev/docschat/internal/store"
	"github.com/docschat-dev/docschat/internal/ui"
)

var (
	indexForce  bool
	indexSource string
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index [owner/name[@branch]]",
	Short: "Index documentation repositories",
	Long: `Index one repository, or every repository from the config file when no
argument is given.

Files are fetched from the content source, split into bounded chunks, and
appended to the durable chunk log. One file failing never aborts the run;
the summary reports processed and failed counts.

Examples:
  # Index everything configured under "repositories"
  docschat index

  # Index one GitHub repository
  docschat index acme/product-docs

  # Rebuild a repository from scratch
  docschat index acme/product-docs --force

  # Index a repository checked out under source.local.root
  docschat index acme/product-docs --source local`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVarP(&indexForce, "force", "f", false, "purge and rebuild the repository's chunks")
	indexCmd.Flags().StringVar(&indexSource, "source", "", "content source: github or local")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, finishing current batch...")
		cancel()
	}()

	st, err := store.NewJSONLStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open chunk store: %w", err)
	}
	defer st.Close()

	// One explicit repository on the command line, or the configured set.
	var targets []config.RepositoryConfig
	if len(args) == 1 {
		repo, err := parseRepo(args[0])
		if err != nil {
			return err
		}
		targets = append(targets, config.RepositoryConfig{
			Owner:  repo.Owner,
			Name:   repo.Name,
			Branch: repo.Branch,
			Source: indexSource,
		})
	} else {
		if len(cfg.Repositories) == 0 {
			return fmt.Errorf("no repositories configured; pass owner/name or add them to the config file")
		}
		targets = cfg.Repositories
	}

	force := indexForce || cfg.Indexing.PurgeOnStartup

	start := time.Now()
	failedRepos := 0
	for _, rc := range targets {
		repo := source.Repo{Owner: rc.Owner, Name: rc.Name, Branch: rc.Branch}

		src, err := newSource(cfg, rc.Source)
		if err != nil {
			return err
		}

		idx := indexer.New(st, src, chunker.New(chunker.Options{
			MaxChunkSize:  cfg.Indexing.MaxChunkSize,
			MinViableSize: cfg.Indexing.MinChunkSize,
		}), indexer.Options{
			BatchSize:    cfg.Indexing.BatchSize,
			FetchTimeout: time.Duration(cfg.Indexing.FetchTimeout) * time.Second,
			FetchRetries: cfg.Indexing.FetchRetries,
		})

		fmt.Println(ui.Header.Render("Indexing " + repo.String()))
		result, err := idx.IndexRepository(ctx, repo, force)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Println(ui.Warning.Render("Indexing cancelled"))
				return nil
			}
			log.Error("Repository failed", "repo", repo.String(), "error", err)
			failedRepos++
			continue
		}

		fmt.Printf("  Files:     %d (%d failed)\n", result.TotalFiles, result.Failed)
		fmt.Printf("  Chunks:    %d\n", result.Chunks)
		fmt.Printf("  Duration:  %s\n", result.Duration)
	}

	stats := st.Stats()
	fmt.Println()
	fmt.Println(ui.Success.Render("Indexing complete"))
	fmt.Printf("  Store:     %s\n", cfg.Store.Path)
	fmt.Printf("  Chunks:    %d across %d files\n", stats.ChunkCount, stats.FileCount)
	fmt.Printf("  Duration:  %s\n", time.Since(start).Round(time.Millisecond))

	if failedRepos > 0 {
		return fmt.Errorf("%d of %d repositories failed", failedRepos, len(targets))
	}
	return nil
}
