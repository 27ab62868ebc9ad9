package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docschat-dev/docschat/internal/config"
	"github.com/docschat-dev/docschat/internal/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	fmt.Println(ui.Header.Render("Current Configuration"))
	fmt.Println()

	fmt.Println(ui.Bold.Render("Store:"))
	fmt.Printf("  Path: %s\n", cfg.Store.Path)
	fmt.Println()

	fmt.Println(ui.Bold.Render("Indexing:"))
	fmt.Printf("  Max Chunk Size: %d\n", cfg.Indexing.MaxChunkSize)
	fmt.Printf("  Min Chunk Size: %d\n", cfg.Indexing.MinChunkSize)
	fmt.Printf("  Batch Size: %d\n", cfg.Indexing.BatchSize)
	fmt.Printf("  Fetch Timeout: %ds\n", cfg.Indexing.FetchTimeout)
	fmt.Printf("  Fetch Retries: %d\n", cfg.Indexing.FetchRetries)
	fmt.Printf("  Purge On Startup: %t\n", cfg.Indexing.PurgeOnStartup)
	fmt.Println()

	fmt.Println(ui.Bold.Render("Retrieval:"))
	fmt.Printf("  Top-K Per File: %d\n", cfg.Retrieval.TopKPerFile)
	fmt.Printf("  Chunk Limit: %d\n", cfg.Retrieval.ChunkLimit)
	fmt.Printf("  Keyword Limit: %d\n", cfg.Retrieval.KeywordLimit)
	fmt.Printf("  Synonym Rules: %d\n", len(cfg.Synonyms))
	fmt.Println()

	fmt.Println(ui.Bold.Render("LLM:"))
	fmt.Printf("  Model: %s\n", cfg.LLM.Model)
	if cfg.LLM.BaseURL != "" {
		fmt.Printf("  Base URL: %s\n", cfg.LLM.BaseURL)
	}
	fmt.Println()

	fmt.Println(ui.Bold.Render("Repositories:"))
	if len(cfg.Repositories) == 0 {
		fmt.Println(ui.Dim.Render("  none configured"))
	}
	for _, rc := range cfg.Repositories {
		src := rc.Source
		if src == "" {
			src = "github"
		}
		branch := rc.Branch
		if branch == "" {
			branch = "default"
		}
		fmt.Printf("  %s/%s (branch %s, source %s)\n", rc.Owner, rc.Name, branch, src)
	}

	if path := config.ConfigFilePath(); path != "" {
		fmt.Println()
		fmt.Printf("Loaded from: %s\n", path)
	}
	return nil
}
