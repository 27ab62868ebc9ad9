package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docschat-dev/docschat/internal/config"
	"github.com/docschat-dev/docschat/internal/search"
	"github.com/docschat-dev/docschat/internal/store"
	"github.com/docschat-dev/docschat/internal/ui"
)

var (
	searchLimit    int
	searchBestFile bool
	searchJSON     bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Show raw retrieval results for a query",
	Long: `Search the chunk store without involving the completion service.
Useful for inspecting what the retriever would hand to the LLM.

Examples:
  # Top-scoring chunks
  docschat search "create organization"

  # The single best-matching file, in reading order
  docschat search "create organization" --best-file

  # Machine-readable output
  docschat search "webhook payload" --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "m", 0, "maximum number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchBestFile, "best-file", false, "return the best matching file's chunks in reading order")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	cfg := config.Get()

	st, err := store.NewJSONLStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open chunk store: %w", err)
	}
	defer st.Close()

	retriever := search.New(st, search.NewScorer(cfg.Synonyms), search.Options{
		TopKPerFile:  cfg.Retrieval.TopKPerFile,
		ChunkLimit:   cfg.Retrieval.ChunkLimit,
		KeywordLimit: cfg.Retrieval.KeywordLimit,
	})

	limit := searchLimit
	if limit <= 0 {
		limit = cfg.Retrieval.ChunkLimit
	}

	if searchBestFile {
		chunks := retriever.FindBestMatchingFile(query)
		if searchJSON {
			return json.NewEncoder(os.Stdout).Encode(chunks)
		}
		if len(chunks) == 0 {
			fmt.Println(ui.Warning.Render("No matching file"))
			return nil
		}
		fmt.Println(ui.Header.Render("Best matching file: " + chunks[0].FilePath))
		for _, c := range chunks {
			fmt.Println(ui.FormatSource(c.RepositoryOwner, c.RepositoryName, c.FilePath, c.ChunkIndex))
			fmt.Println(ui.ResultContent.Render(snippet(c.Text)))
		}
		return nil
	}

	results := retriever.RankChunks(query, limit)
	if searchJSON {
		return json.NewEncoder(os.Stdout).Encode(results)
	}
	if len(results) == 0 {
		fmt.Println(ui.Warning.Render("No results"))
		return nil
	}

	for i, r := range results {
		fmt.Printf("%s %s %s\n",
			ui.ResultHeader.Render(fmt.Sprintf("%d.", i+1)),
			ui.FormatSource(r.Chunk.RepositoryOwner, r.Chunk.RepositoryName, r.Chunk.FilePath, r.Chunk.ChunkIndex),
			ui.FormatScore(r.Score),
		)
		fmt.Println(ui.ResultContent.Render(snippet(r.Chunk.Text)))
	}
	return nil
}

// snippet shortens chunk text for terminal display.
func snippet(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	const maxLen = 160
	if len(text) > maxLen {
		text = text[:maxLen-3] + "..."
	}
	return text
}
