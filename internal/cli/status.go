package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/docschat-dev/docschat/internal/config"
	"github.com/docschat-dev/docschat/internal/store"
	"github.com/docschat-dev/docschat/internal/ui"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show chunk store contents",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	st, err := store.NewJSONLStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open chunk store: %w", err)
	}
	defer st.Close()

	stats := st.Stats()

	fmt.Println(ui.Header.Render("Chunk store"))
	fmt.Printf("  Path:   %s\n", cfg.Store.Path)
	fmt.Printf("  Chunks: %d\n", stats.ChunkCount)
	fmt.Printf("  Files:  %d\n", stats.FileCount)

	if len(stats.Repos) == 0 {
		fmt.Println()
		fmt.Println(ui.Dim.Render("No repositories indexed yet. Run 'docschat index'."))
		return nil
	}

	repos := make([]string, 0, len(stats.Repos))
	for repo := range stats.Repos {
		repos = append(repos, repo)
	}
	sort.Strings(repos)

	fmt.Println()
	fmt.Println(ui.Header.Render("Repositories"))
	for _, repo := range repos {
		fmt.Printf("  %s %s\n", ui.FilePath.Render(repo), ui.Dim.Render(fmt.Sprintf("(%d chunks)", stats.Repos[repo])))
	}
	return nil
}
