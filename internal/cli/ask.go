package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/docschat-dev/docschat/internal/config"
	"github.com/docschat-dev/docschat/internal/llm"
	"github.com/docschat-dev/docschat/internal/search"
	"github.com/docschat-dev/docschat/internal/store"
	"github.com/docschat-dev/docschat/internal/ui"
)

var askPlain bool

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the indexed documentation",
	Long: `Ask a question in natural language. Retrieval runs a fallback chain:
first the single best-matching file, then the top-scoring chunks, then a
widened keyword pass. The matching chunks are embedded into the prompt
for the completion service.

Examples:
  docschat ask "how do I create an organization"
  docschat ask --plain "what does the webhook payload look like"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askPlain, "plain", false, "print the answer without markdown rendering")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]
	cfg := config.Get()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted")
		cancel()
	}()

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

	log.Debug("Retrieving context", "question", question)
	chunks := retriever.Retrieve(question)

	service, err := llm.NewService(llm.Config{
		Model:   cfg.LLM.Model,
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to create completion service: %w", err)
	}

	qa := llm.NewQAService(service)
	contentCh, errCh, sources := qa.AnswerStream(ctx, question, chunks, llm.DefaultQAOptions())

	if askPlain {
		// Plain mode streams fragments as they arrive.
		for fragment := range contentCh {
			fmt.Print(fragment)
		}
		fmt.Println()
	} else {
		var answer strings.Builder
		for fragment := range contentCh {
			answer.WriteString(fragment)
		}
		rendered, err := glamour.Render(answer.String(), "auto")
		if err != nil {
			fmt.Println(answer.String())
		} else {
			fmt.Print(rendered)
		}
	}

	if err := <-errCh; err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to generate answer: %w", err)
	}

	if len(sources) > 0 {
		fmt.Println(ui.Dim.Render("Sources:"))
		for i, c := range sources {
			fmt.Printf("  [%d] %s\n", i+1, ui.FormatSource(c.RepositoryOwner, c.RepositoryName, c.FilePath, c.ChunkIndex))
		}
	}
	return nil
}
