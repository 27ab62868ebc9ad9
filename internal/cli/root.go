// Package cli implements the command-line interface for docschat.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/docschat-dev/docschat/internal/config"
	"github.com/docschat-dev/docschat/internal/source"
	"github.com/docschat-dev/docschat/internal/ui"
)

var (
	// Version information set at build time
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	cfgFile string
	debug   bool
)

// SetVersionInfo sets the version information from build flags.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "docschat [question]",
	Short: "Chat with your documentation repositories",
	Long: `docschat answers questions using text retrieved from documentation
repositories. It indexes files into bounded chunks, ranks them by keyword
relevance (no embeddings involved), and feeds the best matches to an LLM.

Examples:
  # Index the configured repositories
  docschat index

  # Index one repository from GitHub
  docschat index acme/product-docs

  # Ask a question
  docschat "how do I create an organization"

  # Inspect the raw retrieval results
  docschat search "create organization"`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runAsk(cmd, []string{strings.Join(args, " ")})
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debug {
			ui.SetDebug(true)
			log.Debug("Debug logging enabled")
		}
		if err := config.Load(cfgFile); err != nil {
			log.Warn("Failed to load config", "error", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	ui.InitLogger()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/docschat/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("docschat %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

// parseRepo parses "owner/name" or "owner/name@branch".
func parseRepo(arg string) (source.Repo, error) {
	var repo source.Repo
	if at := strings.Index(arg, "@"); at >= 0 {
		repo.Branch = arg[at+1:]
		arg = arg[:at]
	}
	parts := strings.Split(arg, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return repo, fmt.Errorf("invalid repository %q, expected owner/name[@branch]", arg)
	}
	repo.Owner = parts[0]
	repo.Name = parts[1]
	return repo, nil
}

// newSource creates the content source named by kind ("github" by default).
func newSource(cfg *config.Config, kind string) (source.Source, error) {
	switch kind {
	case "", "github":
		return source.NewGitHubSource(cfg.Source.GitHub.Token), nil
	case "local":
		if cfg.Source.Local.Root == "" {
			return nil, fmt.Errorf("source.local.root is not configured")
		}
		return source.NewLocalSource(cfg.Source.Local.Root, cfg.Source.Local.Ignore), nil
	default:
		return nil, fmt.Errorf("unsupported source %q", kind)
	}
}
