// Package config handles configuration loading and validation for docschat.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/docschat-dev/docschat/internal/search"
)

// Config represents the complete docschat configuration.
type Config struct {
	Store        StoreConfig          `mapstructure:"store"`
	Indexing     IndexingConfig       `mapstructure:"indexing"`
	Retrieval    RetrievalConfig      `mapstructure:"retrieval"`
	Source       SourceConfig         `mapstructure:"source"`
	LLM          LLMConfig            `mapstructure:"llm"`
	Repositories []RepositoryConfig   `mapstructure:"repositories"`
	Synonyms     []search.SynonymRule `mapstructure:"synonyms"`
}

// StoreConfig configures the chunk store.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// IndexingConfig configures the indexing process.
type IndexingConfig struct {
	MaxChunkSize   int  `mapstructure:"max_chunk_size"`
	MinChunkSize   int  `mapstructure:"min_chunk_size"`
	BatchSize      int  `mapstructure:"batch_size"`
	FetchTimeout   int  `mapstructure:"fetch_timeout"` // seconds
	FetchRetries   int  `mapstructure:"fetch_retries"`
	PurgeOnStartup bool `mapstructure:"purge_on_startup"`
}

// RetrievalConfig configures the retriever.
type RetrievalConfig struct {
	TopKPerFile  int `mapstructure:"top_k_per_file"`
	ChunkLimit   int `mapstructure:"chunk_limit"`
	KeywordLimit int `mapstructure:"keyword_limit"`
}

// SourceConfig configures where repository content comes from.
type SourceConfig struct {
	GitHub GitHubSourceConfig `mapstructure:"github"`
	Local  LocalSourceConfig  `mapstructure:"local"`
}

// GitHubSourceConfig configures the GitHub content source.
type GitHubSourceConfig struct {
	Token string `mapstructure:"token"`
}

// LocalSourceConfig configures the local directory content source.
type LocalSourceConfig struct {
	Root   string   `mapstructure:"root"`
	Ignore []string `mapstructure:"ignore"`
}

// LLMConfig configures the completion service.
type LLMConfig struct {
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// RepositoryConfig names one repository to index.
type RepositoryConfig struct {
	Owner  string `mapstructure:"owner"`
	Name   string `mapstructure:"name"`
	Branch string `mapstructure:"branch"`
	Source string `mapstructure:"source"` // "github" (default) or "local"
}

// Global configuration instance
var cfg *Config

// Get returns the current configuration.
func Get() *Config {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path: DefaultChunkLogPath(),
		},
		Indexing: IndexingConfig{
			MaxChunkSize: DefaultMaxChunkSize,
			MinChunkSize: DefaultMinChunkSize,
			BatchSize:    DefaultBatchSize,
			FetchTimeout: DefaultFetchTimeout,
			FetchRetries: DefaultFetchRetries,
		},
		Retrieval: RetrievalConfig{
			TopKPerFile:  DefaultTopKPerFile,
			ChunkLimit:   DefaultChunkLimit,
			KeywordLimit: DefaultKeywordLimit,
		},
		LLM: LLMConfig{
			Model: DefaultLLMModel,
		},
		Synonyms: search.DefaultSynonyms(),
	}
}

// Load reads configuration from file and environment variables.
func Load(configFile string) error {
	setDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(DefaultConfigDir())
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("DOCSCHAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug("No config file found, using defaults")
	} else {
		log.Debug("Loaded config from", "file", viper.ConfigFileUsed())
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}

	// The synonym table is configuration data; an absent table means the
	// built-in defaults, not an empty table.
	if cfg.Synonyms == nil {
		cfg.Synonyms = search.DefaultSynonyms()
	}

	loadSecretsFromEnv()
	return nil
}

// setDefaults sets default values in viper.
func setDefaults() {
	viper.SetDefault("store.path", DefaultChunkLogPath())

	viper.SetDefault("indexing.max_chunk_size", DefaultMaxChunkSize)
	viper.SetDefault("indexing.min_chunk_size", DefaultMinChunkSize)
	viper.SetDefault("indexing.batch_size", DefaultBatchSize)
	viper.SetDefault("indexing.fetch_timeout", DefaultFetchTimeout)
	viper.SetDefault("indexing.fetch_retries", DefaultFetchRetries)
	viper.SetDefault("indexing.purge_on_startup", false)

	viper.SetDefault("retrieval.top_k_per_file", DefaultTopKPerFile)
	viper.SetDefault("retrieval.chunk_limit", DefaultChunkLimit)
	viper.SetDefault("retrieval.keyword_limit", DefaultKeywordLimit)

	viper.SetDefault("llm.model", DefaultLLMModel)
}

// loadSecretsFromEnv loads credentials from conventional environment
// variables when the config file leaves them unset.
func loadSecretsFromEnv() {
	if cfg.LLM.APIKey == "" {
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			cfg.LLM.APIKey = key
		}
	}
	if cfg.Source.GitHub.Token == "" {
		if token := os.Getenv("GITHUB_TOKEN"); token != "" {
			cfg.Source.GitHub.Token = token
		}
	}
}

// ConfigFilePath returns the path of the loaded config file, or empty
// string if none.
func ConfigFilePath() string {
	return viper.ConfigFileUsed()
}
