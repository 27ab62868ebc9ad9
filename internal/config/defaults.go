package config

import (
	"os"
	"path/filepath"
)

// Default configuration values
const (
	// Chunking defaults
	DefaultMaxChunkSize = 3000
	DefaultMinChunkSize = 50
	DefaultBatchSize    = 10
	DefaultFetchTimeout = 30 // seconds
	DefaultFetchRetries = 2

	// Retrieval defaults
	DefaultTopKPerFile  = 5
	DefaultChunkLimit   = 10
	DefaultKeywordLimit = 30

	// Completion defaults
	DefaultLLMModel = "gpt-4o-mini"

	// Storage
	DefaultChunkLogName = "chunks.jsonl"
)

// DefaultConfigDir returns the default configuration directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/docschat"
	}
	return filepath.Join(home, ".config", "docschat")
}

// DefaultDataDir returns the default data directory path.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".local/share/docschat"
	}
	return filepath.Join(home, ".local", "share", "docschat")
}

// DefaultChunkLogPath returns the default chunk log file path.
func DefaultChunkLogPath() string {
	return filepath.Join(DefaultDataDir(), DefaultChunkLogName)
}
