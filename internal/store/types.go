// Package store provides durable chunk storage backed by a JSONL log
// with an in-memory index for fast full scans.
package store

import "time"

// Chunk is the unit of retrieval: a bounded slice of one file's text
// plus its provenance. Chunks are immutable after creation; a rewrite
// replaces a whole scope's chunks, never a single chunk.
type Chunk struct {
	ID              string    `json:"id"`
	FilePath        string    `json:"filePath"`
	Text            string    `json:"text"`
	ChunkIndex      int       `json:"chunkIndex"`
	RepositoryOwner string    `json:"repositoryOwner"`
	RepositoryName  string    `json:"repositoryName"`
	Branch          string    `json:"branch"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Scope identifies the chunks belonging to one content source location.
// An empty Branch matches every branch of the repository.
type Scope struct {
	Owner  string
	Name   string
	Branch string
}

// Matches reports whether the chunk belongs to the scope.
func (s Scope) Matches(c Chunk) bool {
	if c.RepositoryOwner != s.Owner || c.RepositoryName != s.Name {
		return false
	}
	return s.Branch == "" || c.Branch == s.Branch
}

// FileKey returns the identity of the file a chunk came from. Chunks
// with the same FileKey share a contiguous chunkIndex sequence.
func (c Chunk) FileKey() string {
	return c.RepositoryOwner + "/" + c.RepositoryName + "@" + c.Branch + ":" + c.FilePath
}

// Stats summarizes the contents of a store.
type Stats struct {
	ChunkCount int            `json:"chunk_count"`
	FileCount  int            `json:"file_count"`
	Repos      map[string]int `json:"repos"` // owner/name -> chunk count
}
