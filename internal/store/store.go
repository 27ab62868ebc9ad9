package store

// ChunkStore defines the interface for chunk persistence. The indexer is
// the single writer; retrieval reads snapshots and never mutates.
type ChunkStore interface {
	// Add assigns an ID and timestamps if absent, appends the chunk to the
	// durable log, and then makes it visible to reads. A persistence
	// failure is returned to the caller; the chunk is not indexed.
	Add(chunk *Chunk) error

	// FindAll returns an independent snapshot of every chunk. The snapshot
	// is unaffected by writes that happen after it is taken.
	FindAll() []Chunk

	// DeleteByScope removes every chunk matching the scope, from the
	// in-memory index and from the durable log.
	DeleteByScope(scope Scope) (int, error)

	// Stats summarizes the store contents.
	Stats() Stats

	// Close releases the store's resources.
	Close() error
}
