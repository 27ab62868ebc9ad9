package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// maxLineSize bounds a single log line during replay. A 3k chunk encoded
// as JSON fits comfortably; the margin covers escaped text.
const maxLineSize = 1024 * 1024

// PersistenceError indicates a durable-log write failure. Callers must
// not treat the affected chunk as stored.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// JSONLStore is a ChunkStore backed by an append-only JSONL file plus an
// in-memory index. All writes serialize on a single mutex; reads copy the
// index under the same lock so they never observe a torn write.
type JSONLStore struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	chunks []Chunk
	ids    map[string]struct{}
}

// NewJSONLStore opens (or creates) the log at path and replays it into
// the in-memory index. Malformed lines, e.g. a partially written tail
// from an unclean shutdown, are skipped and logged, never fatal.
func NewJSONLStore(path string) (*JSONLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &JSONLStore{
		path: path,
		ids:  make(map[string]struct{}),
	}
	if err := s.replay(); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk log: %w", err)
	}
	s.file = file

	log.Debug("Chunk store ready", "path", path, "chunks", len(s.chunks))
	return s, nil
}

// replay rebuilds the in-memory index from the durable log. Replaying
// from scratch is idempotent: every line is loaded once, and a line whose
// ID was already seen is skipped.
func (s *JSONLStore) replay() error {
	file, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open chunk log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNum := 0
	skipped := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var c Chunk
		if err := json.Unmarshal(line, &c); err != nil {
			log.Warn("Skipping malformed chunk log line", "line", lineNum, "error", err)
			skipped++
			continue
		}
		if _, dup := s.ids[c.ID]; dup {
			log.Warn("Skipping duplicate chunk log line", "line", lineNum, "id", c.ID)
			skipped++
			continue
		}
		s.ids[c.ID] = struct{}{}
		s.chunks = append(s.chunks, c)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read chunk log: %w", err)
	}

	if skipped > 0 {
		log.Warn("Chunk log replay finished with skipped lines", "loaded", len(s.chunks), "skipped", skipped)
	}
	return nil
}

// Add appends the chunk to the log and then to the in-memory index. The
// chunk is visible to reads only after the append succeeded.
func (s *JSONLStore) Add(chunk *Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if chunk.ID == "" {
		chunk.ID = uuid.NewString()
	}
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = now
	}
	chunk.UpdatedAt = now

	data, err := json.Marshal(chunk)
	if err != nil {
		return &PersistenceError{Op: "encode", Err: err}
	}
	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}
	if err := s.file.Sync(); err != nil {
		return &PersistenceError{Op: "sync", Err: err}
	}

	s.ids[chunk.ID] = struct{}{}
	s.chunks = append(s.chunks, *chunk)
	return nil
}

// FindAll returns a copy of the index. Concurrent writes never affect a
// snapshot already handed out.
func (s *JSONLStore) FindAll() []Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]Chunk, len(s.chunks))
	copy(snapshot, s.chunks)
	return snapshot
}

// DeleteByScope removes matching chunks and rewrites the log without
// them. An append-only log cannot delete a line in place, so the whole
// file is rewritten to a temp file and renamed over the original while
// the writer lock is held. Returns the number of chunks removed.
func (s *JSONLStore) DeleteByScope(scope Scope) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0:0]
	removed := 0
	for _, c := range s.chunks {
		if scope.Matches(c) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	if removed == 0 {
		return 0, nil
	}

	if err := s.rewrite(kept); err != nil {
		return 0, err
	}

	// Mutate the index only once the rewritten log is durable, so a
	// failed rewrite leaves chunks and ids consistent.
	for _, c := range s.chunks {
		if scope.Matches(c) {
			delete(s.ids, c.ID)
		}
	}
	s.chunks = kept

	log.Debug("Deleted chunks by scope", "owner", scope.Owner, "name", scope.Name, "branch", scope.Branch, "removed", removed)
	return removed, nil
}

// rewrite replaces the log with exactly the given chunks.
func (s *JSONLStore) rewrite(chunks []Chunk) error {
	tmpPath := s.path + ".tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return &PersistenceError{Op: "rewrite", Err: err}
	}

	w := bufio.NewWriter(tmp)
	for i := range chunks {
		data, err := json.Marshal(&chunks[i])
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return &PersistenceError{Op: "rewrite", Err: err}
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return &PersistenceError{Op: "rewrite", Err: err}
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &PersistenceError{Op: "rewrite", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &PersistenceError{Op: "rewrite", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &PersistenceError{Op: "rewrite", Err: err}
	}

	if s.file != nil {
		s.file.Close()
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		// The old handle is already closed; reopen the original log so
		// later appends still have somewhere to go.
		if file, reopenErr := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); reopenErr == nil {
			s.file = file
		}
		return &PersistenceError{Op: "rewrite", Err: err}
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return &PersistenceError{Op: "reopen", Err: err}
	}
	s.file = file
	return nil
}

// Stats summarizes the store contents.
func (s *JSONLStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		ChunkCount: len(s.chunks),
		Repos:      make(map[string]int),
	}
	files := make(map[string]struct{})
	for _, c := range s.chunks {
		files[c.FileKey()] = struct{}{}
		stats.Repos[c.RepositoryOwner+"/"+c.RepositoryName]++
	}
	stats.FileCount = len(files)
	return stats
}

// Close closes the underlying log file.
func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// Verify JSONLStore implements ChunkStore.
var _ ChunkStore = (*JSONLStore)(nil)
