package search

import (
	"sort"

	"github.com/charmbracelet/log"

	"github.com/docschat-dev/docschat/internal/store"
)

// Options configures retrieval.
type Options struct {
	// TopKPerFile is how many of a file's highest-scoring chunks are
	// averaged into its aggregate score.
	TopKPerFile int

	// ChunkLimit is the result size for the scored top-N stage.
	ChunkLimit int

	// KeywordLimit is the widened result size for the keyword fallback
	// stage.
	KeywordLimit int
}

// DefaultOptions returns the standard retrieval parameters.
func DefaultOptions() Options {
	return Options{
		TopKPerFile:  5,
		ChunkLimit:   10,
		KeywordLimit: 30,
	}
}

// ScoredChunk pairs a chunk with its relevance score for one query.
type ScoredChunk struct {
	Chunk store.Chunk `json:"chunk"`
	Score float64     `json:"score"`
}

// Retriever answers queries over the chunk store. It is read-only: every
// query works on a FindAll snapshot and requires no synchronization.
type Retriever struct {
	store  store.ChunkStore
	scorer *Scorer
	opts   Options
}

// New creates a Retriever, applying defaults for zero option values.
func New(st store.ChunkStore, scorer *Scorer, opts Options) *Retriever {
	defaults := DefaultOptions()
	if opts.TopKPerFile <= 0 {
		opts.TopKPerFile = defaults.TopKPerFile
	}
	if opts.ChunkLimit <= 0 {
		opts.ChunkLimit = defaults.ChunkLimit
	}
	if opts.KeywordLimit <= 0 {
		opts.KeywordLimit = defaults.KeywordLimit
	}
	return &Retriever{store: st, scorer: scorer, opts: opts}
}

// Retrieve runs the fallback chain: best matching file, then scored
// top-N chunks, then a widened keyword pass. Each stage runs only when
// the previous one came back empty.
func (r *Retriever) Retrieve(query string) []store.Chunk {
	if chunks := r.FindBestMatchingFile(query); len(chunks) > 0 {
		log.Debug("Retrieval served by best-file match", "query", query, "chunks", len(chunks))
		return chunks
	}
	if chunks := r.FindRelevantChunks(query, r.opts.ChunkLimit); len(chunks) > 0 {
		log.Debug("Retrieval served by top-N chunks", "query", query, "chunks", len(chunks))
		return chunks
	}
	chunks := r.FindRelevantChunksByKeywords(query, r.opts.KeywordLimit)
	log.Debug("Retrieval served by keyword fallback", "query", query, "chunks", len(chunks))
	return chunks
}

// fileGroup accumulates one file's chunks during best-file aggregation.
type fileGroup struct {
	key    string // provenance key, see store.Chunk.FileKey
	path   string
	chunks []store.Chunk
	scores []float64
}

// FindBestMatchingFile returns the chunks of the single file whose top-K
// average chunk score (plus a filename bonus) is highest. Averaging the
// top K rewards files with several strong matches over files with one
// lucky chunk. The winner's chunks come back in chunkIndex order so the
// downstream prompt reads like the document. Ties break lexicographically
// on the file's provenance key (owner/name@branch:path); callers can rely
// on that being stable.
func (r *Retriever) FindBestMatchingFile(query string) []store.Chunk {
	snapshot := r.store.FindAll()
	if len(snapshot) == 0 {
		return nil
	}

	queryWords := QueryWords(query)

	groups := make(map[string]*fileGroup)
	for _, c := range snapshot {
		key := c.FileKey()
		g, ok := groups[key]
		if !ok {
			g = &fileGroup{key: key, path: c.FilePath}
			groups[key] = g
		}
		g.chunks = append(g.chunks, c)
		g.scores = append(g.scores, r.scorer.Score(c.Text, c.FilePath, queryWords, query))
	}

	var best *fileGroup
	bestScore := 0.0
	for _, g := range groups {
		if !hasPositive(g.scores) {
			continue
		}
		agg := topKAverage(g.scores, r.opts.TopKPerFile) + r.scorer.PathBonus(g.path, queryWords)
		if best == nil || agg > bestScore || (agg == bestScore && g.key < best.key) {
			best = g
			bestScore = agg
		}
	}
	if best == nil {
		return nil
	}

	sort.Slice(best.chunks, func(i, j int) bool {
		return best.chunks[i].ChunkIndex < best.chunks[j].ChunkIndex
	})
	return best.chunks
}

// FindRelevantChunks scores every chunk independently and returns the
// highest-scoring ones, dropping chunks with no positive score.
func (r *Retriever) FindRelevantChunks(query string, limit int) []store.Chunk {
	scored := r.RankChunks(query, limit)
	chunks := make([]store.Chunk, 0, len(scored))
	for _, sc := range scored {
		chunks = append(chunks, sc.Chunk)
	}
	if len(chunks) == 0 {
		return nil
	}
	return chunks
}

// FindRelevantChunksByKeywords is the widened fallback variant: the same
// algorithm as FindRelevantChunks, run with a larger limit by callers of
// the fallback chain.
func (r *Retriever) FindRelevantChunksByKeywords(query string, limit int) []store.Chunk {
	return r.FindRelevantChunks(query, limit)
}

// RankChunks returns positively scored chunks in descending score order,
// truncated to limit. Equal scores order by file path then chunkIndex to
// keep results deterministic.
func (r *Retriever) RankChunks(query string, limit int) []ScoredChunk {
	snapshot := r.store.FindAll()
	queryWords := QueryWords(query)

	var scored []ScoredChunk
	for _, c := range snapshot {
		s := r.scorer.Score(c.Text, c.FilePath, queryWords, query)
		if s <= 0 {
			continue
		}
		scored = append(scored, ScoredChunk{Chunk: c, Score: s})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Chunk.FilePath != scored[j].Chunk.FilePath {
			return scored[i].Chunk.FilePath < scored[j].Chunk.FilePath
		}
		return scored[i].Chunk.ChunkIndex < scored[j].Chunk.ChunkIndex
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// topKAverage averages the k highest scores.
func topKAverage(scores []float64, k int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	if k > len(sorted) {
		k = len(sorted)
	}
	sum := 0.0
	for _, s := range sorted[:k] {
		sum += s
	}
	return sum / float64(k)
}

func hasPositive(scores []float64) bool {
	for _, s := range scores {
		if s > 0 {
			return true
		}
	}
	return false
}
