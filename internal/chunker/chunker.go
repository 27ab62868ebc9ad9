// Package chunker splits raw document text into bounded retrieval chunks.
package chunker

import (
	"regexp"
	"strings"
)

// sentenceSep is the boundary used when a single paragraph overflows the
// chunk size. Splitting on ". " keeps abbreviations and decimals mostly
// intact without real sentence parsing.
const sentenceSep = ". "

// paragraphSep matches blank-line boundaries, tolerating whitespace on
// the blank line itself.
var paragraphSep = regexp.MustCompile(`\n[ \t\r]*\n`)

// Options configures the chunker.
type Options struct {
	// MaxChunkSize is the maximum chunk length in bytes. A single
	// sentence longer than this is emitted whole rather than truncated.
	MaxChunkSize int

	// MinViableSize is the minimum trimmed length of a useful chunk.
	// Shorter chunks carry no retrieval signal and are discarded.
	MinViableSize int
}

// DefaultOptions returns the standard chunking parameters.
func DefaultOptions() Options {
	return Options{
		MaxChunkSize:  3000,
		MinViableSize: 50,
	}
}

// Chunker splits text into bounded chunks. Split is a pure function:
// identical input always yields an identical chunk sequence, which is
// what makes reindexing idempotent.
type Chunker struct {
	opts Options
}

// New creates a Chunker, applying defaults for zero values.
func New(opts Options) *Chunker {
	if opts.MaxChunkSize <= 0 {
		opts.MaxChunkSize = DefaultOptions().MaxChunkSize
	}
	if opts.MinViableSize <= 0 {
		opts.MinViableSize = DefaultOptions().MinViableSize
	}
	return &Chunker{opts: opts}
}

// Split breaks text into chunks on paragraph boundaries, falling back to
// sentence boundaries for paragraphs that alone exceed the chunk size.
// Chunks whose trimmed length is below MinViableSize are dropped.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	paragraphs := paragraphSep.Split(text, -1)

	var chunks []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			chunks = append(chunks, buf.String())
			buf.Reset()
		}
	}

	for _, para := range paragraphs {
		if len(para) > c.opts.MaxChunkSize {
			// Oversize paragraph: close the running buffer and split the
			// paragraph on sentence boundaries instead.
			flush()
			chunks = append(chunks, c.splitSentences(para)...)
			continue
		}

		if buf.Len() > 0 && buf.Len()+len("\n\n")+len(para) > c.opts.MaxChunkSize {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(para)
	}
	flush()

	return c.discardUnviable(chunks)
}

// splitSentences applies the same greedy accumulation to sentences. A
// sentence that still exceeds the chunk size is emitted whole; hard
// truncation would corrupt its meaning.
func (c *Chunker) splitSentences(para string) []string {
	sentences := strings.Split(para, sentenceSep)

	var chunks []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			chunks = append(chunks, buf.String())
			buf.Reset()
		}
	}

	for _, sentence := range sentences {
		if len(sentence) > c.opts.MaxChunkSize {
			flush()
			chunks = append(chunks, sentence)
			continue
		}

		if buf.Len() > 0 && buf.Len()+len(sentenceSep)+len(sentence) > c.opts.MaxChunkSize {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteString(sentenceSep)
		}
		buf.WriteString(sentence)
	}
	flush()

	return chunks
}

// discardUnviable drops chunks below the minimum viable size.
func (c *Chunker) discardUnviable(chunks []string) []string {
	kept := chunks[:0]
	for _, chunk := range chunks {
		if len(strings.TrimSpace(chunk)) >= c.opts.MinViableSize {
			kept = append(kept, chunk)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
