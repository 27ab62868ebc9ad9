package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/docschat-dev/docschat/internal/store"
)

// QAService answers questions using retrieved documentation chunks as
// context for the completion service.
type QAService struct {
	llm Service
}

// QAOptions configures answer generation.
type QAOptions struct {
	// Temperature controls creativity (0-1).
	Temperature float64

	// MaxTokens limits the response length.
	MaxTokens int

	// MaxContextChunks limits how many retrieved chunks go into the
	// prompt.
	MaxContextChunks int
}

// DefaultQAOptions returns sensible defaults.
func DefaultQAOptions() QAOptions {
	return QAOptions{
		Temperature:      0.3, // lower for more grounded answers
		MaxTokens:        2048,
		MaxContextChunks: 8,
	}
}

// QAResult contains the answer and the chunks it was grounded on.
type QAResult struct {
	Answer  string        `json:"answer"`
	Sources []store.Chunk `json:"sources"`
}

// NewQAService creates a new Q&A service.
func NewQAService(llm Service) *QAService {
	return &QAService{llm: llm}
}

// Answer generates an answer to the question using the retrieved chunks
// as context. Chunks must already be in reading order; they are embedded
// into the prompt as-is.
func (qa *QAService) Answer(ctx context.Context, question string, chunks []store.Chunk, opts QAOptions) (*QAResult, error) {
	if len(chunks) == 0 {
		return &QAResult{
			Answer: "I couldn't find anything in the indexed documentation that answers your question. Try rephrasing, or index more repositories.",
		}, nil
	}

	contextChunks := chunks
	if opts.MaxContextChunks > 0 && len(chunks) > opts.MaxContextChunks {
		contextChunks = chunks[:opts.MaxContextChunks]
	}

	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf("Question: %s\n\n%s", question, buildContext(contextChunks))},
	}

	answer, err := qa.llm.Complete(ctx, messages, CompletionOptions{
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	return &QAResult{Answer: answer, Sources: contextChunks}, nil
}

// AnswerStream is the streaming variant of Answer. The returned content
// channel carries answer fragments as they arrive; the error channel
// yields at most one error after the content channel closes. The context
// chunks are returned immediately so callers can show sources up front.
func (qa *QAService) AnswerStream(ctx context.Context, question string, chunks []store.Chunk, opts QAOptions) (<-chan string, <-chan error, []store.Chunk) {
	if len(chunks) == 0 {
		contentCh := make(chan string, 1)
		errCh := make(chan error, 1)
		contentCh <- "I couldn't find anything in the indexed documentation that answers your question. Try rephrasing, or index more repositories."
		close(contentCh)
		close(errCh)
		return contentCh, errCh, nil
	}

	contextChunks := chunks
	if opts.MaxContextChunks > 0 && len(chunks) > opts.MaxContextChunks {
		contextChunks = chunks[:opts.MaxContextChunks]
	}

	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf("Question: %s\n\n%s", question, buildContext(contextChunks))},
	}

	contentCh, errCh := qa.llm.CompleteStream(ctx, messages, CompletionOptions{
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	return contentCh, errCh, contextChunks
}

// buildContext creates the context block from retrieved chunks.
func buildContext(chunks []store.Chunk) string {
	var sb strings.Builder

	sb.WriteString("Here is the relevant documentation:\n\n")
	for i, c := range chunks {
		sb.WriteString(fmt.Sprintf("--- Source [%d]: %s/%s %s (section %d) ---\n",
			i+1, c.RepositoryOwner, c.RepositoryName, c.FilePath, c.ChunkIndex+1))
		sb.WriteString(c.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// System prompt for documentation Q&A.
const systemPrompt = `You are a helpful assistant that answers questions about documentation.

Your role is to:
1. Read the provided documentation excerpts carefully
2. Answer the user's question accurately based on them
3. Reference the source files when citing documentation
4. Be concise but thorough
5. If the excerpts don't contain enough information to answer, say so

When referencing documentation:
- Use [Source N] notation to cite specific sources
- Mention the file path when relevant

Format your answer in markdown when appropriate.`
