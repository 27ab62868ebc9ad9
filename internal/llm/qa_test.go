package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docschat-dev/docschat/internal/store"
)

// mockService captures the completion request and returns a fixed answer.
type mockService struct {
	messages []Message
	opts     CompletionOptions
	answer   string
	err      error
}

var _ Service = (*mockService)(nil)

func (m *mockService) Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error) {
	m.messages = messages
	m.opts = opts
	return m.answer, m.err
}

func (m *mockService) CompleteStream(ctx context.Context, messages []Message, opts CompletionOptions) (<-chan string, <-chan error) {
	m.messages = messages
	m.opts = opts

	contentCh := make(chan string, len(m.answer)+1)
	errCh := make(chan error, 1)
	if m.err != nil {
		errCh <- m.err
	} else {
		// Split the canned answer into a few fragments.
		for _, r := range m.answer {
			contentCh <- string(r)
		}
	}
	close(contentCh)
	close(errCh)
	return contentCh, errCh
}

func (m *mockService) ModelName() string { return "mock" }

func docChunk(path, text string, index int) store.Chunk {
	return store.Chunk{
		FilePath:        path,
		Text:            text,
		ChunkIndex:      index,
		RepositoryOwner: "acme",
		RepositoryName:  "docs",
		Branch:          "main",
	}
}

func TestAnswerEmbedsChunksInPrompt(t *testing.T) {
	mock := &mockService{answer: "Use the settings page."}
	qa := NewQAService(mock)

	chunks := []store.Chunk{
		docChunk("guide.md", "Open the settings page to create an organization.", 0),
		docChunk("guide.md", "Click New Organization and pick a name.", 1),
	}

	result, err := qa.Answer(context.Background(), "How do I create an organization?", chunks, DefaultQAOptions())
	require.NoError(t, err)

	assert.Equal(t, "Use the settings page.", result.Answer)
	assert.Equal(t, chunks, result.Sources)

	require.Len(t, mock.messages, 2)
	assert.Equal(t, "system", mock.messages[0].Role)
	assert.Equal(t, "user", mock.messages[1].Role)

	prompt := mock.messages[1].Content
	assert.Contains(t, prompt, "How do I create an organization?")
	assert.Contains(t, prompt, "Open the settings page to create an organization.")
	assert.Contains(t, prompt, "Click New Organization and pick a name.")
	assert.Contains(t, prompt, "acme/docs guide.md")
}

func TestAnswerWithoutChunksReturnsCannedMessage(t *testing.T) {
	mock := &mockService{answer: "should never be asked"}
	qa := NewQAService(mock)

	result, err := qa.Answer(context.Background(), "anything", nil, DefaultQAOptions())
	require.NoError(t, err)

	assert.Contains(t, result.Answer, "couldn't find anything")
	assert.Empty(t, result.Sources)
	assert.Nil(t, mock.messages) // completion never invoked
}

func TestAnswerTruncatesContextChunks(t *testing.T) {
	mock := &mockService{answer: "ok"}
	qa := NewQAService(mock)

	var chunks []store.Chunk
	for i := 0; i < 12; i++ {
		chunks = append(chunks, docChunk("guide.md", "section text", i))
	}

	opts := DefaultQAOptions()
	opts.MaxContextChunks = 3

	result, err := qa.Answer(context.Background(), "question", chunks, opts)
	require.NoError(t, err)

	assert.Len(t, result.Sources, 3)
	assert.Equal(t, 0, result.Sources[0].ChunkIndex)
	assert.Equal(t, 2, result.Sources[2].ChunkIndex)
}

func TestAnswerForwardsCompletionOptions(t *testing.T) {
	mock := &mockService{answer: "ok"}
	qa := NewQAService(mock)

	opts := QAOptions{Temperature: 0.7, MaxTokens: 512, MaxContextChunks: 8}
	_, err := qa.Answer(context.Background(), "q", []store.Chunk{docChunk("a.md", "text", 0)}, opts)
	require.NoError(t, err)

	assert.Equal(t, 0.7, mock.opts.Temperature)
	assert.Equal(t, 512, mock.opts.MaxTokens)
}

func TestAnswerWrapsCompletionError(t *testing.T) {
	mock := &mockService{err: errors.New("rate limited")}
	qa := NewQAService(mock)

	_, err := qa.Answer(context.Background(), "q", []store.Chunk{docChunk("a.md", "text", 0)}, DefaultQAOptions())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestAnswerStreamDeliversFragments(t *testing.T) {
	mock := &mockService{answer: "streamed"}
	qa := NewQAService(mock)

	contentCh, errCh, sources := qa.AnswerStream(context.Background(), "q",
		[]store.Chunk{docChunk("a.md", "text", 0)}, DefaultQAOptions())

	var got string
	for fragment := range contentCh {
		got += fragment
	}

	assert.Equal(t, "streamed", got)
	assert.NoError(t, <-errCh)
	require.Len(t, sources, 1)
	assert.Equal(t, "a.md", sources[0].FilePath)
}

func TestAnswerStreamWithoutChunks(t *testing.T) {
	mock := &mockService{answer: "should never be asked"}
	qa := NewQAService(mock)

	contentCh, errCh, sources := qa.AnswerStream(context.Background(), "q", nil, DefaultQAOptions())

	var got string
	for fragment := range contentCh {
		got += fragment
	}

	assert.Contains(t, got, "couldn't find anything")
	assert.NoError(t, <-errCh)
	assert.Empty(t, sources)
	assert.Nil(t, mock.messages)
}

func TestAnswerStreamForwardsError(t *testing.T) {
	mock := &mockService{err: errors.New("rate limited")}
	qa := NewQAService(mock)

	contentCh, errCh, _ := qa.AnswerStream(context.Background(), "q",
		[]store.Chunk{docChunk("a.md", "text", 0)}, DefaultQAOptions())

	for range contentCh {
	}
	assert.EqualError(t, <-errCh, "rate limited")
}

func TestBuildContextNumbersSources(t *testing.T) {
	got := buildContext([]store.Chunk{
		docChunk("a.md", "first", 0),
		docChunk("b.md", "second", 3),
	})

	assert.Contains(t, got, "--- Source [1]: acme/docs a.md (section 1) ---")
	assert.Contains(t, got, "--- Source [2]: acme/docs b.md (section 4) ---")
	assert.Contains(t, got, "first")
	assert.Contains(t, got, "second")
}

func TestNewServiceRequiresAPIKey(t *testing.T) {
	_, err := NewService(Config{Model: "gpt-4o-mini"})
	assert.Error(t, err)
}
