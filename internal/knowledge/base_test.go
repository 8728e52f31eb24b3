package knowledge

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-agent/internal/llm"
)

// keywordEmbedder embeds text as counts of a fixed vocabulary
type keywordEmbedder struct {
	vocab   []string
	mu      sync.Mutex
	batches int
	failOn  string
}

func (e *keywordEmbedder) embed(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, len(e.vocab))
	for i, w := range e.vocab {
		v[i] = float32(strings.Count(lower, w))
	}
	return v
}

func (e *keywordEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batches++
	e.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if e.failOn != "" && strings.Contains(text, e.failOn) {
			return nil, errors.New("embedding service unavailable")
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *keywordEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

type recordingClient struct {
	prompts []string
	reply   string
}

func (c *recordingClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	c.prompts = append(c.prompts, prompt)
	return c.reply, nil
}

func (c *recordingClient) GetModel(llm.ModelTier) string { return "fake" }

func (c *recordingClient) Close() error { return nil }

func TestComposeText(t *testing.T) {
	text := ComposeText("RESUME", []string{"first jd", "second jd"})
	assert.Equal(t, "RESUME\n\n--- JOB DESCRIPTION 1 ---\nfirst jd\n\n--- JOB DESCRIPTION 2 ---\nsecond jd", text)
}

func TestBuildAndQuery(t *testing.T) {
	embedder := &keywordEmbedder{vocab: []string{"python", "tensorflow", "pytorch", "sql"}}
	client := &recordingClient{reply: "Emphasize TensorFlow."}

	resume := "Python, SQL, 3 years data analysis"
	jds := []string{
		"Senior Data Scientist with Python and TensorFlow.",
		"ML Engineer proficient in PyTorch and SQL.",
	}

	base, err := Build(context.Background(), embedder, client, resume, jds, Options{ChunkSize: 60, ChunkOverlap: 0, TopK: 1})
	require.NoError(t, err)
	assert.Greater(t, base.Len(), 1)

	answer, err := base.Query(context.Background(), "How do I show TensorFlow experience?")
	require.NoError(t, err)
	assert.Equal(t, "Emphasize TensorFlow.", answer.Text)
	require.Len(t, answer.Sources, 1)
	assert.Contains(t, answer.Sources[0].Chunk, "TensorFlow")

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Question: How do I show TensorFlow experience?")
	assert.Contains(t, client.prompts[0], answer.Sources[0].Chunk)
}

func TestBuild_Batches(t *testing.T) {
	embedder := &keywordEmbedder{vocab: []string{"word"}}
	text := strings.Repeat("word ", 400)

	base, err := Build(context.Background(), embedder, &recordingClient{}, text, nil,
		Options{ChunkSize: 50, ChunkOverlap: 0, BatchSize: 5, EmbedConcurrency: 2})
	require.NoError(t, err)

	expectedBatches := (base.Len() + 4) / 5
	assert.Equal(t, expectedBatches, embedder.batches)
}

func TestBuild_EmbeddingFailure(t *testing.T) {
	embedder := &keywordEmbedder{vocab: []string{"x"}, failOn: "JOB DESCRIPTION"}

	_, err := Build(context.Background(), embedder, &recordingClient{}, "resume", []string{"jd"}, Options{})
	assert.ErrorContains(t, err, "embedding service unavailable")
}

func TestBuild_EmptyText(t *testing.T) {
	_, err := Build(context.Background(), &keywordEmbedder{}, &recordingClient{}, "  ", nil, Options{})
	assert.ErrorContains(t, err, "no text")
}
