// Package knowledge builds a retrieval-augmented knowledge base over a resume
// and the descriptions of the jobs a user selected.
package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-agent/internal/llm"
	"github.com/jonathan/job-agent/internal/prompts"
)

const (
	// DefaultTopK is how many chunks are stuffed into the answer prompt
	DefaultTopK = 4
	// DefaultEmbedConcurrency bounds in-flight embedding batches
	DefaultEmbedConcurrency = 4
)

// Options tunes how the knowledge base is chunked and queried
type Options struct {
	ChunkSize        int
	ChunkOverlap     int
	TopK             int
	BatchSize        int
	EmbedConcurrency int
	Logger           *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.BatchSize <= 0 || o.BatchSize > llm.MaxEmbedBatch {
		o.BatchSize = llm.MaxEmbedBatch
	}
	if o.EmbedConcurrency <= 0 {
		o.EmbedConcurrency = DefaultEmbedConcurrency
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Answer is the model's reply together with the chunks it was given
type Answer struct {
	Text    string `json:"text"`
	Sources []Hit  `json:"sources"`
}

// Base answers questions from retrieved resume and job description chunks
type Base struct {
	index     *Index
	embedder  llm.Embedder
	generator llm.Client
	opts      Options
}

// ComposeText joins the resume and job descriptions into one document,
// marking each description with a numbered section header.
func ComposeText(resume string, descriptions []string) string {
	var sb strings.Builder
	sb.WriteString(resume)
	for i, jd := range descriptions {
		sb.WriteString(fmt.Sprintf("\n\n--- JOB DESCRIPTION %d ---\n", i+1))
		sb.WriteString(jd)
	}
	return sb.String()
}

// Build chunks and embeds the resume and descriptions. It always starts from
// scratch; callers rebuild when the selection changes.
func Build(ctx context.Context, embedder llm.Embedder, generator llm.Client, resume string, descriptions []string, opts Options) (*Base, error) {
	opts = opts.withDefaults()

	chunks, err := NewSplitter(opts.ChunkSize, opts.ChunkOverlap).Split(ComposeText(resume, descriptions))
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, errors.New("knowledge base has no text to index")
	}

	vectors := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.EmbedConcurrency)
	for start := 0; start < len(chunks); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(chunks))
		g.Go(func() error {
			batch, err := embedder.EmbedDocuments(gctx, chunks[start:end])
			if err != nil {
				return errors.Wrapf(err, "embedding chunks %d-%d", start, end-1)
			}
			if len(batch) != end-start {
				return errors.Newf("embedding chunks %d-%d: got %d vectors", start, end-1, len(batch))
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index, err := NewIndex(ctx, chunks, vectors)
	if err != nil {
		return nil, err
	}

	opts.Logger.Info("knowledge base built",
		zap.Int("descriptions", len(descriptions)),
		zap.Int("chunks", len(chunks)))

	return &Base{index: index, embedder: embedder, generator: generator, opts: opts}, nil
}

// Len returns the number of indexed chunks
func (b *Base) Len() int {
	return b.index.Len()
}

// Retrieve returns the chunks most relevant to question
func (b *Base) Retrieve(ctx context.Context, question string) ([]Hit, error) {
	vector, err := b.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, errors.Wrap(err, "embedding question")
	}
	return b.index.Search(ctx, vector, b.opts.TopK)
}

// Query retrieves relevant chunks and asks the model to answer from them
func (b *Base) Query(ctx context.Context, question string) (*Answer, error) {
	hits, err := b.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	contexts := make([]string, len(hits))
	for i, h := range hits {
		contexts[i] = h.Chunk
	}

	template, err := prompts.Get("advice.json", "rag-answer")
	if err != nil {
		return nil, err
	}
	prompt := prompts.Format(template, map[string]string{
		"Context":  strings.Join(contexts, "\n\n"),
		"Question": question,
	})

	text, err := b.generator.GenerateContent(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return nil, err
	}

	b.opts.Logger.Debug("knowledge base query",
		zap.Int("sources", len(hits)),
		zap.Int("answer_len", len(text)))
	return &Answer{Text: text, Sources: hits}, nil
}
