package knowledge

import (
	"context"
	"math"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/philippgille/chromem-go"
)

// Hit is one retrieved chunk and its cosine similarity to the query
type Hit struct {
	Chunk string  `json:"chunk"`
	Score float64 `json:"score"`
}

// Index is an in-memory exact nearest-neighbour index over chunk embeddings,
// backed by a chromem collection. Chunks whose embedding is all zeros carry no
// direction and are never returned.
type Index struct {
	chunks     []string
	dimension  int
	collection *chromem.Collection
}

// NewIndex builds an index from chunks and their embeddings, which must align.
func NewIndex(ctx context.Context, chunks []string, vectors [][]float32) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, errors.Newf("%d chunks but %d vectors", len(chunks), len(vectors))
	}

	collection, err := chromem.NewDB().CreateCollection("knowledge", nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create vector collection")
	}

	idx := &Index{chunks: chunks, collection: collection}
	docs := make([]chromem.Document, 0, len(chunks))
	for i, v := range vectors {
		if i == 0 {
			idx.dimension = len(v)
		} else if len(v) != idx.dimension {
			return nil, errors.Newf("vector %d has dimension %d, expected %d", i, len(v), idx.dimension)
		}
		if isZero(v) {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:        strconv.Itoa(i),
			Embedding: v,
			Content:   chunks[i],
		})
	}

	if len(docs) > 0 {
		if err := collection.AddDocuments(ctx, docs, DefaultEmbedConcurrency); err != nil {
			return nil, errors.Wrap(err, "failed to index chunks")
		}
	}
	return idx, nil
}

// Len returns the number of indexed chunks
func (idx *Index) Len() int {
	return len(idx.chunks)
}

// Search returns the k chunks most similar to query, best first.
// Ties keep insertion order. A zero query matches nothing.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	n := min(k, idx.collection.Count())
	if n <= 0 || isZero(query) {
		return nil, nil
	}
	if len(query) != idx.dimension {
		return nil, errors.Newf("query has dimension %d, expected %d", len(query), idx.dimension)
	}

	results, err := idx.collection.QueryEmbedding(ctx, query, n, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "vector search failed")
	}

	order := make(map[string]int, len(results))
	for _, r := range results {
		order[r.ID], _ = strconv.Atoi(r.ID)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return order[results[i].ID] < order[results[j].ID]
	})

	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{Chunk: r.Content, Score: float64(r.Similarity)}
	}
	return hits, nil
}

func isZero(v []float32) bool {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum) == 0
}
