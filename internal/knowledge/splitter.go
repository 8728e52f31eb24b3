package knowledge

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the target chunk length in runes
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is how many runes consecutive chunks may share
	DefaultChunkOverlap = 100
)

// DefaultSeparators are tried in order, from paragraph breaks down to single runes
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter breaks text into overlapping chunks, preferring to cut at the
// coarsest separator that keeps pieces under ChunkSize. Separators are dropped.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// NewSplitter returns a splitter with the default separators.
// A non-positive size or negative overlap falls back to the defaults; overlap
// is capped below the chunk size.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 10
	}
	return &Splitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   DefaultSeparators,
	}
}

// Split returns the chunks of text. Blank text yields no chunks.
func (s *Splitter) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	rc := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.ChunkSize),
		textsplitter.WithChunkOverlap(s.ChunkOverlap),
		textsplitter.WithSeparators(s.Separators),
	)
	chunks, err := rc.SplitText(text)
	if err != nil {
		return nil, errors.Wrap(err, "failed to split text")
	}

	out := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out, nil
}
