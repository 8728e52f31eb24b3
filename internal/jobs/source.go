// Package jobs provides the job posting source consulted by the search step.
package jobs

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/job-agent/internal/types"
)

// Source finds postings for a set of candidate titles
type Source interface {
	Search(ctx context.Context, titles []string, location string) ([]types.Posting, error)
}

// CatalogSource serves postings from a fixed catalog
type CatalogSource struct {
	postings []types.Posting
	logger   *zap.Logger
}

// NewCatalogSource wraps a catalog. A nil logger is replaced with a no-op logger.
func NewCatalogSource(postings []types.Posting, logger *zap.Logger) *CatalogSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogSource{postings: postings, logger: logger}
}

// Search returns catalog postings matching any title, in catalog order,
// with Location set to the requested location.
func (s *CatalogSource) Search(_ context.Context, titles []string, location string) ([]types.Posting, error) {
	tokens := leadingTokens(titles)

	found := []types.Posting{}
	for _, p := range s.postings {
		if !matchesAny(p.Title, tokens) {
			continue
		}
		p.Location = location
		found = append(found, p)
	}

	s.logger.Debug("catalog search",
		zap.Strings("titles", titles),
		zap.String("location", location),
		zap.Int("catalog_size", len(s.postings)),
		zap.Int("found", len(found)))
	return found, nil
}

// leadingTokens returns the lowercase first word of each non-blank title
func leadingTokens(titles []string) []string {
	tokens := make([]string, 0, len(titles))
	for _, title := range titles {
		fields := strings.Fields(title)
		if len(fields) == 0 {
			continue
		}
		tokens = append(tokens, strings.ToLower(fields[0]))
	}
	return tokens
}

// matchesAny reports whether any token is a substring of the lowercase posting title
func matchesAny(postingTitle string, tokens []string) bool {
	lower := strings.ToLower(postingTitle)
	for _, tok := range tokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}
