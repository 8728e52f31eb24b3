// Package types provides type definitions for structured data used throughout the job-agent system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Posting represents a single job listing as returned by a job source
type Posting struct {
	Title         string   `json:"title" yaml:"title"`
	Company       string   `json:"company" yaml:"company"`
	Location      string   `json:"location" yaml:"location"`
	URL           string   `json:"url" yaml:"url"`
	Description   string   `json:"description" yaml:"description"`
	MatchScore    *float64 `json:"match_score,omitempty" yaml:"-"`
	MissingSkills []string `json:"missing_skills,omitempty" yaml:"-"`
	Suggestions   string   `json:"suggestions,omitempty" yaml:"-"`
}

// Scored reports whether the posting has been through the similarity scorer
func (p *Posting) Scored() bool {
	return p.MatchScore != nil
}

// Score returns the match score, or 0 if the posting has not been scored yet
func (p *Posting) Score() float64 {
	if p.MatchScore == nil {
		return 0
	}
	return *p.MatchScore
}

// SetScore records the match score on the posting
func (p *Posting) SetScore(score float64) {
	p.MatchScore = &score
}

// Resume holds the plain text extracted from a resume file
type Resume struct {
	Path string `json:"path"`
	Text string `json:"text"`
}
