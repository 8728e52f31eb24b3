// Package similarity scores how well a resume matches a job description
// using TF-IDF vectors and cosine similarity.
package similarity

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// tokenPattern matches runs of two or more word characters
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Result is the outcome of comparing a resume to one job description
type Result struct {
	Score         float64  `json:"score"`
	MissingSkills []string `json:"missing_skills"`
}

// Score compares resume and description text.
// Either text being blank yields a zero score and no vectorization.
// MissingSkills is a crude word-level difference and is not used for ranking.
func Score(resume, description string) Result {
	if strings.TrimSpace(resume) == "" || strings.TrimSpace(description) == "" {
		return Result{Score: 0, MissingSkills: []string{}}
	}

	vectors := tfidf([][]string{Tokenize(resume), Tokenize(description)})
	score := clamp(cosine(vectors[0], vectors[1]))

	return Result{
		Score:         round2(score),
		MissingSkills: missingWords(resume, description),
	}
}

// Tokenize lowercases text and returns its tokens with stop words removed.
func Tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if !IsStopWord(tok) {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// tfidf builds L2-normalized TF-IDF vectors using smoothed idf: ln((1+n)/(1+df)) + 1.
func tfidf(docs [][]string) []map[string]float64 {
	n := float64(len(docs))

	df := make(map[string]int)
	counts := make([]map[string]int, len(docs))
	for i, doc := range docs {
		counts[i] = make(map[string]int)
		for _, tok := range doc {
			counts[i][tok]++
		}
		for tok := range counts[i] {
			df[tok]++
		}
	}

	vectors := make([]map[string]float64, len(docs))
	for i, tf := range counts {
		vec := make(map[string]float64, len(tf))
		var norm float64
		for tok, c := range tf {
			idf := math.Log((1+n)/(1+float64(df[tok]))) + 1
			w := float64(c) * idf
			vec[tok] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for tok := range vec {
				vec[tok] /= norm
			}
		}
		vectors[i] = vec
	}
	return vectors
}

// cosine of two L2-normalized sparse vectors; empty vectors score 0
func cosine(a, b map[string]float64) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	var dot float64
	for tok, w := range a {
		dot += w * b[tok]
	}
	return dot
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// missingWords returns lowercase whitespace tokens of the description absent from the resume, sorted
func missingWords(resume, description string) []string {
	have := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(resume)) {
		have[w] = struct{}{}
	}

	seen := make(map[string]struct{})
	missing := []string{}
	for _, w := range strings.Fields(strings.ToLower(description)) {
		if _, ok := have[w]; ok {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		missing = append(missing, w)
	}
	sort.Strings(missing)
	return missing
}
