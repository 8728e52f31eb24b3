package similarity

import (
	"sort"

	"github.com/jonathan/job-agent/internal/types"
)

// LowMatchThreshold marks postings whose score suggests a significant skill gap
const LowMatchThreshold = 0.2

// LowMatchTip is attached to postings scoring below LowMatchThreshold
const LowMatchTip = "High skill gap. Consider tailoring your resume significantly."

// IsLowMatch reports whether a scored posting falls below LowMatchThreshold
func IsLowMatch(p types.Posting) bool {
	return p.Scored() && p.Score() < LowMatchThreshold
}

// Analyze scores every posting against the resume and returns them ranked.
// The input slice is not modified.
func Analyze(resume string, postings []types.Posting) []types.Posting {
	analyzed := make([]types.Posting, len(postings))
	for i, p := range postings {
		result := Score(resume, p.Description)
		p.SetScore(result.Score)
		p.MissingSkills = result.MissingSkills
		if result.Score < LowMatchThreshold {
			p.Suggestions = LowMatchTip
		}
		analyzed[i] = p
	}
	Rank(analyzed)
	return analyzed
}

// Rank sorts postings in place by descending match score.
// Equal scores keep their discovery order; unscored postings sort last.
func Rank(postings []types.Posting) {
	sort.SliceStable(postings, func(i, j int) bool {
		a, b := postings[i], postings[j]
		if a.Scored() != b.Scored() {
			return a.Scored()
		}
		return a.Score() > b.Score()
	})
}
