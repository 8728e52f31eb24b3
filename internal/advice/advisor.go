// Package advice wraps the prompt-templated language model operations:
// title expansion, tailoring suggestions, skill suggestions and knowledge base queries.
package advice

import (
	"context"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/jonathan/job-agent/internal/knowledge"
	"github.com/jonathan/job-agent/internal/llm"
	"github.com/jonathan/job-agent/internal/prompts"
)

// MaxRelatedTitles caps how many model-suggested titles are kept
const MaxRelatedTitles = 5

const promptFile = "advice.json"

// listMarker matches a leading bullet or "1." / "2)" numbering
var listMarker = regexp.MustCompile(`^\s*(?:[-*•]+|\d+[.)])\s*`)

// Querier answers a question from a knowledge base
type Querier interface {
	Query(ctx context.Context, question string) (*knowledge.Answer, error)
}

// Advisor issues advice prompts against a language model. Calls are not retried.
type Advisor struct {
	client llm.Client
	logger *zap.Logger
}

// New creates an Advisor. A nil logger is replaced with a no-op logger.
func New(client llm.Client, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{client: client, logger: logger}
}

func (a *Advisor) generate(ctx context.Context, operation, key string, data map[string]string, tier llm.ModelTier) (string, error) {
	template, err := prompts.Get(promptFile, key)
	if err != nil {
		return "", errors.Wrapf(err, "%s", operation)
	}

	a.logger.Debug("model call", zap.String("operation", operation), zap.String("model", a.client.GetModel(tier)))
	reply, err := a.client.GenerateContent(ctx, prompts.Format(template, data), tier)
	if err != nil {
		return "", &APICallError{Operation: operation, Cause: err}
	}
	return reply, nil
}

// ExpandTitles returns the desired title followed by related titles suggested by the model.
func (a *Advisor) ExpandTitles(ctx context.Context, title string) ([]string, error) {
	reply, err := a.generate(ctx, "expand titles", "expand-titles", map[string]string{"JobTitle": title}, llm.TierLite)
	if err != nil {
		return nil, err
	}

	related := ParseTitles(reply, title)
	a.logger.Debug("expanded titles", zap.String("title", title), zap.Strings("related", related))
	return append([]string{title}, related...), nil
}

// ParseTitles splits a free-text reply into titles. The reply is untrusted:
// list markers and quotes are stripped, blanks and repeats of the original
// are dropped, and at most MaxRelatedTitles are returned.
func ParseTitles(reply, original string) []string {
	reply = llm.StripCodeFence(reply)
	parts := strings.FieldsFunc(reply, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})

	seen := map[string]struct{}{strings.ToLower(strings.TrimSpace(original)): {}}
	titles := make([]string, 0, MaxRelatedTitles)
	for _, part := range parts {
		title := cleanTitle(part)
		if title == "" {
			continue
		}
		key := strings.ToLower(title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		titles = append(titles, title)
		if len(titles) == MaxRelatedTitles {
			break
		}
	}
	return titles
}

// cleanTitle strips whitespace, list numbering, bullets and quotes
func cleanTitle(s string) string {
	s = listMarker.ReplaceAllString(s, "")
	s = strings.Trim(s, "\"'`* ")
	return strings.TrimSpace(s)
}

// TailoringSuggestions asks for bullet-point advice on fitting the resume to one job description.
func (a *Advisor) TailoringSuggestions(ctx context.Context, resume, description string) (string, error) {
	return a.generate(ctx, "tailoring suggestions", "tailoring-suggestions", map[string]string{
		"Resume":         resume,
		"JobDescription": description,
	}, llm.TierStandard)
}

// SkillSuggestions asks which skills to learn for the desired title.
func (a *Advisor) SkillSuggestions(ctx context.Context, resume, desiredTitle string) (string, error) {
	return a.generate(ctx, "skill suggestions", "skill-suggestions", map[string]string{
		"Resume":   resume,
		"JobTitle": desiredTitle,
	}, llm.TierStandard)
}

// TailoringPlanQuestion is the knowledge base question asked for each selected job
func TailoringPlanQuestion(jobTitle string) (string, error) {
	template, err := prompts.Get(promptFile, "rag-tailoring-plan")
	if err != nil {
		return "", err
	}
	return prompts.Format(template, map[string]string{"JobTitle": jobTitle}), nil
}

// RAGQuery asks the knowledge base for a tailoring plan for jobTitle.
func (a *Advisor) RAGQuery(ctx context.Context, kb Querier, jobTitle string) (string, error) {
	question, err := TailoringPlanQuestion(jobTitle)
	if err != nil {
		return "", err
	}

	answer, err := kb.Query(ctx, question)
	if err != nil {
		return "", &APICallError{Operation: "knowledge base query", Cause: err}
	}

	a.logger.Debug("knowledge base answer", zap.String("job_title", jobTitle), zap.Int("sources", len(answer.Sources)))
	return answer.Text, nil
}
