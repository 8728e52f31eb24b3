package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-agent/internal/advice"
	"github.com/jonathan/job-agent/internal/db"
	"github.com/jonathan/job-agent/internal/jobs"
	"github.com/jonathan/job-agent/internal/knowledge"
	"github.com/jonathan/job-agent/internal/llm"
	"github.com/jonathan/job-agent/internal/observability"
	"github.com/jonathan/job-agent/internal/types"
)

const sampleResume = "Python, SQL, 3 years data analysis"

// fakeModel answers each advice prompt with a canned reply
type fakeModel struct {
	expandReply string
	expandErr   error
	calls       int
}

func (m *fakeModel) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	m.calls++
	switch {
	case strings.Contains(prompt, "list 5 similar"):
		return m.expandReply, m.expandErr
	case strings.Contains(prompt, "tailor the resume"):
		return "Direct tailoring tips", nil
	case strings.Contains(prompt, "technical skills"):
		return "Learn Airflow and dbt", nil
	}
	return "", nil
}

func (m *fakeModel) GetModel(llm.ModelTier) string { return "fake" }

func (m *fakeModel) Close() error { return nil }

type fakeKB struct {
	questions []string
}

func (k *fakeKB) Query(_ context.Context, question string) (*knowledge.Answer, error) {
	k.questions = append(k.questions, question)
	return &knowledge.Answer{Text: "Step-by-step tailoring plan"}, nil
}

type fakeApplier struct {
	urls        []string
	resumePaths []string
}

func (a *fakeApplier) Apply(_ context.Context, jobURL, resumePath, _ string) types.ApplicationResult {
	a.urls = append(a.urls, jobURL)
	a.resumePaths = append(a.resumePaths, resumePath)
	status := types.ApplyNavigatedOnly
	if strings.Contains(jobURL, "linkedin.com") {
		status = types.ApplySimulated
	}
	return types.ApplicationResult{URL: jobURL, ResumePath: resumePath, Status: status}
}

type fakeRecorder struct {
	id           uuid.UUID
	input        db.RunInput
	expanded     []string
	ranked       []types.Posting
	applications []types.ApplicationResult
	status       string
	createErr    error
}

func (r *fakeRecorder) CreateRun(_ context.Context, input db.RunInput) (uuid.UUID, error) {
	if r.createErr != nil {
		return uuid.Nil, r.createErr
	}
	r.input = input
	r.id = uuid.New()
	return r.id, nil
}

func (r *fakeRecorder) SaveExpandedTitles(_ context.Context, _ uuid.UUID, titles []string) error {
	r.expanded = titles
	return nil
}

func (r *fakeRecorder) SaveRankedJobs(_ context.Context, _ uuid.UUID, jobs []types.Posting) error {
	r.ranked = jobs
	return nil
}

func (r *fakeRecorder) SaveApplication(_ context.Context, _ uuid.UUID, result types.ApplicationResult) error {
	r.applications = append(r.applications, result)
	return nil
}

func (r *fakeRecorder) CompleteRun(_ context.Context, _ uuid.UUID, status string) error {
	r.status = status
	return nil
}

type harness struct {
	model    *fakeModel
	kb       *fakeKB
	kbBuilds int
	applier  *fakeApplier
	console  *scriptedConsole
	recorder *fakeRecorder
	out      *bytes.Buffer
	runner   *Runner
}

func newHarness(t *testing.T, answers ...string) *harness {
	t.Helper()

	catalog, err := jobs.DefaultCatalog()
	require.NoError(t, err)

	h := &harness{
		model:    &fakeModel{expandReply: "Data Scientist, Machine Learning Engineer"},
		kb:       &fakeKB{},
		applier:  &fakeApplier{},
		console:  &scriptedConsole{answers: answers},
		recorder: &fakeRecorder{},
		out:      &bytes.Buffer{},
	}

	h.runner, err = NewRunner(Dependencies{
		Advisor: advice.New(h.model, nil),
		Source:  jobs.NewCatalogSource(catalog, nil),
		Knowledge: func(_ context.Context, resume string, descriptions []string) (advice.Querier, error) {
			h.kbBuilds++
			return h.kb, nil
		},
		Applier:  h.applier,
		Console:  h.console,
		Printer:  observability.NewPrinter(h.out),
		Recorder: h.recorder,
	})
	require.NoError(t, err)
	return h
}

func writeResume(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func titlesOf(postings []types.Posting) []string {
	out := make([]string, len(postings))
	for i, p := range postings {
		out[i] = p.Title
	}
	return out
}

func TestRun_NoJobsSelected(t *testing.T) {
	h := newHarness(t, "q")
	resumePath := writeResume(t, "resume.txt", sampleResume)

	state, err := h.runner.Run(context.Background(), RunOptions{
		ResumePath: resumePath,
		JobTitle:   "Data Analyst",
		Location:   "Remote",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Data Analyst", "Data Scientist", "Machine Learning Engineer"}, state.ExpandedTitles)
	assert.ElementsMatch(t, []string{"Senior Data Scientist", "Machine Learning Engineer"}, titlesOf(state.AnalyzedJobs))
	for i, job := range state.AnalyzedJobs {
		require.True(t, job.Scored())
		assert.GreaterOrEqual(t, job.Score(), 0.0)
		assert.LessOrEqual(t, job.Score(), 1.0)
		assert.Equal(t, "Remote", job.Location)
		if i > 0 {
			assert.GreaterOrEqual(t, state.AnalyzedJobs[i-1].Score(), job.Score())
		}
	}

	output := h.out.String()
	assert.Contains(t, output, "1. ")
	assert.Contains(t, output, "2. ")
	assert.Contains(t, output, MsgNoneSelected)
	assert.Empty(t, state.SelectedJobs)
	assert.Zero(t, h.kbBuilds)
	assert.Empty(t, h.applier.urls)

	assert.Equal(t, db.RunStatusNoneSelected, h.recorder.status)
	assert.Len(t, h.recorder.ranked, 2)
	assert.Equal(t, "Data Analyst", h.recorder.input.JobTitle)
}

func TestRun_UnreadableResume(t *testing.T) {
	h := newHarness(t)

	state, err := h.runner.Run(context.Background(), RunOptions{
		ResumePath: filepath.Join(t.TempDir(), "missing.pdf"),
		JobTitle:   "Data Analyst",
		Location:   "Remote",
	})
	require.NoError(t, err)

	assert.Contains(t, h.out.String(), MsgFileNotFound)
	assert.Contains(t, h.out.String(), MsgResumeUnreadable)
	assert.Zero(t, h.model.calls)
	assert.Empty(t, state.ExpandedTitles)
	assert.Equal(t, uuid.Nil, h.recorder.id, "no run record for a resume that cannot be read")
}

func TestRun_MistypedResumePathAsksAgain(t *testing.T) {
	resumePath := writeResume(t, "resume.txt", sampleResume)
	h := newHarness(t, "/no/such/file.pdf", "", resumePath, "q")

	state, err := h.runner.Run(context.Background(), RunOptions{
		JobTitle: "Data Analyst",
		Location: "Remote",
	})
	require.NoError(t, err)

	output := h.out.String()
	assert.Equal(t, 2, strings.Count(output, MsgFileNotFound))
	assert.NotContains(t, output, MsgResumeUnreadable)
	assert.Equal(t, resumePath, state.DefaultResumePath)
	assert.Equal(t, sampleResume, state.ResumeText)
	assert.Positive(t, h.model.calls)
	assert.Contains(t, output, MsgNoneSelected)
}

func TestRun_UnsupportedResume(t *testing.T) {
	h := newHarness(t)

	_, err := h.runner.Run(context.Background(), RunOptions{
		ResumePath: writeResume(t, "resume.rtf", sampleResume),
		JobTitle:   "Data Analyst",
	})
	require.NoError(t, err)
	assert.Contains(t, h.out.String(), MsgResumeUnreadable)
	assert.NotContains(t, h.out.String(), MsgFileNotFound)
	assert.Zero(t, h.model.calls)
}

func TestRun_ApplyWithKnowledgeBase(t *testing.T) {
	h := newHarness(t, "1", "y")
	resumePath := writeResume(t, "resume.txt", sampleResume)

	var events []ProgressEvent
	state, err := h.runner.Run(context.Background(), RunOptions{
		ResumePath: resumePath,
		JobTitle:   "Data Analyst",
		Location:   "Remote",
		OnProgress: func(e ProgressEvent) { events = append(events, e) },
	})
	require.NoError(t, err)

	require.Len(t, state.SelectedJobs, 1)
	assert.Equal(t, state.AnalyzedJobs[0].Title, state.SelectedJobs[0].Title)
	assert.Equal(t, 1, h.kbBuilds)
	require.Len(t, h.kb.questions, 1)
	assert.Contains(t, h.kb.questions[0], state.SelectedJobs[0].Title)

	assert.Equal(t, []string{state.SelectedJobs[0].URL}, h.applier.urls)
	assert.Equal(t, []string{resumePath}, h.applier.resumePaths)
	require.Len(t, state.Applications, 1)
	assert.Equal(t, "Learn Airflow and dbt", state.Feedback)

	output := h.out.String()
	assert.Contains(t, output, "RAG-Powered Resume Suggestions")
	assert.Contains(t, output, "Step-by-step tailoring plan")
	assert.Contains(t, output, "│ Career Development Suggestions")
	assert.Contains(t, output, "│ Learn Airflow and dbt")
	assert.Contains(t, output, MsgDone)

	assert.Equal(t, db.RunStatusCompleted, h.recorder.status)
	assert.Len(t, h.recorder.applications, 1)

	steps := make([]string, len(events))
	for i, e := range events {
		steps[i] = e.Step
	}
	assert.Equal(t, []string{
		StepInit, StepExpand, StepSearch, StepAnalyze, StepSelect,
		StepKnowledge, StepApply, StepFeedback, StepDone,
	}, steps)
	assert.Equal(t, h.recorder.id.String(), events[len(events)-1].RunID)
}

func TestRun_NoRAGUsesDirectSuggestions(t *testing.T) {
	h := newHarness(t)
	resumePath := writeResume(t, "resume.txt", sampleResume)

	state, err := h.runner.Run(context.Background(), RunOptions{
		ResumePath:     resumePath,
		JobTitle:       "Data Analyst",
		Location:       "Remote",
		Selection:      "2,1",
		NoRAG:          true,
		NonInteractive: true,
	})
	require.NoError(t, err)

	assert.Zero(t, h.kbBuilds)
	assert.Empty(t, h.kb.questions)
	assert.Len(t, state.Applications, 2)
	assert.Equal(t, []string{resumePath, resumePath}, h.applier.resumePaths)
	assert.Empty(t, h.console.prompts, "non-interactive run with a selection never prompts")

	output := h.out.String()
	assert.Contains(t, output, "AI Resume Suggestions")
	assert.Contains(t, output, "Direct tailoring tips")
}

func TestRun_CustomResume(t *testing.T) {
	defaultPath := writeResume(t, "resume.txt", sampleResume)
	customPath := writeResume(t, "tailored.txt", "tailored")

	h := newHarness(t, "1,2", "n", customPath, "n", filepath.Join(t.TempDir(), "nope.pdf"))

	_, err := h.runner.Run(context.Background(), RunOptions{
		ResumePath: defaultPath,
		JobTitle:   "Data Analyst",
		Location:   "Remote",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{customPath, defaultPath}, h.applier.resumePaths)
	assert.Equal(t, 1, strings.Count(h.out.String(), MsgCustomNotFound))
}

func TestRun_PromptsForMissingInputs(t *testing.T) {
	resumePath := writeResume(t, "resume.txt", sampleResume)
	h := newHarness(t, resumePath, "Data Analyst", "Chennai, India", "q")

	state, err := h.runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{PromptResumePath, PromptJobTitle, PromptLocation, PromptSelection}, h.console.prompts)
	assert.Equal(t, resumePath, state.DefaultResumePath)
	assert.Equal(t, "Data Analyst", state.JobQuery)
	assert.Equal(t, "Chennai, India", state.Location)
}

func TestRun_EndOfInputSelectsNothing(t *testing.T) {
	h := newHarness(t)

	state, err := h.runner.Run(context.Background(), RunOptions{
		ResumePath: writeResume(t, "resume.txt", sampleResume),
		JobTitle:   "Data Analyst",
	})
	require.NoError(t, err)
	assert.Empty(t, state.SelectedJobs)
	assert.Contains(t, h.out.String(), MsgNoneSelected)
}

func TestRun_ModelFailureIsReturned(t *testing.T) {
	h := newHarness(t)
	h.model.expandErr = errors.New("quota exceeded")

	_, err := h.runner.Run(context.Background(), RunOptions{
		ResumePath: writeResume(t, "resume.txt", sampleResume),
		JobTitle:   "Data Analyst",
	})
	require.Error(t, err)

	var apiErr *advice.APICallError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, db.RunStatusFailed, h.recorder.status)
}

func TestRun_RecorderFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, "q")
	h.recorder.createErr = errors.New("database down")

	state, err := h.runner.Run(context.Background(), RunOptions{
		ResumePath: writeResume(t, "resume.txt", sampleResume),
		JobTitle:   "Data Analyst",
	})
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, state.RunID)
	assert.Len(t, state.AnalyzedJobs, 2)
	assert.Empty(t, h.recorder.status)
}

func TestRun_Export(t *testing.T) {
	h := newHarness(t, "q")
	exportPath := filepath.Join(t.TempDir(), "jobs")

	state, err := h.runner.Run(context.Background(), RunOptions{
		ResumePath: writeResume(t, "resume.txt", sampleResume),
		JobTitle:   "Data Analyst",
		ExportPath: exportPath,
	})
	require.NoError(t, err)
	assert.Equal(t, exportPath+".xlsx", state.ExportPath)
	assert.FileExists(t, state.ExportPath)
}

func TestNewRunner_MissingDependencies(t *testing.T) {
	_, err := NewRunner(Dependencies{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "advisor")
}
