package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/job-agent/internal/advice"
	"github.com/jonathan/job-agent/internal/db"
	"github.com/jonathan/job-agent/internal/export"
	"github.com/jonathan/job-agent/internal/jobs"
	"github.com/jonathan/job-agent/internal/observability"
	"github.com/jonathan/job-agent/internal/resume"
	"github.com/jonathan/job-agent/internal/similarity"
	"github.com/jonathan/job-agent/internal/types"
)

// User-facing messages
const (
	MsgResumeUnreadable = "Could not read resume. Exiting."
	MsgFileNotFound     = "File not found. Please try again."
	MsgNoneSelected     = "No jobs selected for application. Exiting."
	MsgCustomNotFound   = "Custom resume not found. Using default."
	MsgDone             = "All tasks completed. Good luck with your job hunt!"
)

// Console prompts
const (
	PromptResumePath = "Enter the full path to your resume file: "
	PromptJobTitle   = "Enter your desired job title (e.g., 'Data Scientist'): "
	PromptLocation   = "Enter your desired location (e.g., 'Chennai, India'): "
	PromptSelection  = "\nEnter the numbers of the jobs you want to apply for (comma-separated), or 'q' to quit: "
	PromptUseDefault = "Use the default resume for this application? (y/n): "
	PromptCustomPath = "Enter path to tailored resume for this job: "
)

// KnowledgeBuilder builds a knowledge base over the resume and the selected descriptions
type KnowledgeBuilder func(ctx context.Context, resume string, descriptions []string) (advice.Querier, error)

// Applier applies to one job and reports the outcome; it never fails the run
type Applier interface {
	Apply(ctx context.Context, jobURL, resumePath, coverLetterPath string) types.ApplicationResult
}

// Dependencies are the components a run is wired from
type Dependencies struct {
	Advisor   *advice.Advisor
	Source    jobs.Source
	Knowledge KnowledgeBuilder
	Applier   Applier
	Console   Console
	Printer   *observability.Printer
	// Recorder is optional; a nil Recorder persists nothing
	Recorder Recorder
	Logger   *zap.Logger
}

// RunOptions holds the per-run inputs. Blank ResumePath, JobTitle and Location
// are asked for on the console.
type RunOptions struct {
	ResumePath string
	JobTitle   string
	Location   string
	// Selection, when set, is used instead of asking which jobs to apply for
	Selection string
	// NoRAG asks the model directly for tailoring suggestions instead of building a knowledge base
	NoRAG bool
	// NonInteractive never prompts per job and always applies with the default resume
	NonInteractive bool
	// ShowTable renders the ranked jobs as a table after the detailed list
	ShowTable  bool
	ExportPath string
	OnProgress ProgressCallback
}

// Runner executes job search runs
type Runner struct {
	deps   Dependencies
	logger *zap.Logger
}

// NewRunner validates the dependencies and creates a Runner
func NewRunner(deps Dependencies) (*Runner, error) {
	switch {
	case deps.Advisor == nil:
		return nil, errors.New("pipeline: advisor is required")
	case deps.Source == nil:
		return nil, errors.New("pipeline: job source is required")
	case deps.Applier == nil:
		return nil, errors.New("pipeline: applier is required")
	case deps.Console == nil:
		return nil, errors.New("pipeline: console is required")
	case deps.Printer == nil:
		return nil, errors.New("pipeline: printer is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Runner{deps: deps, logger: deps.Logger}, nil
}

// run carries the state and options of one Run call
type run struct {
	*Runner
	opts  RunOptions
	state *RunState
	out   *observability.Printer
}

// Run executes one job search. An unreadable resume ends the run with a printed
// message and a nil error; model failures are returned.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*RunState, error) {
	x := &run{Runner: r, opts: opts, state: &RunState{}, out: r.deps.Printer}

	status, err := x.execute(ctx)
	if err != nil {
		status = db.RunStatusFailed
	}
	x.complete(ctx, status)
	x.emit(StepDone, status)
	return x.state, err
}

func (x *run) execute(ctx context.Context) (string, error) {
	ok, err := x.init(ctx)
	if err != nil || !ok {
		return db.RunStatusFailed, err
	}

	if err := x.expand(ctx); err != nil {
		return "", err
	}
	if err := x.search(ctx); err != nil {
		return "", err
	}
	x.analyze(ctx)

	if err := x.selectJobs(ctx); err != nil {
		return "", err
	}
	if len(x.state.SelectedJobs) == 0 {
		x.out.Println(MsgNoneSelected)
		return db.RunStatusNoneSelected, nil
	}

	kb, err := x.buildKnowledge(ctx)
	if err != nil {
		return "", err
	}
	if err := x.applyAll(ctx, kb); err != nil {
		return "", err
	}
	if err := x.feedback(ctx); err != nil {
		return "", err
	}

	x.out.Println()
	x.out.Println(MsgDone)
	return db.RunStatusCompleted, nil
}

func (x *run) emit(step, message string) {
	if x.opts.OnProgress == nil {
		return
	}
	event := ProgressEvent{Step: step, Message: message}
	if x.state.RunID != uuid.Nil {
		event.RunID = x.state.RunID.String()
	}
	x.opts.OnProgress(event)
}

// ask reads one answer; end of input counts as an empty answer
func (x *run) ask(ctx context.Context, prompt string) (string, error) {
	answer, err := x.deps.Console.ReadLine(ctx, prompt)
	if errors.Is(err, io.EOF) {
		return "", nil
	}
	return answer, err
}

func (x *run) askIfBlank(ctx context.Context, value *string, prompt string) error {
	if strings.TrimSpace(*value) != "" {
		return nil
	}
	answer, err := x.ask(ctx, prompt)
	if err != nil {
		return err
	}
	*value = answer
	return nil
}

// askResumePath asks until the resume path names an existing file. End of input
// stops asking and leaves the path for the loader to reject.
func (x *run) askResumePath(ctx context.Context) error {
	path := strings.TrimSpace(x.opts.ResumePath)
	asked := false
	for !fileExists(path) {
		if asked || path != "" {
			x.out.Println(MsgFileNotFound)
		}
		answer, err := x.deps.Console.ReadLine(ctx, PromptResumePath)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		path = strings.TrimSpace(answer)
		asked = true
	}
	x.opts.ResumePath = path
	return nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func (x *run) init(ctx context.Context) (bool, error) {
	x.out.Println("--- Welcome to the AI Job Application Agent ---")
	if err := x.askResumePath(ctx); err != nil {
		return false, err
	}
	for _, q := range []struct {
		value  *string
		prompt string
	}{
		{&x.opts.JobTitle, PromptJobTitle},
		{&x.opts.Location, PromptLocation},
	} {
		if err := x.askIfBlank(ctx, q.value, q.prompt); err != nil {
			return false, err
		}
	}

	x.state.DefaultResumePath = x.opts.ResumePath
	x.state.JobQuery = x.opts.JobTitle
	x.state.Location = x.opts.Location

	res, err := resume.Load(x.opts.ResumePath)
	if err != nil {
		x.logger.Error("failed to load resume", zap.String("path", x.opts.ResumePath), zap.Error(err))
		x.out.Println(MsgResumeUnreadable)
		return false, nil
	}
	x.state.ResumeText = res.Text
	x.emit(StepInit, fmt.Sprintf("Loaded resume from %s", res.Path))

	x.startRecording(ctx)
	return true, nil
}

func (x *run) expand(ctx context.Context) error {
	x.out.Println("\nExpanding job search to related roles...")
	titles, err := x.deps.Advisor.ExpandTitles(ctx, x.state.JobQuery)
	if err != nil {
		return errors.Wrap(err, "title expansion failed")
	}
	x.state.ExpandedTitles = titles
	x.out.Printf("Searching for: %s\n", strings.Join(titles, ", "))
	x.emit(StepExpand, fmt.Sprintf("Expanded to %d titles", len(titles)))

	if x.recording() {
		if err := x.deps.Recorder.SaveExpandedTitles(ctx, x.state.RunID, titles); err != nil {
			x.logger.Warn("failed to save expanded titles", zap.Error(err))
		}
	}
	return nil
}

func (x *run) search(ctx context.Context) error {
	found, err := x.deps.Source.Search(ctx, x.state.ExpandedTitles, x.state.Location)
	if err != nil {
		return errors.Wrap(err, "job search failed")
	}
	x.state.FoundJobs = found
	x.emit(StepSearch, fmt.Sprintf("Found %d jobs", len(found)))
	return nil
}

func (x *run) analyze(ctx context.Context) {
	x.out.Println("\nAnalyzing job descriptions against your resume...")
	x.state.AnalyzedJobs = similarity.Analyze(x.state.ResumeText, x.state.FoundJobs)
	x.emit(StepAnalyze, fmt.Sprintf("Ranked %d jobs", len(x.state.AnalyzedJobs)))

	if x.recording() {
		if err := x.deps.Recorder.SaveRankedJobs(ctx, x.state.RunID, x.state.AnalyzedJobs); err != nil {
			x.logger.Warn("failed to save ranked jobs", zap.Error(err))
		}
	}

	if x.opts.ExportPath != "" {
		query := export.Query{
			JobTitle:       x.state.JobQuery,
			Location:       x.state.Location,
			ExpandedTitles: x.state.ExpandedTitles,
		}
		path, err := export.ExportJobs(x.state.AnalyzedJobs, query, x.opts.ExportPath)
		if err != nil {
			x.logger.Warn("failed to export jobs", zap.String("path", x.opts.ExportPath), zap.Error(err))
			x.out.Printf("Warning: could not export jobs: %v\n", err)
		} else {
			x.state.ExportPath = path
			x.out.Printf("Exported ranked jobs to %s\n", path)
		}
	}
}

func (x *run) selectJobs(ctx context.Context) error {
	x.out.PrintJobs(x.state.AnalyzedJobs)
	if x.opts.ShowTable && len(x.state.AnalyzedJobs) > 0 {
		if err := x.out.PrintJobTable(x.state.AnalyzedJobs); err != nil {
			x.logger.Warn("failed to render job table", zap.Error(err))
		}
	}
	if len(x.state.AnalyzedJobs) == 0 {
		return nil
	}

	input := x.opts.Selection
	if input == "" {
		var err error
		if input, err = x.ask(ctx, PromptSelection); err != nil {
			return err
		}
	}
	x.state.SelectedJobs = SelectJobs(input, x.state.AnalyzedJobs)
	x.emit(StepSelect, fmt.Sprintf("Selected %d jobs", len(x.state.SelectedJobs)))
	return nil
}

func (x *run) buildKnowledge(ctx context.Context) (advice.Querier, error) {
	if x.opts.NoRAG || x.deps.Knowledge == nil {
		return nil, nil
	}

	descriptions := make([]string, len(x.state.SelectedJobs))
	for i, job := range x.state.SelectedJobs {
		descriptions[i] = job.Description
	}

	x.out.Println("\nBuilding knowledge base from your resume and the selected jobs...")
	kb, err := x.deps.Knowledge(ctx, x.state.ResumeText, descriptions)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build knowledge base")
	}
	x.emit(StepKnowledge, fmt.Sprintf("Indexed %d job descriptions", len(descriptions)))
	return kb, nil
}

func (x *run) applyAll(ctx context.Context, kb advice.Querier) error {
	x.out.Heading("Preparing to Apply")
	for _, job := range x.state.SelectedJobs {
		x.out.Printf("\nProcessing application for: %s at %s\n", job.Title, job.Company)

		if err := x.advise(ctx, kb, job); err != nil {
			return err
		}

		resumePath, err := x.chooseResume(ctx)
		if err != nil {
			return err
		}

		result := x.deps.Applier.Apply(ctx, job.URL, resumePath, "")
		x.out.PrintApplication(result)
		x.state.Applications = append(x.state.Applications, result)
		x.emit(StepApply, fmt.Sprintf("%s: %s", job.URL, result.Status))

		if x.recording() {
			if err := x.deps.Recorder.SaveApplication(ctx, x.state.RunID, result); err != nil {
				x.logger.Warn("failed to save application", zap.Error(err))
			}
		}
	}
	return nil
}

func (x *run) advise(ctx context.Context, kb advice.Querier, job types.Posting) error {
	var (
		heading     string
		suggestions string
		err         error
	)
	if kb != nil {
		heading = "RAG-Powered Resume Suggestions"
		suggestions, err = x.deps.Advisor.RAGQuery(ctx, kb, job.Title)
	} else {
		heading = "AI Resume Suggestions"
		suggestions, err = x.deps.Advisor.TailoringSuggestions(ctx, x.state.ResumeText, job.Description)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to generate suggestions for %s", job.Title)
	}

	x.out.Println()
	x.out.Box(fmt.Sprintf("%s: %s", heading, job.Title), suggestions)
	return nil
}

// chooseResume applies the resume override policy: non-interactive runs and a
// "y" answer use the default; otherwise a custom path is used if it exists.
func (x *run) chooseResume(ctx context.Context) (string, error) {
	def := x.state.DefaultResumePath
	if x.opts.NonInteractive {
		return def, nil
	}

	answer, err := x.ask(ctx, PromptUseDefault)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(answer, "y") {
		return def, nil
	}

	custom, err := x.ask(ctx, PromptCustomPath)
	if err != nil {
		return "", err
	}
	if custom != "" {
		if info, statErr := os.Stat(custom); statErr == nil && !info.IsDir() {
			return custom, nil
		}
	}
	x.out.Println(MsgCustomNotFound)
	return def, nil
}

func (x *run) feedback(ctx context.Context) error {
	skills, err := x.deps.Advisor.SkillSuggestions(ctx, x.state.ResumeText, x.state.JobQuery)
	if err != nil {
		return errors.Wrap(err, "failed to generate skill suggestions")
	}
	x.state.Feedback = skills
	x.out.Println()
	x.out.Box("Career Development Suggestions", skills)
	x.emit(StepFeedback, "Generated skill suggestions")
	return nil
}

func (x *run) recording() bool {
	return x.deps.Recorder != nil && x.state.RunID != uuid.Nil
}

func (x *run) startRecording(ctx context.Context) {
	if x.deps.Recorder == nil {
		return
	}
	id, err := x.deps.Recorder.CreateRun(ctx, db.RunInput{
		JobTitle:   x.state.JobQuery,
		Location:   x.state.Location,
		ResumePath: x.state.DefaultResumePath,
	})
	if err != nil {
		x.logger.Warn("failed to create run record, continuing without history", zap.Error(err))
		return
	}
	x.state.RunID = id
	x.logger.Debug("created run record", zap.String("run_id", id.String()))
}

func (x *run) complete(ctx context.Context, status string) {
	if !x.recording() {
		return
	}
	// Written even when ctx is cancelled
	if err := x.deps.Recorder.CompleteRun(context.WithoutCancel(ctx), x.state.RunID, status); err != nil {
		x.logger.Warn("failed to complete run record", zap.Error(err))
	}
}
