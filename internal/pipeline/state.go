// Package pipeline orchestrates a job search run: expand the desired title,
// search, rank, let the user select, advise, apply and suggest skills.
package pipeline

import (
	"github.com/google/uuid"

	"github.com/jonathan/job-agent/internal/types"
)

// Step names reported through ProgressEvent
const (
	StepInit      = "init"
	StepExpand    = "expand"
	StepSearch    = "search"
	StepAnalyze   = "analyze"
	StepSelect    = "select"
	StepKnowledge = "knowledge_base"
	StepApply     = "apply"
	StepFeedback  = "feedback"
	StepDone      = "done"
)

// RunState is the record threaded through one run. It is owned by the
// orchestrator and filled in step by step.
type RunState struct {
	ResumeText        string                    `json:"-"`
	DefaultResumePath string                    `json:"default_resume_path"`
	JobQuery          string                    `json:"job_query"`
	Location          string                    `json:"location"`
	ExpandedTitles    []string                  `json:"expanded_titles,omitempty"`
	FoundJobs         []types.Posting           `json:"found_jobs,omitempty"`
	AnalyzedJobs      []types.Posting           `json:"analyzed_jobs,omitempty"`
	SelectedJobs      []types.Posting           `json:"selected_jobs,omitempty"`
	Applications      []types.ApplicationResult `json:"applications,omitempty"`
	Feedback          string                    `json:"feedback,omitempty"`
	RunID             uuid.UUID                 `json:"run_id,omitempty"`
	ExportPath        string                    `json:"export_path,omitempty"`
}

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
}

// ProgressCallback is called when run progress occurs
type ProgressCallback func(event ProgressEvent)
