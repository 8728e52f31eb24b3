package db

import (
	"time"

	"github.com/google/uuid"
)

// Run status constants
const (
	RunStatusRunning      = "running"
	RunStatusCompleted    = "completed"
	RunStatusNoneSelected = "none_selected"
	RunStatusFailed       = "failed"
)

// Run represents one job search run
type Run struct {
	ID          uuid.UUID  `json:"id"`
	JobTitle    string     `json:"job_title"`
	Location    string     `json:"location"`
	ResumePath  string     `json:"resume_path"`
	Expanded    []string   `json:"expanded,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RunInput holds the fields needed to start a run record
type RunInput struct {
	JobTitle   string
	Location   string
	ResumePath string
}

// RunPosting is a ranked posting as shown to the user during a run
type RunPosting struct {
	RunID       uuid.UUID `json:"run_id"`
	Rank        int       `json:"rank"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	URL         string    `json:"url"`
	MatchScore  *float64  `json:"match_score,omitempty"`
	Suggestions string    `json:"suggestions,omitempty"`
}

// RunApplication is one recorded application attempt
type RunApplication struct {
	ID         uuid.UUID `json:"id"`
	RunID      uuid.UUID `json:"run_id"`
	URL        string    `json:"url"`
	ResumePath string    `json:"resume_path"`
	Site       string    `json:"site,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RunSummary is a run with counts of what happened in it
type RunSummary struct {
	Run
	Postings     int `json:"postings"`
	Applications int `json:"applications"`
}
