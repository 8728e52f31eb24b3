package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/job-agent/internal/db"
	"github.com/jonathan/job-agent/internal/types"
)

// Recorder persists run history. *db.DB satisfies it.
type Recorder interface {
	CreateRun(ctx context.Context, input db.RunInput) (uuid.UUID, error)
	SaveExpandedTitles(ctx context.Context, runID uuid.UUID, titles []string) error
	SaveRankedJobs(ctx context.Context, runID uuid.UUID, jobs []types.Posting) error
	SaveApplication(ctx context.Context, runID uuid.UUID, result types.ApplicationResult) error
	CompleteRun(ctx context.Context, runID uuid.UUID, status string) error
}

var _ Recorder = (*db.DB)(nil)
