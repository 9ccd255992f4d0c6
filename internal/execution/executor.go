package execution

import (
	"context"
	"time"

	"jsunit/internal/domain"
	"jsunit/internal/ui"
)

// Executor executes test files and returns their results in the order of
// files
type Executor interface {
	Execute(ctx context.Context, files []domain.TestFile) ([]domain.TestResult, time.Duration, error)
	// ExecuteWithOptions is Execute with fail-fast: the first failing test
	// stops the run.
	ExecuteWithOptions(ctx context.Context, files []domain.TestFile, failFast bool) ([]domain.TestResult, time.Duration, error)
	SetProgress(progress *ui.ProgressBar)
}

var _ Executor = (*WorkerPool)(nil)
