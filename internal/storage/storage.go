package storage

import (
	"time"

	"jsunit/internal/config"
	"jsunit/internal/domain"
)

// RunInfo describes how a run was executed.
type RunInfo struct {
	Duration time.Duration
	Workers  int
	Dialect  string
}

// Storage persists and loads test run results (e.g. for the fails viewer).
type Storage interface {
	Save(results []domain.TestResult, failures []domain.TestFailure, info RunInfo) error
	Load() (*domain.TestResultsOutput, error)
	// SaveOutput writes the full output (e.g. after partial re-run updates).
	SaveOutput(output *domain.TestResultsOutput) error
}

// JSONStorage stores results in a JSON file under the configured output path.
type JSONStorage struct {
	cfg *config.Config
}

// NewJSONStorage returns a Storage that reads/writes the config's output JSON path.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{cfg: cfg}
}

// Summarize builds the stored form of a run.
func Summarize(results []domain.TestResult, failures []domain.TestFailure, info RunInfo) *domain.TestResultsOutput {
	meta := domain.TestResultsMeta{
		TotalTestFiles:  len(results),
		FailedTestCases: len(failures),
		Dialect:         info.Dialect,
		Duration:        info.Duration.String(),
		DurationSeconds: info.Duration.Seconds(),
		Workers:         info.Workers,
		Timestamp:       time.Now().Format(time.RFC3339),
	}
	for _, r := range results {
		meta.TotalTestCases += len(r.Cases)
		if r.Success {
			meta.PassedTestFiles++
		} else {
			meta.FailedTestFiles++
		}
	}
	if failures == nil {
		failures = []domain.TestFailure{}
	}
	return &domain.TestResultsOutput{Meta: meta, Details: failures}
}
