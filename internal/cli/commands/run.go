package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"jsunit/internal/cli"
	"jsunit/internal/domain"
	"jsunit/internal/report"
	"jsunit/internal/storage"
	"jsunit/internal/ui"
)

// RunCommand handles the run command
type RunCommand struct {
	*Dependencies
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(d *Dependencies) *RunCommand {
	return &RunCommand{Dependencies: d}
}

// Execute discovers and runs the tests, writes reports and stores the run.
// It returns cli.ErrTestsFailed when any test did not pass.
func (rc *RunCommand) Execute(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	flags := rc.Config.Flags

	tests, err := testFiles(rc.Dependencies)
	if err != nil {
		return err
	}
	if flags.OnlyFailed {
		if tests, err = rc.onlyFailed(tests); err != nil {
			return err
		}
	}

	if len(tests) == 0 {
		color.New(color.FgYellow).Fprintln(out, "No tests to execute")
		return nil
	}
	rc.Logger.Debug("running tests", "files", len(tests), "workers", rc.Config.Processors, "dialect", rc.Config.Dialect)

	if !flags.NoProgress {
		rc.Executor.SetProgress(ui.NewProgressBar(len(tests)))
	}

	results, duration, runErr := rc.Executor.ExecuteWithOptions(ctx, tests, flags.FailFast)
	if runErr != nil && len(results) == 0 {
		return fmt.Errorf("run interrupted: %w", runErr)
	}

	var failures []domain.TestFailure
	failed := false
	for _, result := range results {
		report.Summary(out, result)
		if err := rc.Writer.Write(result); err != nil {
			return fmt.Errorf("failed to write reports: %w", err)
		}
		if !result.Success {
			failed = true
			failures = append(failures, rc.Parser.ParseFailure(result)...)
		}
	}

	info := storage.RunInfo{Duration: duration, Workers: rc.Config.Processors, Dialect: rc.Config.Dialect}
	output := storage.Summarize(results, failures, info)
	if err := rc.Storage.SaveOutput(output); err != nil {
		return fmt.Errorf("failed to save test results: %w", err)
	}
	if flags.Record {
		if err := rc.record(ctx, output, results); err != nil {
			return err
		}
	}

	rc.Formatter.SetOutput(out)
	rc.Formatter.PrintMetaStats(output)

	if runErr != nil {
		return fmt.Errorf("run interrupted: %w", runErr)
	}
	if failed && flags.OpenFails {
		if err := rc.Viewer.View(output); err != nil {
			return err
		}
	}
	if failed {
		return cli.ErrTestsFailed
	}
	return nil
}

// onlyFailed keeps the files that failed in the stored run
func (rc *RunCommand) onlyFailed(tests []domain.TestFile) ([]domain.TestFile, error) {
	last, err := rc.Storage.Load()
	if err != nil {
		return nil, fmt.Errorf("no previous run to take failed tests from: %w", err)
	}
	failedFiles := make(map[string]bool)
	for _, p := range last.FailedFiles() {
		failedFiles[p] = true
	}
	var kept []domain.TestFile
	for _, t := range tests {
		if failedFiles[t.FilePath] {
			kept = append(kept, t)
		}
	}
	return kept, nil
}

func (rc *RunCommand) record(ctx context.Context, output *domain.TestResultsOutput, results []domain.TestResult) error {
	history, err := storage.OpenHistory(ctx, rc.Config.Database, rc.Logger)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	defer history.Close()

	id, err := history.Record(ctx, output, results)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	rc.Logger.Info("run recorded", "run", id, "database", rc.Config.Database.Name)
	return nil
}
