package commands

import (
	"context"
	"io"

	"github.com/fatih/color"
)

// ListCommand handles the list command
type ListCommand struct {
	*Dependencies
}

// NewListCommand creates a new ListCommand
func NewListCommand(d *Dependencies) *ListCommand {
	return &ListCommand{Dependencies: d}
}

// Execute prints the discovered test files, marking those that failed in
// the last run.
func (lc *ListCommand) Execute(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	tests, err := testFiles(lc.Dependencies)
	if err != nil {
		return err
	}

	if len(tests) == 0 {
		color.New(color.FgYellow).Fprintln(out, "No tests found")
		return nil
	}

	var failedPaths map[string]struct{}
	if last, err := lc.Storage.Load(); err == nil {
		failedPaths = make(map[string]struct{})
		for _, p := range last.FailedFiles() {
			failedPaths[p] = struct{}{}
		}
	}

	lc.Formatter.SetOutput(out)
	lc.Formatter.PrintTestList(ctx, tests, lc.Config.Flags.TestCases, failedPaths)
	return nil
}
