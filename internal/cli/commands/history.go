package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"jsunit/internal/storage"
)

// HistoryCommand handles the history command
type HistoryCommand struct {
	*Dependencies
}

// NewHistoryCommand creates a new HistoryCommand
func NewHistoryCommand(d *Dependencies) *HistoryCommand {
	return &HistoryCommand{Dependencies: d}
}

// Execute prints the latest recorded runs
func (hc *HistoryCommand) Execute(ctx context.Context, out io.Writer, limit int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 10
	}

	history, err := storage.OpenHistory(ctx, hc.Config.Database, hc.Logger)
	if err != nil {
		return err
	}
	defer history.Close()

	runs, err := history.Recent(ctx, limit)
	if err != nil {
		return err
	}
	printRuns(out, runs)
	return nil
}

func printRuns(out io.Writer, runs []storage.Run) {
	if len(runs) == 0 {
		color.New(color.FgYellow).Fprintln(out, "No recorded runs")
		return
	}

	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	for _, r := range runs {
		status := green.Sprint("PASS")
		if r.FailedCases > 0 {
			status = red.Sprint("FAIL")
		}
		fmt.Fprintf(out, "#%-5d %s  %s  %-9s files %d/%d  cases %d/%d  %.2fs\n",
			r.ID, status, r.StartedAt.Format("2006-01-02 15:04:05"), r.Dialect,
			r.TotalFiles-r.FailedFiles, r.TotalFiles,
			r.TotalCases-r.FailedCases, r.TotalCases,
			r.DurationSeconds)
	}
}
