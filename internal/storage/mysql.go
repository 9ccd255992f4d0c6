package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/go-sql-driver/mysql"

	"jsunit/internal/config"
	"jsunit/internal/domain"
)

const (
	insertRun  = "INSERT INTO test_runs (started_at, dialect, workers, total_files, failed_files, total_cases, failed_cases, duration_seconds) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
	insertCase = "INSERT INTO test_case_results (run_id, file_path, test_name, outcome, message, duration_ms) VALUES (?, ?, ?, ?, ?, ?)"
	selectRuns = "SELECT id, started_at, dialect, total_files, failed_files, total_cases, failed_cases, duration_seconds FROM test_runs ORDER BY id DESC LIMIT ?"
)

// Run is one recorded test run
type Run struct {
	ID              int64
	StartedAt       time.Time
	Dialect         string
	TotalFiles      int
	FailedFiles     int
	TotalCases      int
	FailedCases     int
	DurationSeconds float64
}

// History records test runs in MySQL. The tables are created by the migrate
// command.
type History struct {
	db     *sql.DB
	logger *log.Logger
}

// OpenHistory connects to the configured history database.
func OpenHistory(ctx context.Context, cfg config.Database, logger *log.Logger) (*History, error) {
	if logger == nil {
		logger = log.Default()
	}
	db, err := sql.Open("mysql", cfg.DSN(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}
	return NewHistory(db, logger), nil
}

// NewHistory wraps an open database handle.
func NewHistory(db *sql.DB, logger *log.Logger) *History {
	if logger == nil {
		logger = log.Default()
	}
	return &History{db: db, logger: logger}
}

// Record stores a run and every test case of results in one transaction and
// returns the run id.
func (h *History) Record(ctx context.Context, output *domain.TestResultsOutput, results []domain.TestResult) (int64, error) {
	startedAt, err := time.Parse(time.RFC3339, output.Meta.Timestamp)
	if err != nil {
		startedAt = time.Now()
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	meta := output.Meta
	res, err := tx.ExecContext(ctx, insertRun,
		startedAt.UTC(), meta.Dialect, meta.Workers, meta.TotalTestFiles, meta.FailedTestFiles,
		meta.TotalTestCases, meta.FailedTestCases, meta.DurationSeconds)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertCase)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		for _, c := range r.Cases {
			outcome, message := caseOutcome(c)
			if _, err := stmt.ExecContext(ctx, runID, r.File.FilePath, c.Name, outcome, message, c.Duration.Milliseconds()); err != nil {
				return 0, fmt.Errorf("insert case %s: %w", c.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	h.logger.Debug("run recorded", "run", runID, "files", meta.TotalTestFiles)
	return runID, nil
}

// Recent returns the latest runs, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := h.db.QueryContext(ctx, selectRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Dialect, &r.TotalFiles, &r.FailedFiles, &r.TotalCases, &r.FailedCases, &r.DurationSeconds); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the database handle.
func (h *History) Close() error {
	return h.db.Close()
}

// caseOutcome is the stored outcome of a case: its first failure or error,
// or success.
func caseOutcome(c domain.CaseResult) (domain.OutcomeKind, string) {
	for _, o := range c.Outcomes {
		if o.Kind != domain.OutcomeSuccess {
			return o.Kind, o.Message
		}
	}
	return domain.OutcomeSuccess, ""
}
