package migration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// Migration is one schema change of the history database
type Migration struct {
	Name string
	Up   string
	Down string
}

// Migrations are applied in order and recorded in schema_migrations.
var Migrations = []Migration{
	{
		Name: "0001_create_test_runs",
		Up: "CREATE TABLE IF NOT EXISTS test_runs (" +
			"id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY, " +
			"started_at DATETIME NOT NULL, " +
			"dialect VARCHAR(16) NOT NULL, " +
			"workers INT NOT NULL, " +
			"total_files INT NOT NULL, " +
			"failed_files INT NOT NULL, " +
			"total_cases INT NOT NULL, " +
			"failed_cases INT NOT NULL, " +
			"duration_seconds DOUBLE NOT NULL" +
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
		Down: "DROP TABLE IF EXISTS test_runs",
	},
	{
		Name: "0002_create_test_case_results",
		Up: "CREATE TABLE IF NOT EXISTS test_case_results (" +
			"id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY, " +
			"run_id BIGINT UNSIGNED NOT NULL, " +
			"file_path VARCHAR(512) NOT NULL, " +
			"test_name VARCHAR(512) NOT NULL, " +
			"outcome VARCHAR(16) NOT NULL, " +
			"message TEXT, " +
			"duration_ms BIGINT NOT NULL, " +
			"CONSTRAINT fk_case_run FOREIGN KEY (run_id) REFERENCES test_runs (id) ON DELETE CASCADE" +
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
		Down: "DROP TABLE IF EXISTS test_case_results",
	},
	{
		Name: "0003_index_case_outcome",
		Up:   "CREATE INDEX idx_case_outcome ON test_case_results (outcome, file_path)",
		Down: "DROP INDEX idx_case_outcome ON test_case_results",
	},
}

const createMigrationsTable = "CREATE TABLE IF NOT EXISTS schema_migrations (" +
	"name VARCHAR(255) PRIMARY KEY, applied_at DATETIME NOT NULL" +
	") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"

// SchemaMigrator implements Migrator with the built-in Migrations
type SchemaMigrator struct {
	databaseManager *DatabaseManager
	migrations      []Migration
	logger          *log.Logger
}

// NewSchemaMigrator creates a new SchemaMigrator
func NewSchemaMigrator(dbManager *DatabaseManager, logger *log.Logger) *SchemaMigrator {
	if logger == nil {
		logger = log.Default()
	}
	return &SchemaMigrator{databaseManager: dbManager, migrations: Migrations, logger: logger}
}

// Run creates the database if needed and applies pending migrations
func (sm *SchemaMigrator) Run(ctx context.Context, fresh bool) error {
	color.Cyan("\n╔════════════════════════════════════════════════════════════╗")
	color.Cyan("║               Running Database Migrations                  ║")
	color.Cyan("╚════════════════════════════════════════════════════════════╝\n")

	startTime := time.Now()
	if _, err := sm.databaseManager.EnsureDatabase(ctx); err != nil {
		return fmt.Errorf("failed to check database: %w", err)
	}
	db, err := sm.databaseManager.Open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	if fresh {
		if err := sm.dropAll(ctx, db); err != nil {
			return err
		}
	}

	applied, err := sm.applied(ctx, db)
	if err != nil {
		return err
	}
	todo := pending(sm.migrations, applied)
	color.White("Migrations: %d | Applied: %d | Pending: %d\n\n", len(sm.migrations), len(applied), len(todo))

	bar := progressbar.NewOptions(len(todo),
		progressbar.OptionSetDescription(color.CyanString("Migrating: ")+color.GreenString("[completed: 0/%d]", len(todo))),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.CyanString("█"),
			SaucerHead:    color.CyanString("█"),
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)

	for i, m := range todo {
		if _, err := db.ExecContext(ctx, m.Up); err != nil {
			bar.Finish()
			color.Red("✗ Migration %s failed: %v\n", m.Name, err)
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
		if _, err := db.ExecContext(ctx, "INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)", m.Name, time.Now().UTC()); err != nil {
			return fmt.Errorf("record migration %s: %w", m.Name, err)
		}
		sm.logger.Debug("migration applied", "name", m.Name)
		bar.Set(i + 1)
		bar.Describe(color.CyanString("Migrating: ") + color.GreenString("[completed: %d/%d]", i+1, len(todo)))
	}
	bar.Finish()

	fmt.Print("\n")
	color.Green("✓ Database %s is up to date (%d migration(s) applied)\n", sm.databaseManager.config.Name, len(todo))
	color.White("Duration: %s\n", time.Since(startTime).Round(time.Millisecond))
	return nil
}

func (sm *SchemaMigrator) applied(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

// dropAll reverts every known migration, newest first.
func (sm *SchemaMigrator) dropAll(ctx context.Context, db *sql.DB) error {
	applied, err := sm.applied(ctx, db)
	if err != nil {
		return err
	}
	for i := len(sm.migrations) - 1; i >= 0; i-- {
		m := sm.migrations[i]
		if !applied[m.Name] {
			continue
		}
		if _, err := db.ExecContext(ctx, m.Down); err != nil {
			return fmt.Errorf("revert %s: %w", m.Name, err)
		}
		if _, err := db.ExecContext(ctx, "DELETE FROM schema_migrations WHERE name = ?", m.Name); err != nil {
			return fmt.Errorf("forget %s: %w", m.Name, err)
		}
	}
	return nil
}

// pending returns the migrations not yet applied, in order.
func pending(all []Migration, applied map[string]bool) []Migration {
	var todo []Migration
	for _, m := range all {
		if !applied[m.Name] {
			todo = append(todo, m)
		}
	}
	return todo
}
