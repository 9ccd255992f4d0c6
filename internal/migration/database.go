package migration

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/charmbracelet/log"
	_ "github.com/go-sql-driver/mysql"

	"jsunit/internal/config"
)

var databaseName = regexp.MustCompile(`^[A-Za-z0-9_$]{1,64}$`)

// DatabaseManager manages the history database
type DatabaseManager struct {
	config config.Database
	logger *log.Logger
}

// NewDatabaseManager creates a new DatabaseManager
func NewDatabaseManager(cfg config.Database, logger *log.Logger) *DatabaseManager {
	if logger == nil {
		logger = log.Default()
	}
	return &DatabaseManager{config: cfg, logger: logger}
}

// EnsureDatabase creates the configured database when it does not exist and
// reports whether it did.
func (dm *DatabaseManager) EnsureDatabase(ctx context.Context) (bool, error) {
	if !isValidDatabaseName(dm.config.Name) {
		return false, fmt.Errorf("invalid database name: %q", dm.config.Name)
	}

	// Connect to MySQL server (without specifying database)
	db, err := sql.Open("mysql", dm.config.DSN(false))
	if err != nil {
		return false, fmt.Errorf("failed to connect to database server: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return false, fmt.Errorf("failed to ping database server: %w", err)
	}

	exists, err := dm.databaseExists(ctx, db, dm.config.Name)
	if err != nil {
		return false, fmt.Errorf("failed to check database %s: %w", dm.config.Name, err)
	}
	if exists {
		return false, nil
	}
	if err := dm.createDatabase(ctx, db, dm.config.Name); err != nil {
		return false, fmt.Errorf("failed to create database %s: %w", dm.config.Name, err)
	}
	dm.logger.Info("database created", "name", dm.config.Name)
	return true, nil
}

// Open connects to the history database itself.
func (dm *DatabaseManager) Open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("mysql", dm.config.DSN(true))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", dm.config.Name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", dm.config.Name, err)
	}
	return db, nil
}

// databaseExists checks if a database exists
func (dm *DatabaseManager) databaseExists(ctx context.Context, db *sql.DB, dbName string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?)"
	err := db.QueryRowContext(ctx, query, dbName).Scan(&exists)
	return exists, err
}

// createDatabase creates a new database. The name was validated, identifiers
// cannot be bound as parameters.
func (dm *DatabaseManager) createDatabase(ctx context.Context, db *sql.DB, dbName string) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", dbName))
	return err
}

func isValidDatabaseName(name string) bool {
	return databaseName.MatchString(name)
}
