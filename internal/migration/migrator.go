package migration

import "context"

// Migrator prepares the run history database
type Migrator interface {
	// Run applies pending migrations. With fresh every table is dropped first.
	Run(ctx context.Context, fresh bool) error
}
