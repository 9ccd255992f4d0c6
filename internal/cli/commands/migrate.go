package commands

import "context"

// MigrateCommand handles the migrate command
type MigrateCommand struct {
	*Dependencies
}

// NewMigrateCommand creates a new MigrateCommand
func NewMigrateCommand(d *Dependencies) *MigrateCommand {
	return &MigrateCommand{Dependencies: d}
}

// Execute creates the history database and applies its migrations
func (mc *MigrateCommand) Execute(ctx context.Context, fresh bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return mc.Migrator.Run(ctx, fresh)
}
