package commands

// FailsCommand handles the fails command
type FailsCommand struct {
	*Dependencies
}

// NewFailsCommand creates a new FailsCommand
func NewFailsCommand(d *Dependencies) *FailsCommand {
	return &FailsCommand{Dependencies: d}
}

// Execute opens the viewer over the last run's failures
func (fc *FailsCommand) Execute() error {
	results, err := fc.Storage.Load()
	if err != nil {
		return err
	}

	return fc.Viewer.View(results)
}
