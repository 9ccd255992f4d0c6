package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"

	"jsunit/internal/cli"
	"jsunit/internal/cli/commands"
)

var version = "dev"

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitError  = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "jsunit",
		Level:  log.WarnLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := commands.NewCommands(logger).NewRootCommand(version)
	err := rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, cli.ErrTestsFailed):
		return exitFailed
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
}
