package commands

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"jsunit/internal/cli"
	"jsunit/internal/config"
	"jsunit/internal/discovery"
	"jsunit/internal/execution"
	"jsunit/internal/migration"
	"jsunit/internal/parser"
	"jsunit/internal/report"
	"jsunit/internal/script"
	"jsunit/internal/script/jsengine"
	"jsunit/internal/script/starengine"
	"jsunit/internal/storage"
	"jsunit/internal/ui"
)

// Dependencies are the components commands work with. They are built once
// the flags are parsed, since the base directory and dialect shape them.
type Dependencies struct {
	Config     *config.Config
	Logger     *log.Logger
	Registry   *script.Registry
	Scanner    *discovery.FileScanner
	Filter     *discovery.Filter
	Discoverer *discovery.Discoverer
	Executor   execution.Executor
	Parser     parser.Parser
	Storage    storage.Storage
	Writer     *report.Writer
	Formatter  *ui.Formatter
	Migrator   migration.Migrator
	Viewer     ui.Viewer
}

// NewDependencies wires every component from cfg
func NewDependencies(cfg *config.Config, logger *log.Logger) (*Dependencies, error) {
	dialect, err := discovery.ParseDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	registry := script.NewRegistry()
	registry.Register(jsengine.Extension, jsengine.NewLoader(cfg.ProjectPath, logger))
	registry.Register(starengine.Extension, starengine.NewLoader(cfg.ProjectPath, logger))

	discoverer := discovery.NewDiscoverer(registry, discovery.NewBuilder(dialect, logger), logger)
	runner := execution.NewRunner(discoverer, cfg.Timeout, logger)
	jsonStorage := storage.NewJSONStorage(cfg)

	return &Dependencies{
		Config:     cfg,
		Logger:     logger,
		Registry:   registry,
		Scanner:    discovery.NewFileScanner(cfg.PathsToIgnore, registry.Supports),
		Filter:     discovery.NewFilter(registry.Extensions()),
		Discoverer: discoverer,
		Executor:   execution.NewWorkerPool(cfg.Processors, runner, logger),
		Parser:     parser.NewStackParser(),
		Storage:    jsonStorage,
		Writer: report.NewWriter(cfg.GetReportDir(), map[string]string{
			"basedir": cfg.ProjectPath,
			"dialect": string(dialect),
		}),
		Formatter: ui.NewFormatter(discoverer),
		Migrator:  migration.NewSchemaMigrator(migration.NewDatabaseManager(cfg.Database, logger), logger),
		Viewer:    ui.NewErrorViewer(jsonStorage, logger),
	}, nil
}

// Commands registers the CLI commands
type Commands struct {
	flags  *cli.Flags
	logger *log.Logger
}

// NewCommands creates the commands. Components log through logger.
func NewCommands(logger *log.Logger) *Commands {
	if logger == nil {
		logger = log.Default()
	}
	return &Commands{flags: &cli.Flags{}, logger: logger}
}

// load reads the configuration for the parsed flags and wires the components
func (c *Commands) load(args []string) (*Dependencies, error) {
	if c.flags.Verbose {
		c.logger.SetLevel(log.DebugLevel)
	}
	cfg, err := config.Load(c.flags.ToConfigFlags(args))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.ConfigFile != "" {
		c.logger.Debug("config file loaded", "path", cfg.ConfigFile)
	}
	return NewDependencies(cfg, c.logger)
}

// NewRootCommand builds the jsunit command tree
func (c *Commands) NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jsunit",
		Short: "Script unit test runner",
		Long: `Discover and run JavaScript (.js) and Starlark (.star) unit tests. Test functions
are found by naming convention and run in parallel, one runtime per file, with JUnit
style reports.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := c.flags
	rootCmd.PersistentFlags().StringVarP(&flags.BaseDir, "basedir", "b", "", "Base directory test paths and reports are resolved against")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Log debug output")

	runCmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Run script tests in parallel",
		Long:  "Discover and execute script tests using parallel workers, writing reports for every file",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := c.load(args)
			if err != nil {
				return err
			}
			return NewRunCommand(deps).Execute(cmd.Context(), cmd.OutOrStdout())
		},
	}
	runCmd.Flags().StringVarP(&flags.ReportDir, "todir", "o", "", "Directory reports are written to (default target/surefire-reports)")
	runCmd.Flags().StringVarP(&flags.Dialect, "dialect", "d", "", "Suite discovery dialect: flat or recursive")
	runCmd.Flags().IntVarP(&flags.Processors, "processors", "p", 0, "Number of files run in parallel (default 4)")
	runCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter test files by name pattern (supports wildcards, e.g. '*calc_test.js' or '*math*')")
	runCmd.Flags().StringVarP(&flags.Test, "test", "T", "", "Run a single test file, e.g. 'math/calc_test' or 'math.calc_test.js'")
	runCmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "Stop on first test failure")
	runCmd.Flags().BoolVar(&flags.OnlyFailed, "failed", false, "Run only files that failed in the last run (from storage/test-results.json)")
	runCmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "Time limit for each test file, e.g. 30s")
	runCmd.Flags().BoolVar(&flags.Record, "record", false, "Record the run in the MySQL history database")
	runCmd.Flags().BoolVar(&flags.OpenFails, "open-fails", false, "Open the fails viewer when the run finishes with failures")
	runCmd.Flags().BoolVar(&flags.NoProgress, "no-progress", false, "Do not show the progress bar")
	rootCmd.AddCommand(runCmd)

	listCmd := &cobra.Command{
		Use:   "list [paths...]",
		Short: "List discovered tests",
		Long:  "Scan and list all test files without executing them",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := c.load(args)
			if err != nil {
				return err
			}
			return NewListCommand(deps).Execute(cmd.Context(), cmd.OutOrStdout())
		},
	}
	listCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter test files by name pattern (supports wildcards)")
	listCmd.Flags().StringVarP(&flags.Test, "test", "T", "", "List a single test file")
	listCmd.Flags().StringVarP(&flags.Dialect, "dialect", "d", "", "Suite discovery dialect: flat or recursive")
	listCmd.Flags().BoolVarP(&flags.TestCases, "test-cases", "c", false, "Show the suites and tests of each file")
	rootCmd.AddCommand(listCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Prepare the run history database",
		Long:  "Create the MySQL history database and apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := c.load(nil)
			if err != nil {
				return err
			}
			return NewMigrateCommand(deps).Execute(cmd.Context(), flags.Fresh)
		},
	}
	migrateCmd.Flags().BoolVar(&flags.Fresh, "fresh", false, "Drop every table before migrating")
	rootCmd.AddCommand(migrateCmd)

	failsCmd := &cobra.Command{
		Use:   "fails",
		Short: "View test failures interactively",
		Long:  "Display test failures from the last test run in an interactive viewer",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := c.load(nil)
			if err != nil {
				return err
			}
			return NewFailsCommand(deps).Execute()
		},
	}
	rootCmd.AddCommand(failsCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded test runs",
		Long:  "List the latest runs stored in the MySQL history database by run --record",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := c.load(nil)
			if err != nil {
				return err
			}
			return NewHistoryCommand(deps).Execute(cmd.Context(), cmd.OutOrStdout(), flags.Limit)
		},
	}
	historyCmd.Flags().IntVarP(&flags.Limit, "limit", "n", 10, "Number of runs to show")
	rootCmd.AddCommand(historyCmd)

	return rootCmd
}
