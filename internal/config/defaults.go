package config

import "time"

const (
	// DefaultProjectPath is the default base directory
	DefaultProjectPath = "."
	// DefaultTestPath is the default test path, relative to the base directory
	DefaultTestPath = "."
	// DefaultReportDir is the default report directory
	DefaultReportDir = "target/surefire-reports"
	// DefaultOutputJSONFile is the default output JSON file name
	DefaultOutputJSONFile = "test-results.json"
	// DefaultOutputJSONDir is the default output directory
	DefaultOutputJSONDir = "storage"
	// DefaultProcessors is the default number of files run in parallel
	DefaultProcessors = 4
	// DefaultDialect is the default discovery dialect
	DefaultDialect = "flat"
	// DefaultTimeout bounds a single test file; zero means no limit
	DefaultTimeout time.Duration = 0

	// ConfigFileName is the config file looked up in the base directory,
	// without extension (jsunit.yaml, jsunit.toml, ...)
	ConfigFileName = "jsunit"
	// EnvPrefix prefixes the environment variables read as configuration
	EnvPrefix = "JSUNIT"
)

// Run history database defaults
const (
	DefaultDBHost = "127.0.0.1"
	DefaultDBPort = "3306"
	DefaultDBUser = "root"
	DefaultDBName = "jsunit"
)

// DefaultPathsToIgnore are the default directories to ignore when scanning for tests
var DefaultPathsToIgnore = []string{
	"node_modules",
	"vendor",
	"target",
	"storage",
	"dist",
	"build",
}
