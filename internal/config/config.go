package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath string
	TestPath    string

	// Output settings
	ReportDir      string
	OutputJSONFile string
	OutputJSONDir  string

	// Execution settings
	Processors int
	Dialect    string
	Timeout    time.Duration

	// Paths to ignore when scanning
	PathsToIgnore []string

	// Run history database
	Database Database

	// ConfigFile is the config file that was read, if any
	ConfigFile string

	// Command flags
	Flags Flags
}

// Database holds the MySQL run history connection settings
type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Flags holds command-line flags. Zero values leave the configured value
// untouched.
type Flags struct {
	BaseDir    string
	ReportDir  string
	Dialect    string
	Processors int
	Timeout    time.Duration
	NameFilter string
	Test       string
	TestPaths  []string
	TestCases  bool
	FailFast   bool
	OnlyFailed bool
	Record     bool
	OpenFails  bool
	NoProgress bool
	Verbose    bool
}

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		ProjectPath:    DefaultProjectPath,
		TestPath:       DefaultTestPath,
		ReportDir:      DefaultReportDir,
		OutputJSONFile: DefaultOutputJSONFile,
		OutputJSONDir:  DefaultOutputJSONDir,
		Processors:     DefaultProcessors,
		Dialect:        DefaultDialect,
		Timeout:        DefaultTimeout,
		Database: Database{
			Host: DefaultDBHost,
			Port: DefaultDBPort,
			User: DefaultDBUser,
			Name: DefaultDBName,
		},
	}
	// Copy default paths to ignore
	cfg.PathsToIgnore = make([]string, len(DefaultPathsToIgnore))
	copy(cfg.PathsToIgnore, DefaultPathsToIgnore)
	return cfg
}

// Load builds the configuration. Later sources win: defaults, the .env file
// of the base directory, the jsunit config file and JSUNIT_* environment
// variables, then flags.
func Load(flags Flags) (*Config, error) {
	cfg := New()
	cfg.Flags = flags
	if flags.BaseDir != "" {
		cfg.ProjectPath = flags.BaseDir
	}

	// Variables already set in the environment are not overridden.
	if err := godotenv.Load(filepath.Join(cfg.ProjectPath, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("test_path", cfg.TestPath)
	v.SetDefault("todir", cfg.ReportDir)
	v.SetDefault("processors", cfg.Processors)
	v.SetDefault("dialect", cfg.Dialect)
	v.SetDefault("timeout", cfg.Timeout)
	v.SetDefault("ignore", cfg.PathsToIgnore)
	v.SetDefault("output.dir", cfg.OutputJSONDir)
	v.SetDefault("output.file", cfg.OutputJSONFile)
	v.SetDefault("db.host", cfg.Database.Host)
	v.SetDefault("db.port", cfg.Database.Port)
	v.SetDefault("db.username", cfg.Database.User)
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", cfg.Database.Name)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The database connection shares the project's unprefixed DB_* settings.
	for key, env := range map[string]string{
		"db.host":     "DB_HOST",
		"db.port":     "DB_PORT",
		"db.username": "DB_USERNAME",
		"db.password": "DB_PASSWORD",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	v.SetConfigName(ConfigFileName)
	v.AddConfigPath(cfg.ProjectPath)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	cfg.TestPath = v.GetString("test_path")
	cfg.ReportDir = v.GetString("todir")
	cfg.Processors = v.GetInt("processors")
	cfg.Dialect = v.GetString("dialect")
	cfg.Timeout = v.GetDuration("timeout")
	cfg.PathsToIgnore = v.GetStringSlice("ignore")
	cfg.OutputJSONDir = v.GetString("output.dir")
	cfg.OutputJSONFile = v.GetString("output.file")
	cfg.Database = Database{
		Host:     v.GetString("db.host"),
		Port:     v.GetString("db.port"),
		User:     v.GetString("db.username"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
	}

	// Apply flag overrides
	if flags.ReportDir != "" {
		cfg.ReportDir = flags.ReportDir
	}
	if flags.Processors > 0 {
		cfg.Processors = flags.Processors
	}
	if flags.Dialect != "" {
		cfg.Dialect = flags.Dialect
	}
	if flags.Timeout > 0 {
		cfg.Timeout = flags.Timeout
	}
	if cfg.Processors <= 0 {
		cfg.Processors = 1
	}

	return cfg, nil
}

// GetTestPaths returns the paths to scan: the positional arguments, or the
// configured test path. Relative paths are resolved against the base
// directory.
func (c *Config) GetTestPaths() []string {
	paths := c.Flags.TestPaths
	if len(paths) == 0 {
		paths = []string{c.TestPath}
	}
	resolved := make([]string, 0, len(paths))
	for _, p := range paths {
		resolved = append(resolved, c.resolve(p))
	}
	return resolved
}

// GetReportDir returns the directory reports are written to.
func (c *Config) GetReportDir() string {
	return c.resolve(c.ReportDir)
}

// GetOutputPath returns the full path to the output JSON file (under project so run and fails use the same file).
// Resolves to an absolute path so run and fails always read/write the same file regardless of cwd.
func (c *Config) GetOutputPath() string {
	p := filepath.Join(c.ProjectPath, c.OutputJSONDir, c.OutputJSONFile)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectPath, p)
}

// DSN returns the MySQL data source name. Without withName it connects to
// the server only, e.g. to create the database.
func (d Database) DSN(withName bool) string {
	mc := mysql.NewConfig()
	mc.User = d.User
	mc.Passwd = d.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(d.Host, d.Port)
	mc.ParseTime = true
	if withName {
		mc.DBName = d.Name
	}
	return mc.FormatDSN()
}
