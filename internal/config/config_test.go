package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unset clears key for the duration of the test.
func unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestConfig_GetTestPaths(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected []string
	}{
		{
			name: "default path",
			config: &Config{
				ProjectPath: ".",
				TestPath:    ".",
			},
			expected: []string{"."},
		},
		{
			name: "configured test path",
			config: &Config{
				ProjectPath: "/project",
				TestPath:    "tests",
			},
			expected: []string{"/project/tests"},
		},
		{
			name: "positional paths",
			config: &Config{
				ProjectPath: "/project",
				TestPath:    "tests",
				Flags: Flags{
					TestPaths: []string{"a/calc_test.js", "/absolute/path"},
				},
			},
			expected: []string{"/project/a/calc_test.js", "/absolute/path"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.GetTestPaths())
		})
	}
}

func TestConfig_GetReportDir(t *testing.T) {
	cfg := New()
	cfg.ProjectPath = "/project"
	assert.Equal(t, "/project/target/surefire-reports", cfg.GetReportDir())

	cfg.ReportDir = "/tmp/reports"
	assert.Equal(t, "/tmp/reports", cfg.GetReportDir())
}

func TestConfig_GetOutputPath(t *testing.T) {
	cfg := New()
	cfg.ProjectPath = "/project"
	assert.Equal(t, "/project/storage/test-results.json", cfg.GetOutputPath())
}

func TestNew(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultProjectPath, cfg.ProjectPath)
	assert.Equal(t, DefaultProcessors, cfg.Processors)
	assert.Equal(t, DefaultDialect, cfg.Dialect)
	assert.Equal(t, DefaultReportDir, cfg.ReportDir)
	assert.Equal(t, DefaultPathsToIgnore, cfg.PathsToIgnore)

	cfg.PathsToIgnore[0] = "changed"
	assert.NotEqual(t, "changed", DefaultPathsToIgnore[0])
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DB_HOST", "DB_PORT", "DB_USERNAME", "DB_PASSWORD", "JSUNIT_DB_NAME", "JSUNIT_PROCESSORS", "JSUNIT_DIALECT"} {
		unset(t, key)
	}

	cfg, err := Load(Flags{BaseDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, DefaultProcessors, cfg.Processors)
	assert.Equal(t, DefaultDialect, cfg.Dialect)
	assert.Equal(t, DefaultReportDir, cfg.ReportDir)
	assert.Empty(t, cfg.ConfigFile)
	assert.Equal(t, Database{Host: DefaultDBHost, Port: DefaultDBPort, User: DefaultDBUser, Name: DefaultDBName}, cfg.Database)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	unset(t, "DB_HOST")
	unset(t, "DB_PASSWORD")
	unset(t, "JSUNIT_TODIR")
	t.Setenv("JSUNIT_DIALECT", "recursive")
	t.Setenv("DB_PORT", "3307")

	writeFile(t, dir, ".env", "DB_HOST=db.internal\nDB_PASSWORD=secret\nDB_PORT=9999\n")
	writeFile(t, dir, "jsunit.yaml", "processors: 8\ntimeout: 30s\ntodir: reports\ndialect: flat\nignore:\n  - fixtures\n")

	cfg, err := Load(Flags{BaseDir: dir, Processors: 2})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "jsunit.yaml"), cfg.ConfigFile)
	assert.Equal(t, 2, cfg.Processors, "flag beats config file")
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "reports", cfg.ReportDir)
	assert.Equal(t, filepath.Join(dir, "reports"), cfg.GetReportDir())
	assert.Equal(t, "recursive", cfg.Dialect, "environment beats config file")
	assert.Equal(t, []string{"fixtures"}, cfg.PathsToIgnore)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, "3307", cfg.Database.Port, "environment beats .env")
}

func TestLoad_FlagOverrides(t *testing.T) {
	unset(t, "JSUNIT_DIALECT")

	cfg, err := Load(Flags{
		BaseDir:    t.TempDir(),
		ReportDir:  "out",
		Dialect:    "recursive",
		Timeout:    time.Minute,
		Processors: -3,
	})
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.ReportDir)
	assert.Equal(t, "recursive", cfg.Dialect)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.Equal(t, DefaultProcessors, cfg.Processors)
}

func TestLoad_BadConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "jsunit.yaml", "processors: [\n")

	_, err := Load(Flags{BaseDir: dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestDatabase_DSN(t *testing.T) {
	db := Database{Host: "db", Port: "3307", User: "ci", Password: "pw", Name: "jsunit"}

	assert.Equal(t, "ci:pw@tcp(db:3307)/jsunit?parseTime=true", db.DSN(true))
	assert.Equal(t, "ci:pw@tcp(db:3307)/?parseTime=true", db.DSN(false))
}
