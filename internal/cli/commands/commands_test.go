package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsunit/internal/cli"
	"jsunit/internal/domain"
	"jsunit/internal/storage"
	"jsunit/internal/ui"
)

func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"math/calc_test.js": `
function testAddSuccess() { assertEquals(2, 1 + 1); }
function testAddFail() { assertEquals(-2, 1 + 1); }
`,
		"strings_test.star": `
def test_upper():
    assertEquals("AB", "ab".upper())
`,
		"helper.js": `function testNotATestFile() { fail(); }`,
	}
	for name, src := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	logger := log.NewWithOptions(&bytes.Buffer{}, log.Options{Level: log.WarnLevel})
	root := NewCommands(logger).NewRootCommand("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRun(t *testing.T) {
	dir := project(t)

	out, err := execute(t, "run", "-b", dir, "--no-progress")
	require.ErrorIs(t, err, cli.ErrTestsFailed)

	assert.Contains(t, out, "Running jsunit.math.calc_test")
	assert.Contains(t, out, "Tests run: 2, Failures: 1, Errors: 0")
	assert.Contains(t, out, "FAILED: expected:<-2> but was:<2>")
	assert.Contains(t, out, "Running jsunit.strings_test")
	assert.NotContains(t, out, "helper")

	reports := filepath.Join(dir, "target", "surefire-reports")
	for _, name := range []string{
		"TEST-jsunit.math.calc_test.txt",
		"TEST-jsunit.math.calc_test.xml",
		"TEST-jsunit.strings_test.xml",
	} {
		_, err := os.Stat(filepath.Join(reports, name))
		assert.NoError(t, err, name)
	}

	data, err := os.ReadFile(filepath.Join(dir, "storage", "test-results.json"))
	require.NoError(t, err)
	var stored domain.TestResultsOutput
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, 2, stored.Meta.TotalTestFiles)
	assert.Equal(t, 1, stored.Meta.FailedTestFiles)
	assert.Equal(t, 3, stored.Meta.TotalTestCases)
	require.Len(t, stored.Details, 1)
	assert.Equal(t, "math/calc_test.js", stored.Details[0].FilePath)
	assert.Equal(t, "expected:<-2> but was:<2>", stored.Details[0].Message)
}

func TestRun_Selectors(t *testing.T) {
	dir := project(t)

	out, err := execute(t, "run", "-b", dir, "--no-progress", "-T", "strings_test")
	require.NoError(t, err)
	assert.Contains(t, out, "Running jsunit.strings_test")
	assert.NotContains(t, out, "calc_test")

	out, err = execute(t, "run", "-b", dir, "--no-progress", "--filter", "*calc*")
	require.ErrorIs(t, err, cli.ErrTestsFailed)
	assert.NotContains(t, out, "strings_test")

	out, err = execute(t, "run", "-b", dir, "--no-progress", "-T", "nothing_test")
	require.NoError(t, err)
	assert.Contains(t, out, "No tests to execute")
}

func TestRun_OnlyFailed(t *testing.T) {
	dir := project(t)

	_, err := execute(t, "run", "-b", dir, "--no-progress", "--failed")
	require.Error(t, err)
	assert.NotErrorIs(t, err, cli.ErrTestsFailed)

	_, err = execute(t, "run", "-b", dir, "--no-progress")
	require.ErrorIs(t, err, cli.ErrTestsFailed)

	out, err := execute(t, "run", "-b", dir, "--no-progress", "--failed")
	require.ErrorIs(t, err, cli.ErrTestsFailed)
	assert.Contains(t, out, "Running jsunit.math.calc_test")
	assert.NotContains(t, out, "Running jsunit.strings_test")
}

func TestRun_BadDialect(t *testing.T) {
	_, err := execute(t, "run", "-b", project(t), "--dialect", "nested")
	require.Error(t, err)
	assert.NotErrorIs(t, err, cli.ErrTestsFailed)
}

type stubExecutor struct {
	results  []domain.TestResult
	failFast bool
}

func (s *stubExecutor) Execute(ctx context.Context, files []domain.TestFile) ([]domain.TestResult, time.Duration, error) {
	return s.ExecuteWithOptions(ctx, files, false)
}

func (s *stubExecutor) ExecuteWithOptions(_ context.Context, _ []domain.TestFile, failFast bool) ([]domain.TestResult, time.Duration, error) {
	s.failFast = failFast
	return s.results, time.Second, nil
}

func (s *stubExecutor) SetProgress(*ui.ProgressBar) {}

type stubParser struct{}

func (stubParser) ParseFailure(r domain.TestResult) []domain.TestFailure {
	return []domain.TestFailure{{TestName: "testX(stub)", FilePath: r.File.FilePath, Message: "from parser"}}
}

func TestRun_ComponentsAreReplaceable(t *testing.T) {
	dir := project(t)
	c := NewCommands(log.NewWithOptions(&bytes.Buffer{}, log.Options{Level: log.WarnLevel}))
	c.flags.BaseDir = dir
	c.flags.NoProgress = true
	c.flags.FailFast = true
	deps, err := c.load(nil)
	require.NoError(t, err)

	exec := &stubExecutor{results: []domain.TestResult{{
		File:  domain.TestFile{FilePath: "math/calc_test.js", Name: "jsunit.math.calc_test"},
		Cases: []domain.CaseResult{{Name: "testX(stub)", Outcomes: []domain.Outcome{{Kind: domain.OutcomeError, Message: "boom"}}}},
	}}}
	deps.Executor = exec
	deps.Parser = stubParser{}

	var out bytes.Buffer
	err = NewRunCommand(deps).Execute(context.Background(), &out)
	require.ErrorIs(t, err, cli.ErrTestsFailed)
	assert.True(t, exec.failFast)

	stored, err := deps.Storage.Load()
	require.NoError(t, err)
	require.Len(t, stored.Details, 1)
	assert.Equal(t, "from parser", stored.Details[0].Message)
	assert.Equal(t, []string{"math/calc_test.js"}, stored.FailedFiles())
}

func TestList(t *testing.T) {
	dir := project(t)

	out, err := execute(t, "list", "-b", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Found 2 test file(s):")
	assert.Contains(t, out, "math/calc_test.js")
	assert.Contains(t, out, "strings_test.star")

	out, err = execute(t, "list", "-b", dir, "-c")
	require.NoError(t, err)
	assert.Contains(t, out, "math/calc_test.js (2)")
	assert.Contains(t, out, "testAddFail")
	assert.Contains(t, out, "test_upper")
}

func TestPrintRuns(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	printRuns(&buf, nil)
	assert.Equal(t, "No recorded runs\n", buf.String())

	buf.Reset()
	printRuns(&buf, []storage.Run{
		{ID: 7, StartedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC), Dialect: "flat", TotalFiles: 3, FailedFiles: 1, TotalCases: 10, FailedCases: 2, DurationSeconds: 1.5},
		{ID: 6, StartedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), Dialect: "recursive", TotalFiles: 3, TotalCases: 10, DurationSeconds: 0.25},
	})
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "#7")
	assert.Contains(t, string(lines[0]), "FAIL  2026-03-01 09:30:00")
	assert.Contains(t, string(lines[0]), "files 2/3  cases 8/10  1.50s")
	assert.Contains(t, string(lines[1]), "PASS")
	assert.Contains(t, string(lines[1]), "recursive")
}
