package domain

import "time"

// OutcomeKind classifies a reported test outcome
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeFailure OutcomeKind = "failure" // assertion failed
	OutcomeError   OutcomeKind = "error"   // anything else was thrown
)

// Outcome is one report made for a test. A test whose tearDown also fails
// carries more than one.
type Outcome struct {
	Kind    OutcomeKind
	Message string
	Stack   string
}

// CaseResult is the result of running one leaf
type CaseResult struct {
	Name     string // method(suite)
	Outcomes []Outcome
	Duration time.Duration
}

// Passed reports whether every outcome of the case is a success.
func (c CaseResult) Passed() bool {
	for _, o := range c.Outcomes {
		if o.Kind != OutcomeSuccess {
			return false
		}
	}
	return true
}

// TestResult represents the result of executing a test file
type TestResult struct {
	File     TestFile      // The file that was executed
	Success  bool          // Whether every test passed
	Cases    []CaseResult  // Per-test results in execution order
	Output   string        // Output printed by the script
	Error    error         // Error if the runner itself failed
	Duration time.Duration // Time taken to execute
}

// Counts returns the number of tests run and the failure and error reports
// made for them.
func (r TestResult) Counts() (run, failures, errors int) {
	run = len(r.Cases)
	for _, c := range r.Cases {
		for _, o := range c.Outcomes {
			switch o.Kind {
			case OutcomeFailure:
				failures++
			case OutcomeError:
				errors++
			}
		}
	}
	return run, failures, errors
}

// TestResultsMeta contains metadata about a test run
type TestResultsMeta struct {
	TotalTestFiles  int     `json:"total_test_files"`
	FailedTestFiles int     `json:"failed_test_files"`
	PassedTestFiles int     `json:"passed_test_files"`
	TotalTestCases  int     `json:"total_test_cases"`
	FailedTestCases int     `json:"failed_test_cases"`
	Dialect         string  `json:"dialect"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	Workers         int     `json:"workers"`
	Timestamp       string  `json:"timestamp"`
}

// TestResultsOutput is the complete output structure for test results
type TestResultsOutput struct {
	Meta    TestResultsMeta `json:"meta"`
	Details []TestFailure   `json:"details"`
}

// FailedFiles returns the distinct file paths with at least one failure, in
// first-seen order.
func (o *TestResultsOutput) FailedFiles() []string {
	seen := make(map[string]bool)
	var files []string
	for _, f := range o.Details {
		if !seen[f.FilePath] {
			seen[f.FilePath] = true
			files = append(files, f.FilePath)
		}
	}
	return files
}
