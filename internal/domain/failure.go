package domain

// TestFailure represents a failed or errored test case
type TestFailure struct {
	TestName   string      `json:"test_name"` // method(suite)
	FilePath   string      `json:"file_path"`
	Kind       OutcomeKind `json:"kind"`
	StackTrace []string    `json:"stack_trace"`
	File       string      `json:"file"`
	Line       int         `json:"line"`
	Message    string      `json:"message"`
	Resolved   bool        `json:"resolved,omitempty"` // Track if test case is marked as resolved
}
