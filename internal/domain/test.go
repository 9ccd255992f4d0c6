package domain

// TestFile represents a test script to be discovered and executed
type TestFile struct {
	Path     string // Full path to the script
	FilePath string // Path relative to the base directory, slash separated
	FileName string // Just the filename
	Name     string // Report name, e.g. jsunit.math.calc_test
}

// TestCase represents a single discovered test within a test file
type TestCase struct {
	Name     string // Method name, or "warning" for a diagnostic
	Suite    string // Suite the test was discovered in
	FilePath string // Path to the test file containing this case
}

// String returns the name the case is reported under.
func (c TestCase) String() string {
	return c.Name + "(" + c.Suite + ")"
}
