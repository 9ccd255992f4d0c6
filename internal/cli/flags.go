package cli

import (
	"errors"
	"time"

	"jsunit/internal/config"
)

// ErrTestsFailed is returned by the run command when at least one test
// failed or errored.
var ErrTestsFailed = errors.New("tests failed")

// Flags holds command-line flags
type Flags struct {
	BaseDir    string
	ReportDir  string
	Dialect    string
	Processors int
	Timeout    time.Duration
	NameFilter string
	Test       string
	TestCases  bool
	FailFast   bool
	OnlyFailed bool
	Record     bool
	OpenFails  bool
	NoProgress bool
	Fresh      bool
	Limit      int
	Verbose    bool
}

// ToConfigFlags converts CLI flags and positional paths to config flags
func (f *Flags) ToConfigFlags(paths []string) config.Flags {
	return config.Flags{
		BaseDir:    f.BaseDir,
		ReportDir:  f.ReportDir,
		Dialect:    f.Dialect,
		Processors: f.Processors,
		Timeout:    f.Timeout,
		NameFilter: f.NameFilter,
		Test:       f.Test,
		TestPaths:  paths,
		TestCases:  f.TestCases,
		FailFast:   f.FailFast,
		OnlyFailed: f.OnlyFailed,
		Record:     f.Record,
		OpenFails:  f.OpenFails,
		NoProgress: f.NoProgress,
		Verbose:    f.Verbose,
	}
}
