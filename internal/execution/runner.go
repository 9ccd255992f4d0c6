package execution

import (
	"bytes"
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"jsunit/internal/discovery"
	"jsunit/internal/domain"
	"jsunit/internal/report"
	"jsunit/internal/suite"
)

// Runner discovers and executes a single test file
type Runner struct {
	discoverer *discovery.Discoverer
	timeout    time.Duration
	logger     *log.Logger
}

// NewRunner creates a new Runner. A positive timeout bounds each file.
func NewRunner(discoverer *discovery.Discoverer, timeout time.Duration, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{discoverer: discoverer, timeout: timeout, logger: logger}
}

// Run loads file into a fresh runtime, builds its tree and executes it. The
// run stops early when ctx is done, the timeout expires or halt is set; a
// non-nil halt is set by the first failing test.
func (r *Runner) Run(ctx context.Context, file domain.TestFile, halt *atomic.Bool) domain.TestResult {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	var out bytes.Buffer
	root := r.discoverer.Discover(ctx, file.Path, &out)
	r.logger.Debug("suite built", "file", file.FilePath, "tests", root.CountTestCases())

	collector := report.NewCollector(ctx, halt)
	suite.Execute(root, collector)

	result := collector.Result(file, out.String(), time.Since(start))
	run, failures, errs := result.Counts()
	r.logger.Debug("file finished", "file", file.FilePath, "run", run, "failures", failures, "errors", errs, "took", result.Duration)
	return result
}
