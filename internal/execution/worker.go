package execution

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"jsunit/internal/domain"
	"jsunit/internal/ui"
)

// WorkerPool manages a pool of workers for parallel test execution. Each
// worker owns one file from load to result.
type WorkerPool struct {
	workers  int
	runner   *Runner
	progress *ui.ProgressBar
	logger   *log.Logger
}

// NewWorkerPool creates a new WorkerPool
func NewWorkerPool(workers int, runner *Runner, logger *log.Logger) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &WorkerPool{workers: workers, runner: runner, logger: logger}
}

// SetProgress sets the progress bar for the worker pool
func (wp *WorkerPool) SetProgress(progress *ui.ProgressBar) {
	wp.progress = progress
}

// Execute runs every file (no fail-fast).
func (wp *WorkerPool) Execute(ctx context.Context, files []domain.TestFile) ([]domain.TestResult, time.Duration, error) {
	return wp.ExecuteWithOptions(ctx, files, false)
}

// ExecuteWithOptions runs files in parallel. With failFast the first failing
// test stops every worker: running files stop between tests and queued files
// are not started. Results are returned in the order of files; files that
// never ran are left out.
func (wp *WorkerPool) ExecuteWithOptions(ctx context.Context, files []domain.TestFile, failFast bool) ([]domain.TestResult, time.Duration, error) {
	if len(files) == 0 {
		return nil, 0, nil
	}

	var halt *atomic.Bool
	if failFast {
		halt = new(atomic.Bool)
	}
	stopped := func() bool {
		return ctx.Err() != nil || (halt != nil && halt.Load())
	}

	queue := make(chan int)
	go func() {
		defer close(queue)
		for i := range files {
			if stopped() {
				return
			}
			select {
			case <-ctx.Done():
				return
			case queue <- i:
			}
		}
	}()

	results := make([]*domain.TestResult, len(files))
	var mu sync.Mutex
	var completedFiles int
	var passedCases, failedCases int
	startTime := time.Now()

	var wg sync.WaitGroup
	for i := 1; i <= wp.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range queue {
				if stopped() {
					continue
				}
				wp.logger.Debug("running file", "worker", workerID, "file", files[idx].FilePath)
				result := wp.runner.Run(ctx, files[idx], halt)

				mu.Lock()
				results[idx] = &result
				completedFiles++
				for _, c := range result.Cases {
					if c.Passed() {
						passedCases++
					} else {
						failedCases++
					}
				}
				if wp.progress != nil {
					wp.progress.Update(completedFiles, passedCases, failedCases)
				}
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if wp.progress != nil {
		wp.progress.Finish()
	}

	var allResults []domain.TestResult
	for _, r := range results {
		if r != nil {
			allResults = append(allResults, *r)
		}
	}
	return allResults, time.Since(startTime), ctx.Err()
}
