// Package report collects the outcomes of one test file and writes them as
// console summaries and per-file plain text and XML reports.
package report

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"jsunit/internal/domain"
	"jsunit/internal/parser"
	"jsunit/internal/script"
)

// Collector records the outcomes of one file's test tree. It is the sink the
// execution engine reports to and is not safe for concurrent use; files run
// in parallel each get their own Collector.
type Collector struct {
	ctx   context.Context
	halt  *atomic.Bool
	stack *parser.StackParser

	cases   []domain.CaseResult
	current int
	started time.Time
	trace   string
}

// NewCollector creates a Collector. Once ctx is done the collector asks the
// engine to stop. When halt is non-nil the collector also stops as soon as
// halt is set, and sets it on the first failure or error it records.
func NewCollector(ctx context.Context, halt *atomic.Bool) *Collector {
	return &Collector{ctx: ctx, halt: halt, stack: parser.NewStackParser(), current: -1}
}

func (c *Collector) StartTest(name string) {
	c.cases = append(c.cases, domain.CaseResult{Name: name})
	c.current = len(c.cases) - 1
	c.started = time.Now()
}

func (c *Collector) EndTest(name string) {
	if cr := c.lookup(name); cr != nil {
		cr.Duration = time.Since(c.started)
	}
	c.current = -1
}

// TraceFailure keeps the script stack for the failure reported next.
func (c *Collector) TraceFailure(_ string, stack string) {
	c.trace = stack
}

func (c *Collector) ReportSuccess(name string) {
	c.add(name, domain.Outcome{Kind: domain.OutcomeSuccess})
}

func (c *Collector) ReportFailure(name, message string) {
	stack := c.stack.Filter(c.trace)
	c.trace = ""
	c.add(name, domain.Outcome{Kind: domain.OutcomeFailure, Message: message, Stack: stack})
}

func (c *Collector) ReportError(name string, cause error) {
	o := domain.Outcome{Kind: domain.OutcomeError, Message: cause.Error()}
	var thrown *script.ThrownError
	if errors.As(cause, &thrown) {
		o.Stack = thrown.Stack
	}
	c.add(name, o)
}

func (c *Collector) ShouldStop() bool {
	if c.ctx.Err() != nil {
		return true
	}
	return c.halt != nil && c.halt.Load()
}

// Cases returns the recorded results in execution order.
func (c *Collector) Cases() []domain.CaseResult {
	return c.cases
}

// Result assembles the file result from what was recorded.
func (c *Collector) Result(file domain.TestFile, output string, duration time.Duration) domain.TestResult {
	result := domain.TestResult{
		File:     file,
		Success:  true,
		Cases:    c.cases,
		Output:   output,
		Duration: duration,
	}
	for _, cr := range c.cases {
		if !cr.Passed() {
			result.Success = false
			break
		}
	}
	if err := c.ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		result.Success = false
		result.Error = fmt.Errorf("test file interrupted: %w", err)
	}
	return result
}

func (c *Collector) add(name string, o domain.Outcome) {
	cr := c.lookup(name)
	if cr == nil {
		// reported outside a StartTest/EndTest bracket
		c.cases = append(c.cases, domain.CaseResult{Name: name})
		cr = &c.cases[len(c.cases)-1]
	}
	cr.Outcomes = append(cr.Outcomes, o)
	if o.Kind != domain.OutcomeSuccess && c.halt != nil {
		c.halt.Store(true)
	}
}

func (c *Collector) lookup(name string) *domain.CaseResult {
	if c.current >= 0 && c.cases[c.current].Name == name {
		return &c.cases[c.current]
	}
	return nil
}
