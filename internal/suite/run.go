package suite

import (
	"errors"
	"fmt"
	"runtime/debug"

	"jsunit/internal/assert"
	"jsunit/internal/script"
)

// Hook names looked up on a leaf's instance.
const (
	SetUp    = "setUp"
	TearDown = "tearDown"
)

// Sink receives test outcomes and tells the engine when to stop.
type Sink interface {
	ReportSuccess(name string)
	ReportFailure(name, message string)
	ReportError(name string, cause error)
	ShouldStop() bool
}

// Tracker is implemented by sinks that want to bracket each leaf, e.g. to
// time it.
type Tracker interface {
	StartTest(name string)
	EndTest(name string)
}

// Tracer is implemented by sinks that record the script stack of an
// assertion failure. TraceFailure is called just before ReportFailure.
type Tracer interface {
	TraceFailure(name, stack string)
}

// Execute runs n against sink unless the sink has already asked to stop.
func Execute(n Node, sink Sink) {
	if sink.ShouldStop() {
		return
	}
	n.Run(sink)
}

// Run executes children in order, polling sink before each one.
func (c *Composite) Run(sink Sink) {
	for _, child := range c.children {
		if sink.ShouldStop() {
			return
		}
		child.Run(sink)
	}
}

// Run invokes setUp, the test callable and tearDown on a freshly bound
// instance. Nothing thrown inside escapes: every error becomes an outcome.
func (l *Leaf) Run(sink Sink) {
	name := l.String()
	if t, ok := sink.(Tracker); ok {
		t.StartTest(name)
		defer t.EndTest(name)
	}

	if l.isDiag {
		sink.ReportFailure(name, l.warning)
		return
	}

	var inst script.Instance
	if err := guard(func() (err error) {
		inst, err = l.bind()
		return err
	}); err != nil {
		report(sink, name, err)
		return
	}

	if err := guard(func() error { return runHook(inst, SetUp) }); err != nil {
		report(sink, name, err)
		return
	}

	report(sink, name, guard(func() error { return inst.Invoke(l.method) }))

	if err := guard(func() error { return runHook(inst, TearDown) }); err != nil {
		report(sink, name, err)
	}
}

// runHook invokes the named hook when inst defines it as a callable.
func runHook(inst script.Instance, name string) error {
	v, err := inst.Member(name)
	if err != nil {
		return err
	}
	if v == nil || v.Kind() != script.Callable {
		return nil
	}
	return inst.Invoke(name)
}

// guard converts a Go panic escaping fn into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
		}
	}()
	return fn()
}

func report(sink Sink, name string, err error) {
	var failure *assert.Failure
	switch {
	case err == nil:
		sink.ReportSuccess(name)
	case errors.As(err, &failure):
		if t, ok := sink.(Tracer); ok && failure.Stack != "" {
			t.TraceFailure(name, failure.Stack)
		}
		sink.ReportFailure(name, failure.Message)
	default:
		sink.ReportError(name, err)
	}
}
