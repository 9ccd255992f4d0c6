// Package jsengine loads JavaScript test files into isolated goja runtimes.
package jsengine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dop251/goja"

	"jsunit/internal/assert"
	"jsunit/internal/parser"
	"jsunit/internal/script"
)

// Extension is the file extension handled by the Loader.
const Extension = ".js"

// Loader evaluates each file in a fresh goja runtime.
type Loader struct {
	baseDir string
	logger  *log.Logger
	stack   *parser.StackParser
}

// NewLoader creates a Loader. load() and readFile() resolve relative paths
// against the test file's directory first, then baseDir.
func NewLoader(baseDir string, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{
		baseDir: baseDir,
		logger:  logger,
		stack:   parser.NewStackParser(),
	}
}

// Load implements script.Loader.
func (l *Loader) Load(ctx context.Context, path string, stdout io.Writer) (script.Namespace, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &script.LoadError{Path: path, Err: err}
	}

	if stdout == nil {
		stdout = io.Discard
	}

	start := time.Now()
	rt, err := newRuntime(path)
	if err != nil {
		return nil, &script.LoadError{Path: path, Err: err}
	}
	b := &builtins{rt: rt, dir: l.baseDir, stdout: stdout}
	if err := b.install(); err != nil {
		return nil, &script.LoadError{Path: path, Err: err}
	}

	// An expired context interrupts whatever the runtime is executing, and
	// every later call into it.
	context.AfterFunc(ctx, func() {
		rt.vm.Interrupt(ctx.Err())
	})

	ns := &namespace{instance: instance{rt: rt, obj: rt.vm.GlobalObject()}}
	if _, err := rt.vm.RunScript(path, string(src)); err != nil {
		return ns, l.loadError(path, src, err)
	}

	l.logger.Debug("script loaded", "path", path, "engine", "goja", "took", time.Since(start))
	return ns, nil
}

func (l *Loader) loadError(path string, src []byte, err error) *script.LoadError {
	le := &script.LoadError{Path: path, Err: err}

	var syntaxErr *goja.CompilerSyntaxError
	var ex *goja.Exception
	switch {
	case errors.As(err, &syntaxErr):
		if line, col, ok := parser.SyntaxLocation(syntaxErr.Error()); ok {
			le.Line, le.Column = line, col
		}
	case errors.As(err, &ex):
		le.Err = thrown(ex)
		if f, ok := l.stack.Locate(ex.String(), path); ok {
			le.Line, le.Column = f.Line, f.Column
		}
	}
	le.Source = script.SourceLine(src, le.Line)
	return le
}

// convert maps an error returned by a goja call to the error contract of
// script.Instance.Invoke.
func convert(err error) error {
	if err == nil {
		return nil
	}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Errorf("script interrupted: %v", interrupted.Value())
	}

	var ex *goja.Exception
	if errors.As(err, &ex) {
		if cause := goError(ex.Value()); cause != nil {
			return attachStack(cause, ex)
		}
		return thrown(ex)
	}
	return err
}

// goError returns the Go error carried by a value thrown from a native
// function, if any.
func goError(v goja.Value) (err error) {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	defer func() {
		// a getter on the thrown object threw while being read
		if recover() != nil {
			err = nil
		}
	}()
	inner := obj.Get("value")
	if inner == nil {
		return nil
	}
	err, _ = inner.Export().(error)
	return err
}

func thrown(ex *goja.Exception) *script.ThrownError {
	msg := "undefined"
	if v := ex.Value(); v != nil {
		msg = v.String()
	}
	return &script.ThrownError{Message: msg, Stack: ex.String()}
}

func attachStack(cause error, ex *goja.Exception) error {
	var failure *assert.Failure
	if errors.As(cause, &failure) {
		return &assert.Failure{Message: failure.Message, Stack: ex.String()}
	}
	return &script.ThrownError{Message: cause.Error(), Stack: ex.String()}
}
