// Package starengine loads Starlark test files. Each file gets its own
// thread and globals; suites are structs, dicts or functions returning one.
package starengine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"jsunit/internal/assert"
	"jsunit/internal/parser"
	"jsunit/internal/script"
)

// Extension is the file extension handled by the Loader.
const Extension = ".star"

// Loader evaluates Starlark test files.
type Loader struct {
	baseDir string
	logger  *log.Logger
	stack   *parser.StackParser
}

// NewLoader creates a Loader. load statements and readFile() resolve
// relative paths against the test file's directory first, then baseDir.
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
	ns := &namespace{ctx: ctx, path: path}
	ns.predeclared = newBuiltins(ns, l.baseDir).dict()
	ns.thread = ns.newThread(path, stdout, newModules(ns, l.baseDir))

	context.AfterFunc(ctx, func() {
		ns.thread.Cancel(ctx.Err().Error())
	})

	f, prog, err := starlark.SourceProgram(path, src, ns.predeclared.Has)
	if err != nil {
		return nil, l.loadError(path, src, err)
	}
	ns.order = definitionOrder(f)

	globals, err := prog.Init(ns.thread, ns.predeclared)
	ns.globals = globals
	if err != nil {
		return ns, l.loadError(path, src, err)
	}

	l.logger.Debug("script loaded", "path", path, "engine", "starlark", "took", time.Since(start))
	return ns, nil
}

func (l *Loader) loadError(path string, src []byte, err error) *script.LoadError {
	le := &script.LoadError{Path: path, Err: err}

	var syntaxErr syntax.Error
	var resolveErrs resolve.ErrorList
	var evalErr *starlark.EvalError
	switch {
	case errors.As(err, &syntaxErr):
		le.Line, le.Column = int(syntaxErr.Pos.Line), int(syntaxErr.Pos.Col)
		le.Err = errors.New(syntaxErr.Msg)
	case errors.As(err, &resolveErrs) && len(resolveErrs) > 0:
		le.Line, le.Column = int(resolveErrs[0].Pos.Line), int(resolveErrs[0].Pos.Col)
		le.Err = errors.New(resolveErrs[0].Msg)
	case errors.As(err, &evalErr):
		le.Err = &script.ThrownError{Message: evalErr.Msg, Stack: evalErr.Backtrace()}
		if f, ok := l.stack.Locate(evalErr.Backtrace(), path); ok {
			le.Line, le.Column = f.Line, f.Column
		}
	}
	le.Source = script.SourceLine(src, le.Line)
	return le
}

// definitionOrder lists top level names in the order the file binds them.
func definitionOrder(f *syntax.File) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(id *syntax.Ident) {
		if !seen[id.Name] {
			seen[id.Name] = true
			names = append(names, id.Name)
		}
	}
	for _, stmt := range f.Stmts {
		switch s := stmt.(type) {
		case *syntax.DefStmt:
			add(s.Name)
		case *syntax.LoadStmt:
			for _, id := range s.To {
				add(id)
			}
		case *syntax.AssignStmt:
			bindings(s.LHS, add)
		}
	}
	return names
}

func bindings(e syntax.Expr, add func(*syntax.Ident)) {
	switch e := e.(type) {
	case *syntax.Ident:
		add(e)
	case *syntax.TupleExpr:
		for _, x := range e.List {
			bindings(x, add)
		}
	case *syntax.ListExpr:
		for _, x := range e.List {
			bindings(x, add)
		}
	case *syntax.ParenExpr:
		bindings(e.X, add)
	}
}

// convert maps an error returned by a Starlark call to the error contract of
// script.Instance.Invoke.
func (n *namespace) convert(err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := n.ctx.Err(); ctxErr != nil {
		return fmt.Errorf("script interrupted: %v", ctxErr)
	}

	var evalErr *starlark.EvalError
	if !errors.As(err, &evalErr) {
		return err
	}
	var failure *assert.Failure
	if errors.As(err, &failure) {
		return &assert.Failure{Message: failure.Message, Stack: evalErr.Backtrace()}
	}
	return &script.ThrownError{Message: evalErr.Msg, Stack: evalErr.Backtrace()}
}
