package starengine

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"jsunit/internal/assert"
	"jsunit/internal/script"
)

type builtins struct {
	ns      *namespace
	dir     string
	helpers *assert.Helpers[starlark.Value]
}

func newBuiltins(ns *namespace, dir string) *builtins {
	return &builtins{
		ns:      ns,
		dir:     dir,
		helpers: assert.NewHelpers[starlark.Value](ops{}, starlark.None),
	}
}

// dict returns the predeclared names of a test file. Predeclared names are
// not globals, so discovery never sees them.
func (b *builtins) dict() starlark.StringDict {
	d := starlark.StringDict{
		"struct":   starlark.NewBuiltin("struct", starlarkstruct.Make),
		"printf":   starlark.NewBuiltin("printf", b.printf),
		"readFile": starlark.NewBuiltin("readFile", b.readFile),
	}
	for _, name := range assert.Names {
		d[name] = starlark.NewBuiltin(name, b.assertion)
	}
	return d
}

func (b *builtins) assertion(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", fn.Name())
	}
	if err := b.helpers.Call(fn.Name(), args); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

// printf formats with Go verbs.
func (b *builtins) printf(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s: missing format", fn.Name())
	}
	format, ok := starlark.AsString(args[0])
	if !ok {
		return nil, fmt.Errorf("%s: format must be a string, got %s", fn.Name(), args[0].Type())
	}
	vals := make([]any, 0, len(args)-1)
	for _, arg := range args[1:] {
		vals = append(vals, export(arg))
	}
	return starlark.String(fmt.Sprintf(format, vals...)), nil
}

func (b *builtins) readFile(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	path, err := script.Resolve(b.ns.path, b.dir, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return starlark.String(data), nil
}

func export(v starlark.Value) any {
	switch v := v.(type) {
	case starlark.String:
		return string(v)
	case starlark.Bool:
		return bool(v)
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return i
		}
		return v.String()
	case starlark.Float:
		f := float64(v)
		if f == math.Trunc(f) && !math.IsInf(f, 0) {
			return int64(f)
		}
		return f
	case starlark.NoneType:
		return nil
	default:
		return v.String()
	}
}

// ops gives the assertion helpers Starlark value semantics.
type ops struct{}

func (ops) String(v starlark.Value) string {
	if s, ok := starlark.AsString(v); ok {
		return s
	}
	return v.String()
}

// Equal is ==, with ints and floats comparing by numeric value.
func (ops) Equal(a, b starlark.Value) bool {
	eq, err := starlark.Equal(a, b)
	return err == nil && eq
}

// Same compares references for mutable values and falls back to equality
// for immutable scalars, which have no identity in Starlark.
func (o ops) Same(a, b starlark.Value) bool {
	switch a.(type) {
	case *starlark.Dict, *starlark.List, *starlark.Set, *starlarkstruct.Struct, *starlark.Function, *starlark.Builtin:
		return a == b
	case starlark.String, starlark.Int, starlark.Float, starlark.Bool, starlark.NoneType:
		return a.Type() == b.Type() && o.Equal(a, b)
	default:
		return false
	}
}

func (ops) Truthy(v starlark.Value) bool {
	return bool(v.Truth())
}

func (ops) IsNull(v starlark.Value) bool {
	return v == starlark.None
}

// Matches applies a regular expression pattern (RE2 syntax) to the string
// form of value.
func (o ops) Matches(pattern, v starlark.Value) (bool, error) {
	p, ok := starlark.AsString(pattern)
	if !ok {
		return false, fmt.Errorf("pattern must be a string, got %s", pattern.Type())
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return false, err
	}
	return re.MatchString(o.String(v)), nil
}

// modules resolves load statements. Loaded files share the test file's
// predeclared names and are cached for the life of the namespace.
type modules struct {
	ns    *namespace
	dir   string
	cache map[string]*entry
}

type entry struct {
	globals starlark.StringDict
	err     error
}

func newModules(ns *namespace, dir string) *modules {
	return &modules{ns: ns, dir: dir, cache: make(map[string]*entry)}
}

func (m *modules) load(thread *starlark.Thread, module string) (starlark.StringDict, error) {
	from := m.ns.path
	if strings.HasPrefix(thread.Name, "load ") {
		from = strings.TrimPrefix(thread.Name, "load ")
	}
	path, err := script.Resolve(from, m.dir, module)
	if err != nil {
		return nil, err
	}

	e, ok := m.cache[path]
	if ok {
		if e == nil {
			return nil, fmt.Errorf("cycle in load graph at %s", module)
		}
		return e.globals, e.err
	}
	m.cache[path] = nil

	src, err := os.ReadFile(path)
	if err == nil {
		child := &starlark.Thread{Name: "load " + path, Print: thread.Print, Load: m.load}
		e = &entry{}
		e.globals, e.err = starlark.ExecFile(child, path, src, m.ns.predeclared)
	} else {
		e = &entry{err: err}
	}
	m.cache[path] = e
	return e.globals, e.err
}
