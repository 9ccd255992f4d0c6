package jsengine

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/dop251/goja"

	"jsunit/internal/assert"
	"jsunit/internal/script"
)

// builtins installs the test scope functions on a runtime's global object.
// They are defined non-enumerable so discovery never sees them.
type builtins struct {
	rt      *runtime
	dir     string
	stdout  io.Writer
	helpers *assert.Helpers[goja.Value]
}

func (b *builtins) install() error {
	b.helpers = assert.NewHelpers[goja.Value](ops{vm: b.rt.vm}, goja.Undefined())

	fns := map[string]func(goja.FunctionCall) goja.Value{
		"load":     b.load,
		"print":    b.print,
		"printf":   b.printf,
		"readFile": b.readFile,
	}
	for _, name := range assert.Names {
		fns[name] = b.assertion(name)
	}

	global := b.rt.vm.GlobalObject()
	for name, fn := range fns {
		if err := global.DefineDataProperty(name, b.rt.vm.ToValue(fn), goja.FLAG_TRUE, goja.FLAG_TRUE, goja.FLAG_FALSE); err != nil {
			return fmt.Errorf("define %s: %w", name, err)
		}
	}
	return nil
}

func (b *builtins) assertion(name string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if err := b.helpers.Call(name, call.Arguments); err != nil {
			panic(b.rt.vm.NewGoError(err))
		}
		return goja.Undefined()
	}
}

// load evaluates another file into this runtime's global scope.
func (b *builtins) load(call goja.FunctionCall) goja.Value {
	for _, arg := range call.Arguments {
		path, err := b.resolve(arg.String())
		if err != nil {
			panic(b.rt.vm.NewGoError(err))
		}
		src, err := os.ReadFile(path)
		if err != nil {
			panic(b.rt.vm.NewGoError(err))
		}
		if _, err := b.rt.vm.RunScript(path, string(src)); err != nil {
			var ex *goja.Exception
			if errors.As(err, &ex) {
				panic(ex.Value())
			}
			panic(b.rt.vm.NewGoError(err))
		}
	}
	return goja.Undefined()
}

func (b *builtins) print(call goja.FunctionCall) goja.Value {
	parts := make([]string, len(call.Arguments))
	for i, arg := range call.Arguments {
		parts[i] = arg.String()
	}
	fmt.Fprintln(b.stdout, strings.Join(parts, " "))
	return goja.Undefined()
}

// printf formats with Go verbs. Integral numbers are passed as integers so
// %d works on any JavaScript number that holds one.
func (b *builtins) printf(call goja.FunctionCall) goja.Value {
	format := call.Argument(0).String()
	args := make([]any, 0, len(call.Arguments))
	for _, arg := range call.Arguments[min(1, len(call.Arguments)):] {
		v := arg.Export()
		if f, ok := v.(float64); ok && f == math.Trunc(f) && !math.IsInf(f, 0) {
			v = int64(f)
		}
		args = append(args, v)
	}
	return b.rt.vm.ToValue(fmt.Sprintf(format, args...))
}

func (b *builtins) readFile(call goja.FunctionCall) goja.Value {
	path, err := b.resolve(call.Argument(0).String())
	if err != nil {
		panic(b.rt.vm.NewGoError(err))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		panic(b.rt.vm.NewGoError(err))
	}
	return b.rt.vm.ToValue(string(data))
}

func (b *builtins) resolve(name string) (string, error) {
	return script.Resolve(b.rt.path, b.dir, name)
}

// ops gives the assertion helpers JavaScript value semantics.
type ops struct {
	vm *goja.Runtime
}

func (o ops) String(v goja.Value) string {
	if v == nil {
		return "undefined"
	}
	return v.String()
}

func (o ops) Equal(a, b goja.Value) bool {
	return a.Equals(b)
}

func (o ops) Same(a, b goja.Value) bool {
	return a.StrictEquals(b)
}

func (o ops) Truthy(v goja.Value) bool {
	return v.ToBoolean()
}

// IsNull is strict: undefined is not null.
func (o ops) IsNull(v goja.Value) bool {
	return goja.IsNull(v)
}

// Matches calls pattern.test(value). A string pattern is compiled with
// new RegExp first.
func (o ops) Matches(pattern, v goja.Value) (bool, error) {
	if goja.IsUndefined(pattern) || goja.IsNull(pattern) {
		return false, errors.New("missing pattern")
	}
	re, ok := pattern.(*goja.Object)
	if !ok {
		var err error
		if re, err = o.vm.New(o.vm.Get("RegExp"), pattern); err != nil {
			return false, err
		}
	}
	test, ok := goja.AssertFunction(re.Get("test"))
	if !ok {
		return false, fmt.Errorf("%s is not a regular expression", pattern.String())
	}
	res, err := test(re, v)
	if err != nil {
		return false, err
	}
	return res.ToBoolean(), nil
}
