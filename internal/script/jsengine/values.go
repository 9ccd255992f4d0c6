package jsengine

import (
	"fmt"

	"github.com/dop251/goja"

	"jsunit/internal/script"
)

const (
	keysSrc   = `(function (o) { var k = []; for (var p in o) k.push(p); return k; })`
	typeOfSrc = `(function (v) { return v === null ? "null" : typeof v; })`
)

// runtime is one goja VM plus the helper functions compiled into it.
type runtime struct {
	vm     *goja.Runtime
	path   string
	keys   goja.Callable
	typeOf goja.Callable
}

func newRuntime(path string) (*runtime, error) {
	vm := goja.New()
	rt := &runtime{vm: vm, path: path}

	var err error
	if rt.keys, err = compile(vm, keysSrc); err != nil {
		return nil, err
	}
	if rt.typeOf, err = compile(vm, typeOfSrc); err != nil {
		return nil, err
	}
	return rt, nil
}

func compile(vm *goja.Runtime, src string) (goja.Callable, error) {
	v, err := vm.RunString(src)
	if err != nil {
		return nil, fmt.Errorf("compile helper: %w", err)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("helper %q is not a function", src)
	}
	return fn, nil
}

// value adapts a goja.Value to script.Value.
type value struct {
	rt *runtime
	v  goja.Value
}

func (v value) Kind() script.Kind {
	if _, ok := goja.AssertFunction(v.v); ok {
		return script.Callable
	}
	if _, ok := v.v.(*goja.Object); ok {
		return script.Object
	}
	return script.Primitive
}

func (v value) TypeName() string {
	name, err := v.rt.typeOf(goja.Undefined(), v.v)
	if err != nil {
		return "unknown"
	}
	return name.String()
}

// instance is a JavaScript object test methods are called on.
type instance struct {
	rt  *runtime
	obj *goja.Object
}

// Members returns the names a for-in loop visits: own enumerable properties
// first, then inherited ones.
func (i instance) Members() []string {
	res, err := i.rt.keys(goja.Undefined(), i.obj)
	if err != nil {
		return nil
	}
	var names []string
	if err := i.rt.vm.ExportTo(res, &names); err != nil {
		return nil
	}
	return names
}

func (i instance) Member(name string) (script.Value, error) {
	v, err := i.get(name)
	if err != nil || v == nil {
		return nil, err
	}
	return value{rt: i.rt, v: v}, nil
}

func (i instance) Invoke(name string) error {
	v, err := i.get(name)
	if err != nil {
		return err
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return fmt.Errorf("%s is not a function", name)
	}
	_, err = fn(i.obj)
	return convert(err)
}

// get reads a property. Accessors run script code, so the read happens
// inside the runtime's try block.
func (i instance) get(name string) (v goja.Value, err error) {
	err = i.rt.try(func() {
		v = i.obj.Get(name)
	})
	return v, err
}

// try runs f, returning what it throws instead of panicking.
func (rt *runtime) try(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*goja.InterruptedError)
			if !ok {
				panic(r)
			}
			err = convert(ie)
		}
	}()
	if ex := rt.vm.Try(f); ex != nil {
		return convert(ex)
	}
	return nil
}

// namespace is the global object of a runtime.
type namespace struct {
	instance
}

func (n *namespace) Path() string {
	return n.rt.path
}

func (n *namespace) Inspect(v script.Value) (script.Instance, error) {
	jv, err := n.unwrap(v)
	if err != nil {
		return nil, err
	}
	if _, ok := goja.AssertFunction(jv); ok {
		return n.construct(jv)
	}
	if obj, ok := jv.(*goja.Object); ok {
		return instance{rt: n.rt, obj: obj}, nil
	}
	return nil, fmt.Errorf("cannot inspect %s value", value{rt: n.rt, v: jv}.TypeName())
}

// Derive constructs callables again and wraps objects in a new object whose
// prototype is the original, so writes made by a test stay on the wrapper.
func (n *namespace) Derive(v script.Value) (script.Instance, error) {
	jv, err := n.unwrap(v)
	if err != nil {
		return nil, err
	}
	if _, ok := goja.AssertFunction(jv); ok {
		return n.construct(jv)
	}
	if obj, ok := jv.(*goja.Object); ok {
		return instance{rt: n.rt, obj: n.rt.vm.CreateObject(obj)}, nil
	}
	return nil, fmt.Errorf("cannot derive from %s value", value{rt: n.rt, v: jv}.TypeName())
}

func (n *namespace) construct(ctor goja.Value) (script.Instance, error) {
	obj, err := n.rt.vm.New(ctor)
	if err != nil {
		return nil, convert(err)
	}
	return instance{rt: n.rt, obj: obj}, nil
}

func (n *namespace) unwrap(v script.Value) (goja.Value, error) {
	jv, ok := v.(value)
	if !ok || jv.rt != n.rt {
		return nil, fmt.Errorf("value %v does not belong to %s", v, n.rt.path)
	}
	return jv.v, nil
}
