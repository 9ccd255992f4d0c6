package discovery

import (
	"errors"

	"jsunit/internal/script"
)

// fakeValue is a script.Value for builder tests. Callables construct a fresh
// fakeObject through ctor; objects expose obj directly.
type fakeValue struct {
	kind     script.Kind
	typeName string
	call     func(this *fakeObject) error
	ctor     func() (*fakeObject, error)
	obj      *fakeObject
}

func (v *fakeValue) Kind() script.Kind { return v.kind }
func (v *fakeValue) TypeName() string  { return v.typeName }

func testFn(call func(this *fakeObject) error) *fakeValue {
	return &fakeValue{kind: script.Callable, typeName: "function", call: call}
}

func ctorFn(ctor func() (*fakeObject, error)) *fakeValue {
	return &fakeValue{kind: script.Callable, typeName: "function", ctor: ctor}
}

func objValue(o *fakeObject) *fakeValue {
	return &fakeValue{kind: script.Object, typeName: "object", obj: o}
}

func prim(typeName string) *fakeValue {
	return &fakeValue{kind: script.Primitive, typeName: typeName}
}

// fakeObject keeps members in insertion order plus free-form state.
type fakeObject struct {
	names  []string
	values map[string]script.Value
	broken map[string]error
	state  map[string]int
}

func newObject() *fakeObject {
	return &fakeObject{values: make(map[string]script.Value), state: make(map[string]int)}
}

func (o *fakeObject) set(name string, v script.Value) *fakeObject {
	if _, ok := o.values[name]; !ok {
		o.names = append(o.names, name)
	}
	o.values[name] = v
	return o
}

// unreadable adds a member whose read fails with err.
func (o *fakeObject) unreadable(name string, err error) *fakeObject {
	if o.broken == nil {
		o.broken = make(map[string]error)
	}
	o.names = append(o.names, name)
	o.broken[name] = err
	return o
}

func (o *fakeObject) Members() []string {
	return append([]string(nil), o.names...)
}

func (o *fakeObject) Member(name string) (script.Value, error) {
	if err, ok := o.broken[name]; ok {
		return nil, err
	}
	v, ok := o.values[name]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (o *fakeObject) Invoke(name string) error {
	v, ok := o.values[name].(*fakeValue)
	if !ok || v.call == nil {
		return errors.New(name + " is not a function")
	}
	return v.call(o)
}

// fakeNamespace counts constructions so tests can see instance lifetimes.
type fakeNamespace struct {
	*fakeObject
	path        string
	constructed int
	derived     int
}

func newNamespace(path string) *fakeNamespace {
	return &fakeNamespace{fakeObject: newObject(), path: path}
}

func (n *fakeNamespace) Path() string { return n.path }

func (n *fakeNamespace) Inspect(v script.Value) (script.Instance, error) {
	return n.instance(v)
}

func (n *fakeNamespace) Derive(v script.Value) (script.Instance, error) {
	n.derived++
	fv := v.(*fakeValue)
	if fv.obj != nil {
		child := newObject()
		for _, name := range fv.obj.names {
			child.set(name, fv.obj.values[name])
		}
		return child, nil
	}
	return n.instance(v)
}

func (n *fakeNamespace) instance(v script.Value) (script.Instance, error) {
	fv := v.(*fakeValue)
	if fv.ctor != nil {
		n.constructed++
		return fv.ctor()
	}
	if fv.obj != nil {
		return fv.obj, nil
	}
	return nil, errors.New("not a suite")
}
