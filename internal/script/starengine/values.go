package starengine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"jsunit/internal/script"
)

// value adapts a starlark.Value to script.Value.
type value struct {
	v starlark.Value
}

func (v value) Kind() script.Kind {
	switch v.v.(type) {
	case starlark.Callable:
		return script.Callable
	case *starlarkstruct.Struct, *starlarkstruct.Module, *starlark.Dict:
		return script.Object
	default:
		return script.Primitive
	}
}

func (v value) TypeName() string {
	return v.v.Type()
}

// fields is the member table behind an instance.
type fields interface {
	names() []string
	get(name string) (starlark.Value, error)
}

type globalFields struct {
	order   []string
	globals starlark.StringDict
}

// names lists globals in order of first definition, then any globals the
// order does not know about, sorted.
func (g globalFields) names() []string {
	names := make([]string, 0, len(g.globals))
	seen := make(map[string]bool, len(g.order))
	for _, name := range g.order {
		if _, ok := g.globals[name]; ok && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	var rest []string
	for name := range g.globals {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func (g globalFields) get(name string) (starlark.Value, error) {
	return g.globals[name], nil
}

// attrFields serves structs and modules. Their attribute names are sorted.
type attrFields struct {
	v starlark.HasAttrs
}

func (a attrFields) names() []string {
	return a.v.AttrNames()
}

func (a attrFields) get(name string) (starlark.Value, error) {
	v, err := a.v.Attr(name)
	var missing starlark.NoSuchAttrError
	if errors.As(err, &missing) {
		return nil, nil
	}
	return v, err
}

// dictFields serves dicts keyed by strings, in insertion order.
type dictFields struct {
	d *starlark.Dict
}

func (d dictFields) names() []string {
	var names []string
	for _, k := range d.d.Keys() {
		if s, ok := starlark.AsString(k); ok {
			names = append(names, s)
		}
	}
	return names
}

func (d dictFields) get(name string) (starlark.Value, error) {
	v, found, err := d.d.Get(starlark.String(name))
	if err != nil || !found {
		return nil, err
	}
	return v, nil
}

// instance invokes members on the namespace's thread. Starlark has no
// receiver, so members are called with no arguments.
type instance struct {
	ns *namespace
	f  fields
}

func (i instance) Members() []string {
	return i.f.names()
}

func (i instance) Member(name string) (script.Value, error) {
	v, err := i.f.get(name)
	if err != nil || v == nil {
		return nil, err
	}
	return value{v: v}, nil
}

func (i instance) Invoke(name string) error {
	v, err := i.f.get(name)
	if err != nil {
		return err
	}
	fn, ok := v.(starlark.Callable)
	if !ok {
		return fmt.Errorf("%s is not callable", name)
	}
	_, err = starlark.Call(i.ns.thread, fn, nil, nil)
	return i.ns.convert(err)
}

// namespace holds the globals of one file.
type namespace struct {
	ctx         context.Context
	path        string
	thread      *starlark.Thread
	predeclared starlark.StringDict
	globals     starlark.StringDict
	order       []string
}

func (n *namespace) self() instance {
	return instance{ns: n, f: globalFields{order: n.order, globals: n.globals}}
}

func (n *namespace) Members() []string {
	return n.self().Members()
}

func (n *namespace) Member(name string) (script.Value, error) {
	return n.self().Member(name)
}

func (n *namespace) Invoke(name string) error {
	return n.self().Invoke(name)
}

func (n *namespace) Path() string {
	return n.path
}

// Inspect calls a suite function with no arguments; structs and dicts are
// used as they are.
func (n *namespace) Inspect(v script.Value) (script.Instance, error) {
	sv, ok := v.(value)
	if !ok {
		return nil, fmt.Errorf("value %v does not belong to %s", v, n.path)
	}
	if fn, ok := sv.v.(starlark.Callable); ok {
		res, err := starlark.Call(n.thread, fn, nil, nil)
		if err != nil {
			return nil, n.convert(err)
		}
		sv = value{v: res}
	}
	return n.wrap(sv.v)
}

// Derive calls suite functions again and copies dicts, so entries a test
// stores never reach the original. Structs are immutable and shared.
func (n *namespace) Derive(v script.Value) (script.Instance, error) {
	sv, ok := v.(value)
	if !ok {
		return nil, fmt.Errorf("value %v does not belong to %s", v, n.path)
	}
	if d, ok := sv.v.(*starlark.Dict); ok {
		cp := starlark.NewDict(d.Len())
		for _, item := range d.Items() {
			if err := cp.SetKey(item[0], item[1]); err != nil {
				return nil, err
			}
		}
		return n.wrap(cp)
	}
	return n.Inspect(v)
}

func (n *namespace) wrap(v starlark.Value) (script.Instance, error) {
	switch v := v.(type) {
	case *starlark.Dict:
		return instance{ns: n, f: dictFields{d: v}}, nil
	case *starlarkstruct.Struct, *starlarkstruct.Module:
		return instance{ns: n, f: attrFields{v: v.(starlark.HasAttrs)}}, nil
	default:
		return nil, fmt.Errorf("suite value is a %s, not a struct or dict", v.Type())
	}
}

func (n *namespace) newThread(name string, stdout io.Writer, m *modules) *starlark.Thread {
	return &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(stdout, msg)
		},
		Load: m.load,
	}
}
