// Package script defines the boundary between test discovery and the
// scripting engines that load test files. Discovery only ever sees the
// engine-neutral Namespace, Instance and Value types declared here.
package script

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Kind is the runtime shape of a value as far as discovery is concerned.
type Kind int

const (
	// Primitive is anything that is neither callable nor a structured object.
	Primitive Kind = iota
	// Callable values can be invoked, and invoked as zero-argument constructors.
	Callable
	// Object values expose enumerable members.
	Object
)

func (k Kind) String() string {
	switch k {
	case Callable:
		return "callable"
	case Object:
		return "object"
	default:
		return "primitive"
	}
}

// Value is a named value in a Namespace or a member of an Instance.
type Value interface {
	Kind() Kind
	// TypeName is the engine's own name for the value's type, used in diagnostics.
	TypeName() string
}

// Instance is an object test callables execute against.
type Instance interface {
	// Members returns own and inherited member names in a stable order.
	Members() []string
	// Member returns the named member, or nil when it is absent. Reading a
	// member can run script code (a JavaScript getter); what it throws is
	// returned as the error.
	Member(name string) (Value, error)
	// Invoke calls the named member with no arguments and the instance as receiver.
	Invoke(name string) error
}

// Namespace is the set of names defined by loading one file. It is itself an
// Instance: global test functions run against it.
type Namespace interface {
	Instance
	Path() string
	// Inspect returns the instance whose members describe a suite candidate:
	// callables are constructed with no arguments, objects are used as is.
	Inspect(v Value) (Instance, error)
	// Derive returns a fresh instance for a single test invocation:
	// callables are constructed again, objects are extended through their
	// prototype so per-test state never reaches the original.
	Derive(v Value) (Instance, error)
}

// Loader evaluates test files. Each call produces an independent Namespace.
type Loader interface {
	// Load evaluates the file at path in a fresh runtime, writing script
	// print output to stdout. When evaluation fails part way through the
	// returned Namespace (possibly nil) holds what was defined before the
	// failure and the error is a *LoadError. The runtime is interrupted when
	// ctx is done.
	Load(ctx context.Context, path string, stdout io.Writer) (Namespace, error)
}

// Registry dispatches Load to a Loader chosen by file extension.
type Registry struct {
	loaders map[string]Loader
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]Loader)}
}

// Register binds ext (with leading dot) to loader.
func (r *Registry) Register(ext string, loader Loader) {
	r.loaders[strings.ToLower(ext)] = loader
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether path has a registered extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.loaders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load implements Loader.
func (r *Registry) Load(ctx context.Context, path string, stdout io.Writer) (Namespace, error) {
	loader, ok := r.loaders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, &LoadError{
			Path: path,
			Err:  fmt.Errorf("no script engine for %q files", filepath.Ext(path)),
		}
	}
	if stdout == nil {
		stdout = io.Discard
	}
	return loader.Load(ctx, path, stdout)
}

// Resolve finds name relative to the directory of the script file first,
// then relative to baseDir.
func Resolve(file, baseDir, name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}
	candidates := []string{filepath.Join(filepath.Dir(file), name)}
	if baseDir != "" {
		candidates = append(candidates, filepath.Join(baseDir, name))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("file not found: %s", name)
}
