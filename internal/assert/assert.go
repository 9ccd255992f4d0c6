// Package assert implements the assertion helpers exposed to test scripts:
// fail, assertEquals, assertTrue, assertNotNull, assertNull, assertSame,
// assertNotSame and assertMatches. Script engines bind these names as
// builtins and supply the value semantics through Operations.
package assert

import "fmt"

// Failure is raised by fail() and by a failing assert* helper. The execution
// engine reports it as a FAILURE rather than an ERROR.
type Failure struct {
	Message string
	// Stack is the script backtrace at the failing call, when the engine
	// provides one.
	Stack string
}

func (f *Failure) Error() string {
	return f.Message
}

// Failf returns a Failure with a formatted message.
func Failf(format string, args ...any) *Failure {
	return &Failure{Message: fmt.Sprintf(format, args...)}
}

// Names lists the helper builtins in the order engines register them.
var Names = []string{
	"fail",
	"assertEquals",
	"assertTrue",
	"assertNotNull",
	"assertNull",
	"assertSame",
	"assertNotSame",
	"assertMatches",
}

// Operations supplies engine value semantics to the helpers.
type Operations[V any] interface {
	// String converts a value the way string concatenation does in the script language.
	String(v V) string
	// Equal is the language's loose equality.
	Equal(a, b V) bool
	// Same is identity (strict equality).
	Same(a, b V) bool
	Truthy(v V) bool
	IsNull(v V) bool
	Matches(pattern, value V) (bool, error)
}

// Helpers evaluates helper calls against one engine's values.
type Helpers[V any] struct {
	ops     Operations[V]
	missing V
}

// NewHelpers returns Helpers using ops. missing stands in for absent arguments
// (undefined, None).
func NewHelpers[V any](ops Operations[V], missing V) *Helpers[V] {
	return &Helpers[V]{ops: ops, missing: missing}
}

// Call runs the named helper. It returns a *Failure when the assertion does
// not hold, another error when the helper itself could not be evaluated, and
// nil otherwise.
func (h *Helpers[V]) Call(name string, args []V) error {
	switch name {
	case "fail":
		if len(args) > 0 && !h.ops.IsNull(args[0]) {
			return &Failure{Message: h.ops.String(args[0])}
		}
		return &Failure{}
	case "assertEquals":
		prefix, ops := h.split(args, 2)
		if !h.ops.Equal(ops[0], ops[1]) {
			return Failf("%sexpected:<%s> but was:<%s>", prefix, h.ops.String(ops[0]), h.ops.String(ops[1]))
		}
	case "assertTrue":
		msg, v, ok := h.message(args)
		if ok && !h.ops.Truthy(v) {
			return &Failure{Message: msg}
		}
	case "assertNotNull":
		msg, v, ok := h.message(args)
		if ok && h.ops.IsNull(v) {
			return &Failure{Message: msg}
		}
	case "assertNull":
		msg, v, ok := h.message(args)
		if ok && !h.ops.IsNull(v) {
			return &Failure{Message: msg}
		}
	case "assertSame":
		prefix, ops := h.split(args, 2)
		if !h.ops.Same(ops[0], ops[1]) {
			return Failf("%sexpected same:<%s> but was:<%s>", prefix, h.ops.String(ops[0]), h.ops.String(ops[1]))
		}
	case "assertNotSame":
		prefix, ops := h.split(args, 2)
		if h.ops.Same(ops[0], ops[1]) {
			return Failf("%sexpected not same", prefix)
		}
	case "assertMatches":
		prefix, ops := h.split(args, 2)
		ok, err := h.ops.Matches(ops[0], ops[1])
		if err != nil {
			return fmt.Errorf("assertMatches: %w", err)
		}
		if !ok {
			return Failf("%sexpected match:<%s> but was:<%s>", prefix, h.ops.String(ops[0]), h.ops.String(ops[1]))
		}
	default:
		return fmt.Errorf("unknown assertion helper %q", name)
	}
	return nil
}

// split separates the optional leading message from base operands. The
// message is only present when more than base arguments were passed.
func (h *Helpers[V]) split(args []V, base int) (string, []V) {
	prefix := ""
	if len(args) > base {
		prefix = h.ops.String(args[0]) + " "
		args = args[1:]
	}
	ops := make([]V, base)
	for i := range ops {
		if i < len(args) {
			ops[i] = args[i]
		} else {
			ops[i] = h.missing
		}
	}
	return prefix, ops
}

// message handles the single-operand helpers, whose failure message is the
// caller's message alone. Called without arguments they never fail.
func (h *Helpers[V]) message(args []V) (string, V, bool) {
	switch len(args) {
	case 0:
		return "", h.missing, false
	case 1:
		return "", args[0], true
	default:
		return h.ops.String(args[0]), args[1], true
	}
}
