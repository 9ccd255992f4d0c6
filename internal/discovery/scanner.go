package discovery

import (
	"strings"

	"jsunit/internal/script"
)

// Label classifies a named value found in a namespace or instance.
type Label int

const (
	Ignored Label = iota
	// GlobalTestFunction is a callable named test*. Found on a suite
	// instance it is a test method.
	GlobalTestFunction
	// NamedSuiteCandidate is named Test* or *Test, whatever its shape.
	NamedSuiteCandidate
)

func (l Label) String() string {
	switch l {
	case GlobalTestFunction:
		return "test"
	case NamedSuiteCandidate:
		return "suite"
	default:
		return "ignored"
	}
}

// Entry is one classified name. Err is set, and Value is nil, when reading
// a member that is named like a test or suite failed.
type Entry struct {
	Name  string
	Value script.Value
	Label Label
	Err   error
}

// Classify applies the naming rules in order: a callable named test* is a
// test, a name starting or ending with Test is a suite candidate, anything
// else is ignored.
func Classify(name string, v script.Value) Label {
	switch {
	case strings.HasPrefix(name, "test") && v.Kind() == script.Callable:
		return GlobalTestFunction
	case suiteName(name):
		return NamedSuiteCandidate
	default:
		return Ignored
	}
}

func suiteName(name string) bool {
	return strings.HasPrefix(name, "Test") || strings.HasSuffix(name, "Test")
}

// Scan classifies every member of inst in its enumeration order.
func Scan(inst script.Instance) []Entry {
	var entries []Entry
	for _, name := range inst.Members() {
		v, err := inst.Member(name)
		if err != nil {
			if strings.HasPrefix(name, "test") || suiteName(name) {
				entries = append(entries, Entry{Name: name, Err: err})
			}
			continue
		}
		if v == nil {
			continue
		}
		entries = append(entries, Entry{Name: name, Value: v, Label: Classify(name, v)})
	}
	return entries
}
