package discovery

import (
	"fmt"

	"github.com/charmbracelet/log"

	"jsunit/internal/script"
	"jsunit/internal/suite"
)

// MaxSuiteDepth bounds suite nesting in the recursive dialect. It also stops
// suites that reach themselves through a member.
const MaxSuiteDepth = 16

// Dialect selects how suites are expanded and how instances are bound.
type Dialect string

const (
	// Flat expands suites one level deep and derives a fresh instance for
	// every test.
	Flat Dialect = "flat"
	// Recursive expands nested suites and runs every test of a suite on the
	// instance used to enumerate it.
	Recursive Dialect = "recursive"
)

// ParseDialect parses a dialect name. The empty string is Flat.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(s) {
	case "", Flat:
		return Flat, nil
	case Recursive:
		return Recursive, nil
	default:
		return "", fmt.Errorf("unknown dialect %q (want %s or %s)", s, Flat, Recursive)
	}
}

// Builder turns a loaded namespace into a test tree
type Builder struct {
	dialect Dialect
	logger  *log.Logger
}

// NewBuilder creates a new Builder for the given dialect
func NewBuilder(dialect Dialect, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{dialect: dialect, logger: logger}
}

// Dialect returns the builder's dialect.
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// Populate adds the tests and suites found in ns to root, in namespace
// order. Global tests run on the namespace itself.
func (b *Builder) Populate(root *suite.Composite, ns script.Namespace) {
	global := ns.Path() + ".global"
	for _, e := range Scan(ns) {
		if e.Err != nil {
			root.Add(unreadable(ns.Path(), e))
			continue
		}
		switch e.Label {
		case GlobalTestFunction:
			root.Add(suite.NewLeaf(global, e.Name, suite.Shared(ns)))
		case NamedSuiteCandidate:
			root.Add(b.candidate(ns, ns.Path()+"."+e.Name, e.Value, 1))
		}
	}
}

func (b *Builder) candidate(ns script.Namespace, name string, v script.Value, depth int) suite.Node {
	if k := v.Kind(); k != script.Callable && k != script.Object {
		return suite.Warning(name, fmt.Sprintf("Invalid object for TestSuite %s:%s", name, v.TypeName()))
	}
	if depth > MaxSuiteDepth {
		return suite.Warning(name, "TestSuite nesting too deep: "+name)
	}

	inspection, err := ns.Inspect(v)
	if err != nil {
		return suite.Warning(name, fmt.Sprintf("Error constructing TestSuite %s: %v", name, err))
	}

	c := suite.NewComposite(name)
	for _, e := range Scan(inspection) {
		if e.Err != nil {
			c.Add(unreadable(name, e))
			continue
		}
		switch e.Label {
		case GlobalTestFunction:
			c.Add(suite.NewLeaf(name, e.Name, b.binder(ns, v, inspection)))
		case NamedSuiteCandidate:
			if b.dialect == Recursive {
				c.Add(b.candidate(ns, name+"."+e.Name, e.Value, depth+1))
			}
		}
	}
	if c.CountTestCases() == 0 {
		c.Add(suite.Warning(name, "No tests found in "+name))
	}

	b.logger.Debug("suite built", "suite", name, "tests", c.CountTestCases(), "dialect", b.dialect)
	return c
}

func unreadable(suiteName string, e Entry) suite.Node {
	return suite.Warning(suiteName, fmt.Sprintf("Error reading %s.%s: %v", suiteName, e.Name, e.Err))
}

func (b *Builder) binder(ns script.Namespace, v script.Value, inspection script.Instance) suite.Binder {
	if b.dialect == Recursive {
		return suite.Shared(inspection)
	}
	return func() (script.Instance, error) {
		return ns.Derive(v)
	}
}
