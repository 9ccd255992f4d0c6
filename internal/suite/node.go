// Package suite holds the composite test tree built by discovery and the
// engine that executes it.
package suite

import (
	"fmt"

	"jsunit/internal/script"
)

// Node is a test tree node: a *Leaf or a *Composite.
type Node interface {
	Name() string
	// CountTestCases returns the number of leaves at or below the node.
	CountTestCases() int
	// Run executes the node depth-first, reporting outcomes to sink.
	Run(sink Sink)

	node()
}

// Binder yields the instance a leaf's callable runs against. It is called
// once per run of the leaf.
type Binder func() (script.Instance, error)

// Shared returns a Binder that always yields inst.
func Shared(inst script.Instance) Binder {
	return func() (script.Instance, error) {
		return inst, nil
	}
}

// Leaf is a single test: one callable member invoked on one instance. A leaf
// created with Warning is a diagnostic that always fails.
type Leaf struct {
	suite   string
	method  string
	bind    Binder
	warning string
	isDiag  bool
}

// NewLeaf returns a leaf that invokes method on the instance produced by bind.
func NewLeaf(suiteName, method string, bind Binder) *Leaf {
	return &Leaf{suite: suiteName, method: method, bind: bind}
}

// Warning returns a diagnostic leaf reporting message as a failure.
func Warning(suiteName, message string) *Leaf {
	return &Leaf{suite: suiteName, method: "warning", warning: message, isDiag: true}
}

// Name is the method name, or "warning" for diagnostics.
func (l *Leaf) Name() string {
	return l.method
}

// Suite is the name of the suite the leaf was discovered in.
func (l *Leaf) Suite() string {
	return l.suite
}

// String is the name outcomes are reported under: method(suite).
func (l *Leaf) String() string {
	return fmt.Sprintf("%s(%s)", l.method, l.suite)
}

// Diagnostic returns the fixed failure message of a diagnostic leaf.
func (l *Leaf) Diagnostic() (string, bool) {
	return l.warning, l.isDiag
}

func (l *Leaf) CountTestCases() int {
	return 1
}

func (l *Leaf) node() {}

// Composite is an ordered suite of nodes.
type Composite struct {
	name     string
	children []Node
}

// NewComposite creates an empty suite.
func NewComposite(name string) *Composite {
	return &Composite{name: name}
}

func (c *Composite) Name() string {
	return c.name
}

// Add appends n to the suite.
func (c *Composite) Add(n Node) {
	c.children = append(c.children, n)
}

// Children returns the suite's direct children in order.
func (c *Composite) Children() []Node {
	return append([]Node(nil), c.children...)
}

func (c *Composite) CountTestCases() int {
	count := 0
	for _, child := range c.children {
		count += child.CountTestCases()
	}
	return count
}

func (c *Composite) node() {}

// Walk visits n and its descendants depth-first, left to right. When fn
// returns false for a composite its children are skipped.
func Walk(n Node, fn func(n Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n Node, depth int, fn func(Node, int) bool) {
	if !fn(n, depth) {
		return
	}
	if c, ok := n.(*Composite); ok {
		for _, child := range c.children {
			walk(child, depth+1, fn)
		}
	}
}

// Leaves returns every leaf below n in execution order.
func Leaves(n Node) []*Leaf {
	var leaves []*Leaf
	Walk(n, func(n Node, _ int) bool {
		if l, ok := n.(*Leaf); ok {
			leaves = append(leaves, l)
		}
		return true
	})
	return leaves
}
