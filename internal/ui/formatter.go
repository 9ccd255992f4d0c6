package ui

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"jsunit/internal/discovery"
	"jsunit/internal/domain"
	"jsunit/internal/suite"
)

// Formatter formats and displays output
type Formatter struct {
	discoverer *discovery.Discoverer
	out        io.Writer
}

// NewFormatter creates a new Formatter writing to the terminal. The
// discoverer is only needed to print test cases.
func NewFormatter(discoverer *discovery.Discoverer) *Formatter {
	return &Formatter{discoverer: discoverer, out: color.Output}
}

// SetOutput redirects the formatter's output
func (f *Formatter) SetOutput(w io.Writer) {
	f.out = w
}

var (
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	white  = color.New(color.FgWhite)
)

// PrintMetaStats displays the statistics of a stored run
func (f *Formatter) PrintMetaStats(output *domain.TestResultsOutput) {
	meta := output.Meta

	fmt.Fprint(f.out, "\n")
	cyan.Fprintln(f.out, "╔═══════════════════════════════════════════════════════════════╗")
	cyan.Fprintln(f.out, "║                    Test Execution Statistics                  ║")
	cyan.Fprintln(f.out, "╚═══════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(f.out)

	rows := []struct {
		label string
		value string
		c     *color.Color
	}{
		{"Total Test Files", fmt.Sprint(meta.TotalTestFiles), white},
		{"Passed Test Files", fmt.Sprint(meta.PassedTestFiles), green},
		{"Failed Test Files", fmt.Sprint(meta.FailedTestFiles), red},
		{"Total Test Cases", fmt.Sprint(meta.TotalTestCases), white},
		{"Failed Test Cases", fmt.Sprint(meta.FailedTestCases), red},
		{"Dialect", meta.Dialect, white},
		{"Duration", fmt.Sprintf("%.2fs", meta.DurationSeconds), white},
		{"Workers", fmt.Sprint(meta.Workers), white},
		{"Timestamp", meta.Timestamp, white},
	}

	fmt.Fprintln(f.out, "┌─────────────────────────────────┬─────────────────────────────┐")
	for i, row := range rows {
		fmt.Fprintf(f.out, "│ %-31s │ ", row.label)
		row.c.Fprintf(f.out, "%-27s", row.value)
		fmt.Fprintln(f.out, " │")
		if i < len(rows)-1 {
			fmt.Fprintln(f.out, "├─────────────────────────────────┼─────────────────────────────┤")
		}
	}
	fmt.Fprintln(f.out, "└─────────────────────────────────┴─────────────────────────────┘")

	fmt.Fprintln(f.out)
	if meta.FailedTestFiles == 0 {
		green.Fprintln(f.out, "✓ All tests passed!")
		return
	}
	red.Fprintf(f.out, "✗ %d test file(s) failed with %d test case failure(s)\n", meta.FailedTestFiles, meta.FailedTestCases)
	fmt.Fprintln(f.out)
	f.printFailedTestsTree(output.Details)
}

// TreeNode is a directory or file in the failure tree
type TreeNode struct {
	Name     string
	Children map[string]*TreeNode
	Failures []domain.TestFailure
	IsFile   bool
}

// printFailedTestsTree prints failures grouped by directory and file
func (f *Formatter) printFailedTestsTree(failures []domain.TestFailure) {
	if len(failures) == 0 {
		return
	}

	root := &TreeNode{Children: make(map[string]*TreeNode)}
	for _, failure := range failures {
		parts := strings.Split(strings.TrimPrefix(failure.FilePath, "./"), "/")
		current := root
		for i, part := range parts {
			if part == "" {
				continue
			}
			child := current.Children[part]
			if child == nil {
				child = &TreeNode{Name: part, Children: make(map[string]*TreeNode), IsFile: i == len(parts)-1}
				current.Children[part] = child
			}
			current = child
		}
		current.Failures = append(current.Failures, failure)
	}

	f.printTreeNode(root, "")
}

func (f *Formatter) printTreeNode(node *TreeNode, prefix string) {
	keys := make([]string, 0, len(node.Children))
	for key := range node.Children {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for i, key := range keys {
		child := node.Children[key]
		connector, indent := branch(i == len(keys)-1)

		if child.IsFile {
			yellow.Fprintf(f.out, "%s%s%s\n", prefix, connector, child.Name)
			for j, failure := range child.Failures {
				caseConnector, _ := branch(j == len(child.Failures)-1)
				label := failure.TestName
				if failure.Resolved {
					label += " (resolved)"
				}
				red.Fprintf(f.out, "%s%s%s\n", prefix+indent, caseConnector, label)
			}
			continue
		}
		cyan.Fprintf(f.out, "%s%s%s\n", prefix, connector, child.Name)
		f.printTreeNode(child, prefix+indent)
	}
}

// branch returns the connector for an entry and the indent for its children.
func branch(last bool) (string, string) {
	if last {
		return "└── ", "    "
	}
	return "├── ", "│   "
}

// CountTestCases returns the total number of tests across the given files.
func (f *Formatter) CountTestCases(ctx context.Context, files []domain.TestFile) int {
	total := 0
	for _, file := range files {
		total += f.discoverer.Discover(ctx, file.Path, nil).CountTestCases()
	}
	return total
}

// PrintTestList prints the test files, and with showTestCases the suite tree
// of each one with its test counts. Files in failedPaths (keyed by relative
// path) are marked [F].
func (f *Formatter) PrintTestList(ctx context.Context, files []domain.TestFile, showTestCases bool, failedPaths map[string]struct{}) {
	if showTestCases {
		green.Fprintf(f.out, "Found %d test file(s) with test cases:\n\n", len(files))
	} else {
		green.Fprintf(f.out, "Found %d test file(s):\n\n", len(files))
	}

	for i, file := range files {
		connector, indent := branch(i == len(files)-1)

		failMarker := ""
		if _, ok := failedPaths[file.FilePath]; ok {
			failMarker = " " + red.Sprint("[F]")
		}

		if !showTestCases {
			cyan.Fprintf(f.out, "%s%s", connector, file.FilePath)
			fmt.Fprintln(f.out, failMarker)
			continue
		}

		root := f.discoverer.Discover(ctx, file.Path, nil)
		cyan.Fprintf(f.out, "%s%s (%d)", connector, file.FilePath, root.CountTestCases())
		fmt.Fprintln(f.out, failMarker)
		f.printSuite(root, indent)

		if i < len(files)-1 {
			fmt.Fprintln(f.out)
		}
	}
}

// printSuite prints the children of c. Suites are shown by their own member
// name with their test count.
func (f *Formatter) printSuite(c *suite.Composite, prefix string) {
	children := c.Children()
	for i, child := range children {
		connector, indent := branch(i == len(children)-1)
		switch n := child.(type) {
		case *suite.Composite:
			name := strings.TrimPrefix(n.Name(), c.Name()+".")
			cyan.Fprintf(f.out, "%s%s%s (%d)\n", prefix, connector, name, n.CountTestCases())
			f.printSuite(n, prefix+indent)
		case *suite.Leaf:
			if msg, ok := n.Diagnostic(); ok {
				red.Fprintf(f.out, "%s%swarning: %s\n", prefix, connector, firstLine(msg))
				continue
			}
			yellow.Fprintf(f.out, "%s%s%s\n", prefix, connector, n.Name())
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
