package ui

import (
	"fmt"
	"path"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"jsunit/internal/domain"
	"jsunit/internal/storage"
)

// maxStackLines is how many stack frames the details pane shows
const maxStackLines = 10

// fileScope labels failures reported on the file itself, such as load errors.
const fileScope = "(file)"

// failureGroup is the failures of one suite of one file, as indexes into the
// stored details.
type failureGroup struct {
	file  string
	suite string
	items []int
}

// groupFailures groups details by file, then by suite, both in order of
// first appearance.
func groupFailures(details []domain.TestFailure) []failureGroup {
	var groups []failureGroup
	index := make(map[[2]string]int)
	for i, f := range details {
		_, suite := splitTestName(f.TestName)
		key := [2]string{f.FilePath, suiteLabel(f.FilePath, suite)}
		g, ok := index[key]
		if !ok {
			g = len(groups)
			index[key] = g
			groups = append(groups, failureGroup{file: key[0], suite: key[1]})
		}
		groups[g].items = append(groups[g].items, i)
	}

	// keep each file's suites together
	var ordered []failureGroup
	done := make(map[string]bool)
	for _, g := range groups {
		if done[g.file] {
			continue
		}
		done[g.file] = true
		for _, h := range groups {
			if h.file == g.file {
				ordered = append(ordered, h)
			}
		}
	}
	return ordered
}

// splitTestName splits "method(suite)". Names without a suite come back whole.
func splitTestName(name string) (method, suite string) {
	open := strings.LastIndex(name, "(")
	if open <= 0 || !strings.HasSuffix(name, ")") {
		return name, ""
	}
	return name[:open], name[open+1 : len(name)-1]
}

// suiteLabel drops the script path from a suite name: ".../calc_test.js.CalcTest"
// is shown as "CalcTest" under its file.
func suiteLabel(filePath, suite string) string {
	base := path.Base(filePath)
	if suite == "" || strings.HasSuffix(suite, base) {
		return fileScope
	}
	if i := strings.LastIndex(suite, base+"."); i >= 0 {
		return suite[i+len(base)+1:]
	}
	return suite
}

// groupRef is the tree reference of a suite node; test nodes reference the
// failure index as a plain int.
type groupRef int

func (g failureGroup) unresolved(details []domain.TestFailure) int {
	n := 0
	for _, i := range g.items {
		if !details[i].Resolved {
			n++
		}
	}
	return n
}

// toggle flips every failure of the group: all become resolved unless all
// already are.
func (g failureGroup) toggle(details []domain.TestFailure) {
	mark := g.unresolved(details) > 0
	for _, i := range g.items {
		details[i].Resolved = mark
	}
}

func countUnresolved(details []domain.TestFailure) int {
	n := 0
	for _, f := range details {
		if !f.Resolved {
			n++
		}
	}
	return n
}

// ErrorViewer browses the failures of the last run as a file / suite / test
// tree
type ErrorViewer struct {
	storage storage.Storage
	logger  *log.Logger
}

// NewErrorViewer creates a new ErrorViewer. Resolved marks are written back
// through st.
func NewErrorViewer(st storage.Storage, logger *log.Logger) *ErrorViewer {
	if logger == nil {
		logger = log.Default()
	}
	return &ErrorViewer{storage: st, logger: logger}
}

// View opens the viewer over results. R marks the selected test resolved,
// or every test of the selected suite.
func (ev *ErrorViewer) View(results *domain.TestResultsOutput) error {
	details := results.Details
	if len(details) == 0 {
		color.Green("✓ No test failures found!")
		return nil
	}
	groups := groupFailures(details)

	app := tview.NewApplication()
	header := tview.NewTextView().SetTextAlign(tview.AlignCenter).SetDynamicColors(true)
	location := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	detailsView := tview.NewTextView().SetDynamicColors(true).SetWrap(true).SetWordWrap(true)
	detailsView.SetBorderPadding(0, 0, 1, 2)

	root := tview.NewTreeNode("failures").SetSelectable(false)
	tree := tview.NewTreeView().SetRoot(root).SetTopLevel(1)
	tree.SetGraphicsColor(tcell.ColorDarkCyan)

	var suiteNodes []*tview.TreeNode
	testNodes := make(map[int]*tview.TreeNode)
	var fileNode *tview.TreeNode
	for gi, g := range groups {
		if fileNode == nil || fileNode.GetReference() != g.file {
			fileNode = tview.NewTreeNode(tview.Escape(g.file)).
				SetReference(g.file).
				SetColor(tcell.ColorDarkCyan).
				SetSelectable(false)
			root.AddChild(fileNode)
		}
		suiteNode := tview.NewTreeNode("").SetReference(groupRef(gi))
		fileNode.AddChild(suiteNode)
		suiteNodes = append(suiteNodes, suiteNode)
		for _, i := range g.items {
			n := tview.NewTreeNode("").SetReference(i)
			suiteNode.AddChild(n)
			testNodes[i] = n
		}
	}

	refresh := func() {
		for gi, g := range groups {
			suiteNodes[gi].SetText(suiteText(g, details))
			for _, i := range g.items {
				testNodes[i].SetText(testText(details[i]))
			}
		}
		header.SetText(fmt.Sprintf(" %d failures, %d unresolved | ↑↓ move, [yellow]R[white] resolve test or suite, → details, ← back, Ctrl+C exit ",
			len(details), countUnresolved(details)))
	}

	// selected returns the failure under the cursor, or the group for a
	// suite node.
	selected := func() (failure int, group int) {
		node := tree.GetCurrentNode()
		if node == nil {
			return -1, -1
		}
		switch ref := node.GetReference().(type) {
		case groupRef:
			return -1, int(ref)
		case int:
			return ref, -1
		}
		return -1, -1
	}

	show := func() {
		failure, group := selected()
		switch {
		case failure >= 0:
			location.SetText(formatFailureStats(details[failure]))
			detailsView.SetText(formatFailureDetails(details[failure])).ScrollToBeginning()
		case group >= 0:
			g := groups[group]
			location.SetText(fmt.Sprintf("[cyan]%s[white] › [yellow]%s[white]", tview.Escape(g.file), tview.Escape(g.suite)))
			detailsView.SetText(formatGroupSummary(g, details)).ScrollToBeginning()
		}
	}

	tree.SetChangedFunc(func(*tview.TreeNode) { show() })
	tree.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyRight:
			if failure, _ := selected(); failure >= 0 {
				app.SetFocus(detailsView)
				return nil
			}
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() != 'r' && event.Rune() != 'R' {
				break
			}
			failure, group := selected()
			switch {
			case failure >= 0:
				details[failure].Resolved = !details[failure].Resolved
			case group >= 0:
				groups[group].toggle(details)
			default:
				return nil
			}
			refresh()
			show()
			if err := ev.storage.SaveOutput(results); err != nil {
				ev.logger.Error("failed to save resolved status", "err", err)
			}
			return nil
		}
		return event
	})
	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(tree)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(location, 2, 0, false).
		AddItem(detailsView, 0, 1, false)
	body := tview.NewFlex().
		AddItem(tree, 0, 1, true).
		AddItem(right, 0, 2, false)
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(header, 2, 0, false).
		AddItem(body, 0, 1, true)

	refresh()
	tree.SetCurrentNode(suiteNodes[0])
	show()

	if err := app.SetRoot(layout, true).SetFocus(tree).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func suiteText(g failureGroup, details []domain.TestFailure) string {
	open := g.unresolved(details)
	if open == 0 {
		return fmt.Sprintf("[gray]✓ %s (%d)[white]", tview.Escape(g.suite), len(g.items))
	}
	return fmt.Sprintf("[yellow]%s[white] (%d/%d)", tview.Escape(g.suite), open, len(g.items))
}

func testText(failure domain.TestFailure) string {
	method, _ := splitTestName(failure.TestName)
	if method == "" {
		method = "unnamed test"
	}
	method = tview.Escape(method)
	switch {
	case failure.Resolved:
		return "[gray]✓ " + method + "[white]"
	case failure.Kind == domain.OutcomeError:
		return "[red]E " + method + "[white]"
	default:
		return "[yellow]F[white] " + method
	}
}

// formatFailureDetails formats a test failure for display using tview color tags ([red], [cyan], etc.)
func formatFailureDetails(failure domain.TestFailure) string {
	var b strings.Builder

	label := "Failure"
	if failure.Kind == domain.OutcomeError {
		label = "Error"
	}
	fmt.Fprintf(&b, "[red]✗ %s: %s[white]\n\n", label, tview.Escape(failure.TestName))

	if failure.File != "" && failure.Line > 0 {
		fmt.Fprintf(&b, "[yellow]Location: %s:%d[white]\n\n", tview.Escape(failure.File), failure.Line)
	}
	if failure.Message != "" {
		fmt.Fprintf(&b, "[yellow]Message:[white]\n%s\n\n", tview.Escape(failure.Message))
	}

	if len(failure.StackTrace) > 0 {
		b.WriteString("[yellow]Stack Trace:[white]\n")
		for i, trace := range failure.StackTrace {
			if i >= maxStackLines {
				fmt.Fprintf(&b, "  [gray]... and %d more lines[white]\n", len(failure.StackTrace)-maxStackLines)
				break
			}
			fmt.Fprintf(&b, "  %s\n", tview.Escape(trace))
		}
	}

	return b.String()
}

// formatFailureStats is the location line above a test's details.
func formatFailureStats(failure domain.TestFailure) string {
	file := failure.FilePath
	if file == "" {
		file = "unknown file"
	}
	method, suite := splitTestName(failure.TestName)
	return fmt.Sprintf("[cyan]%s[white] › [yellow]%s[white] › %s",
		tview.Escape(file), tview.Escape(suiteLabel(file, suite)), tview.Escape(method))
}

// formatGroupSummary lists the first message of every test in a suite.
func formatGroupSummary(g failureGroup, details []domain.TestFailure) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[red]%d of %d unresolved[white]\n\n", g.unresolved(details), len(g.items))
	for _, i := range g.items {
		f := details[i]
		msg, _, _ := strings.Cut(f.Message, "\n")
		fmt.Fprintf(&b, "%s\n    %s\n", testText(f), tview.Escape(msg))
	}
	return b.String()
}
