package parser

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"jsunit/internal/domain"
)

var (
	// at fn (calc_test.js:3:9(12))  or  at calc_test.js:3:9(12)
	gojaFrame = regexp.MustCompile(`^\s*at (?:(.+?) \()?(.+?):(\d+):(\d+)\(\d+\)\)?\s*$`)
	// at assertEquals (native)
	gojaNative = regexp.MustCompile(`^\s*at (?:.+? \()?native\)?\s*$`)
	// calc_test.star:3:5: in test_add
	starFrame = regexp.MustCompile(`^\s*(.+?):(\d+):(\d+): in (.+?)\s*$`)
	// <builtin>: in fail
	starBuiltin = regexp.MustCompile(`^\s*[^:\s]+: in .+$`)
	// SyntaxError: calc_test.js: Line 3:5 Unexpected token
	syntaxLine = regexp.MustCompile(`Line (\d+):(\d+)`)
)

// Frame is one call site of a script stack trace
type Frame struct {
	Function string
	File     string
	Line     int
	Column   int
}

func (f Frame) String() string {
	if f.Function == "" {
		return fmt.Sprintf("%s:%d:%d", f.File, f.Line, f.Column)
	}
	return fmt.Sprintf("%s (%s:%d:%d)", f.Function, f.File, f.Line, f.Column)
}

// StackParser parses the stack traces produced by the script engines
type StackParser struct{}

// NewStackParser creates a new StackParser
func NewStackParser() *StackParser {
	return &StackParser{}
}

// Frames extracts the script frames from stack, innermost first. Native and
// builtin frames are skipped.
func (p *StackParser) Frames(stack string) []Frame {
	var frames []Frame
	for _, line := range strings.Split(stack, "\n") {
		if m := gojaFrame.FindStringSubmatch(line); m != nil {
			frames = append(frames, frame(m[1], m[2], m[3], m[4]))
			continue
		}
		if m := starFrame.FindStringSubmatch(line); m != nil {
			frames = append(frames, frame(m[4], m[1], m[2], m[3]))
		}
	}
	// starlark prints the outermost call first
	if strings.Contains(stack, "Traceback (most recent call last)") {
		for i, j := 0, len(frames)-1; i < j; i, j = i+1, j-1 {
			frames[i], frames[j] = frames[j], frames[i]
		}
	}
	return frames
}

// Filter removes runner internal frames (native functions and builtins)
// from stack, keeping every other line.
func (p *StackParser) Filter(stack string) string {
	lines := strings.Split(stack, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if gojaNative.MatchString(line) {
			continue
		}
		if starBuiltin.MatchString(line) && !starFrame.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimRight(strings.Join(kept, "\n"), "\n")
}

// Locate returns the innermost frame located in file, matched by base name.
func (p *StackParser) Locate(stack, file string) (Frame, bool) {
	base := filepath.Base(file)
	for _, f := range p.Frames(stack) {
		if filepath.Base(f.File) == base {
			return f, true
		}
	}
	return Frame{}, false
}

// SyntaxLocation extracts the line and column from a JavaScript syntax error
// message.
func SyntaxLocation(msg string) (line, column int, ok bool) {
	m := syntaxLine.FindStringSubmatch(msg)
	if m == nil {
		return 0, 0, false
	}
	fmt.Sscanf(m[1], "%d", &line)
	fmt.Sscanf(m[2], "%d", &column)
	return line, column, true
}

// ParseFailure builds a TestFailure for every failure or error reported in
// result, locating each one in the test file through its stack.
func (p *StackParser) ParseFailure(result domain.TestResult) []domain.TestFailure {
	var failures []domain.TestFailure
	for _, c := range result.Cases {
		for _, o := range c.Outcomes {
			if o.Kind == domain.OutcomeSuccess {
				continue
			}
			failure := domain.TestFailure{
				TestName:   c.Name,
				FilePath:   result.File.FilePath,
				Kind:       o.Kind,
				StackTrace: []string{},
				Message:    o.Message,
			}
			for _, f := range p.Frames(o.Stack) {
				failure.StackTrace = append(failure.StackTrace, f.String())
			}
			if f, ok := p.Locate(o.Stack, result.File.Path); ok {
				failure.File = result.File.FilePath
				failure.Line = f.Line
			}
			failures = append(failures, failure)
		}
	}
	if result.Error != nil {
		failures = append(failures, domain.TestFailure{
			TestName:   result.File.Name,
			FilePath:   result.File.FilePath,
			Kind:       domain.OutcomeError,
			StackTrace: []string{},
			Message:    result.Error.Error(),
		})
	}
	return failures
}

func frame(fn, file, line, col string) Frame {
	f := Frame{Function: fn, File: file}
	fmt.Sscanf(line, "%d", &f.Line)
	fmt.Sscanf(col, "%d", &f.Column)
	return f
}
