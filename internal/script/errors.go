package script

import (
	"bytes"
	"fmt"
	"strings"
)

// LoadError reports a file that could not be parsed or evaluated.
type LoadError struct {
	Path   string
	Line   int // 1-based; 0 when unknown
	Column int // 1-based; 0 when unknown
	// Source is the offending source line, when known.
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("Error loading script file: ")
	b.WriteString(e.Path)
	if e.Line == 0 {
		if e.Err != nil {
			fmt.Fprintf(&b, ": %v", e.Err)
		}
		return b.String()
	}
	fmt.Fprintf(&b, "\n%q, line %d: %v", e.Path, e.Line, e.Err)
	if e.Source != "" {
		b.WriteString("\n")
		b.WriteString(e.Source)
		if e.Column > 0 {
			b.WriteString("\n")
			b.WriteString(strings.Repeat(".", e.Column-1))
			b.WriteString("^")
		}
	}
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ThrownError is a value thrown by script code that is not an assertion
// failure.
type ThrownError struct {
	// Message is the thrown value converted to a string.
	Message string
	// Stack is the engine's backtrace, possibly empty.
	Stack string
}

func (e *ThrownError) Error() string {
	return e.Message
}

// SourceLine returns the 1-based line of src, without its line terminator.
func SourceLine(src []byte, line int) string {
	if line < 1 {
		return ""
	}
	lines := bytes.Split(src, []byte("\n"))
	if line > len(lines) {
		return ""
	}
	return strings.TrimRight(string(lines[line-1]), "\r")
}
