package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"jsunit/internal/domain"
)

// Failure and error types named in XML reports.
const (
	FailureType = "AssertionFailure"
	ErrorType   = "Error"
)

// Writer writes the plain text and XML report files of each test file.
type Writer struct {
	todir      string
	properties map[string]string
}

// NewWriter returns a Writer creating reports in todir. properties are
// recorded in every XML report.
func NewWriter(todir string, properties map[string]string) *Writer {
	return &Writer{todir: todir, properties: properties}
}

// Dir is the report directory.
func (w *Writer) Dir() string {
	return w.todir
}

// Write creates TEST-<name>.txt and TEST-<name>.xml for result.
func (w *Writer) Write(result domain.TestResult) error {
	if err := os.MkdirAll(w.todir, 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	base := filepath.Join(w.todir, "TEST-"+result.File.Name)
	if err := writeFile(base+".txt", func(out io.Writer) error {
		WritePlain(out, result)
		return nil
	}); err != nil {
		return err
	}
	return writeFile(base+".xml", func(out io.Writer) error {
		return w.WriteXML(out, result)
	})
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return f.Close()
}

// Summary prints the console summary of one file: a header, the counts and
// every failing test.
func Summary(out io.Writer, result domain.TestResult) {
	run, failures, errs := result.Counts()
	fmt.Fprintf(out, "Running %s\n", result.File.Name)

	stats := color.New(color.FgGreen)
	if failures+errs > 0 || result.Error != nil {
		stats = color.New(color.FgRed)
	}
	stats.Fprintf(out, "Tests run: %d, Failures: %d, Errors: %d, Time elapsed: %.3f\n",
		run, failures, errs, result.Duration.Seconds())

	for _, c := range result.Cases {
		for _, o := range c.Outcomes {
			switch o.Kind {
			case domain.OutcomeFailure:
				fmt.Fprintf(out, "Test %s\n\t%s %s\n", c.Name, color.RedString("FAILED:"), o.Message)
			case domain.OutcomeError:
				fmt.Fprintf(out, "Test %s\n\t%s %s\n", c.Name, color.RedString("ERROR:"), detail(o))
			}
		}
	}
	if result.Error != nil {
		color.New(color.FgRed).Fprintf(out, "%v\n", result.Error)
	}
}

// WritePlain writes the plain text report.
func WritePlain(out io.Writer, result domain.TestResult) {
	run, failures, errs := result.Counts()
	fmt.Fprintf(out, "Testsuite: %s\n", result.File.Name)
	fmt.Fprintf(out, "Tests run: %d, Failures: %d, Errors: %d, Time elapsed: %.3f\n\n",
		run, failures, errs, result.Duration.Seconds())

	for _, c := range result.Cases {
		fmt.Fprintf(out, "Testcase: %s took %.3f sec\n", c.Name, c.Duration.Seconds())
		for _, o := range c.Outcomes {
			switch o.Kind {
			case domain.OutcomeFailure:
				fmt.Fprintln(out, "\tFAILED")
				fmt.Fprintln(out, detail(o))
			case domain.OutcomeError:
				fmt.Fprintln(out, "\tCaused an ERROR")
				fmt.Fprintln(out, detail(o))
			}
		}
	}
	if result.Error != nil {
		fmt.Fprintf(out, "\n%v\n", result.Error)
	}
}

type xmlSuite struct {
	XMLName    xml.Name      `xml:"testsuite"`
	Name       string        `xml:"name,attr"`
	Skipped    int           `xml:"skipped,attr"`
	Tests      int           `xml:"tests,attr"`
	Errors     int           `xml:"errors,attr"`
	Time       string        `xml:"time,attr"`
	Failures   int           `xml:"failures,attr"`
	Properties []xmlProperty `xml:"properties>property"`
	Cases      []xmlCase     `xml:"testcase"`
	SystemOut  string        `xml:"system-out,omitempty"`
}

type xmlProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type xmlCase struct {
	Classname string      `xml:"classname,attr"`
	Name      string      `xml:"name,attr"`
	Time      string      `xml:"time,attr"`
	Failure   *xmlOutcome `xml:"failure,omitempty"`
	Error     *xmlOutcome `xml:"error,omitempty"`
}

type xmlOutcome struct {
	Type    string `xml:"type,attr"`
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

// WriteXML writes the JUnit style XML report. A test carries its first
// failure, or its first error when it did not fail an assertion.
func (w *Writer) WriteXML(out io.Writer, result domain.TestResult) error {
	run, failures, errs := result.Counts()
	suite := xmlSuite{
		Name:      result.File.Name,
		Tests:     run,
		Errors:    errs,
		Time:      seconds(result.Duration.Seconds()),
		Failures:  failures,
		SystemOut: result.Output,
	}

	keys := make([]string, 0, len(w.properties))
	for k := range w.properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		suite.Properties = append(suite.Properties, xmlProperty{Name: k, Value: w.properties[k]})
	}

	for _, c := range result.Cases {
		tc := xmlCase{Classname: c.Name, Name: c.Name, Time: seconds(c.Duration.Seconds())}
		for _, o := range c.Outcomes {
			switch {
			case o.Kind == domain.OutcomeFailure && tc.Failure == nil:
				tc.Failure = &xmlOutcome{Type: FailureType, Message: o.Message, Body: detail(o)}
			case o.Kind == domain.OutcomeError && tc.Error == nil:
				tc.Error = &xmlOutcome{Type: ErrorType, Message: o.Message, Body: detail(o)}
			}
		}
		if tc.Failure != nil {
			tc.Error = nil
		}
		suite.Cases = append(suite.Cases, tc)
	}

	if _, err := io.WriteString(out, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(out)
	enc.Indent("", "  ")
	if err := enc.Encode(suite); err != nil {
		return err
	}
	_, err := io.WriteString(out, "\n")
	return err
}

func seconds(s float64) string {
	return fmt.Sprintf("%.3f", s)
}

// detail is the outcome message with its stack. Engines usually put the
// message on the first line of the stack already.
func detail(o domain.Outcome) string {
	switch {
	case o.Stack == "":
		return o.Message
	case strings.Contains(o.Stack, o.Message):
		return o.Stack
	default:
		return o.Message + "\n" + o.Stack
	}
}
