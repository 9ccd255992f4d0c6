package parser

import (
	"errors"
	"testing"

	"jsunit/internal/domain"
)

const gojaStack = `Error: boom
	at assertEquals (native)
	at helper (lib/util.js:4:3(7))
	at testAdd (math/calc_test.js:12:5(20))
	at math/calc_test.js:30:1(3)`

const starStack = `Traceback (most recent call last):
  math/calc_test.star:12:9: in test_add
  math/calc_test.star:3:14: in helper
  <builtin>: in fail
Error in fail: boom`

func TestStackParser_Frames(t *testing.T) {
	p := NewStackParser()

	tests := []struct {
		name  string
		stack string
		want  []Frame
	}{
		{
			name:  "goja",
			stack: gojaStack,
			want: []Frame{
				{Function: "helper", File: "lib/util.js", Line: 4, Column: 3},
				{Function: "testAdd", File: "math/calc_test.js", Line: 12, Column: 5},
				{File: "math/calc_test.js", Line: 30, Column: 1},
			},
		},
		{
			name:  "starlark innermost first",
			stack: starStack,
			want: []Frame{
				{Function: "helper", File: "math/calc_test.star", Line: 3, Column: 14},
				{Function: "test_add", File: "math/calc_test.star", Line: 12, Column: 9},
			},
		},
		{
			name:  "no frames",
			stack: "just a message",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Frames(tt.stack)
			if len(got) != len(tt.want) {
				t.Fatalf("Frames() returned %d frames, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("frame %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestStackParser_Filter(t *testing.T) {
	p := NewStackParser()

	got := p.Filter(gojaStack)
	want := `Error: boom
	at helper (lib/util.js:4:3(7))
	at testAdd (math/calc_test.js:12:5(20))
	at math/calc_test.js:30:1(3)`
	if got != want {
		t.Errorf("Filter(goja) =\n%s\nwant\n%s", got, want)
	}

	got = p.Filter(starStack)
	want = `Traceback (most recent call last):
  math/calc_test.star:12:9: in test_add
  math/calc_test.star:3:14: in helper
Error in fail: boom`
	if got != want {
		t.Errorf("Filter(starlark) =\n%s\nwant\n%s", got, want)
	}
}

func TestStackParser_Locate(t *testing.T) {
	p := NewStackParser()

	f, ok := p.Locate(gojaStack, "/abs/project/math/calc_test.js")
	if !ok {
		t.Fatal("Locate() found no frame")
	}
	if f.Line != 12 || f.Function != "testAdd" {
		t.Errorf("Locate() = %+v, want testAdd at line 12", f)
	}

	if _, ok := p.Locate(gojaStack, "other_test.js"); ok {
		t.Error("Locate() found a frame in a file absent from the stack")
	}
}

func TestSyntaxLocation(t *testing.T) {
	line, col, ok := SyntaxLocation("SyntaxError: calc_test.js: Line 3:5 Unexpected token )")
	if !ok || line != 3 || col != 5 {
		t.Errorf("SyntaxLocation() = %d, %d, %v; want 3, 5, true", line, col, ok)
	}
	if _, _, ok := SyntaxLocation("ReferenceError: x is not defined"); ok {
		t.Error("SyntaxLocation() matched a message without a location")
	}
}

func TestStackParser_ParseFailure(t *testing.T) {
	p := NewStackParser()
	result := domain.TestResult{
		File: domain.TestFile{
			Path:     "/abs/project/math/calc_test.js",
			FilePath: "math/calc_test.js",
			Name:     "jsunit.math.calc_test",
		},
		Cases: []domain.CaseResult{
			{Name: "testOk(math/calc_test.js.global)", Outcomes: []domain.Outcome{{Kind: domain.OutcomeSuccess}}},
			{
				Name: "testAdd(math/calc_test.js.global)",
				Outcomes: []domain.Outcome{
					{Kind: domain.OutcomeFailure, Message: "expected:<3> but was:<4>", Stack: gojaStack},
					{Kind: domain.OutcomeError, Message: "tearDown broke"},
				},
			},
		},
		Error: errors.New("timed out"),
	}

	failures := p.ParseFailure(result)
	if len(failures) != 3 {
		t.Fatalf("ParseFailure() returned %d failures, want 3", len(failures))
	}

	first := failures[0]
	if first.TestName != "testAdd(math/calc_test.js.global)" || first.Kind != domain.OutcomeFailure {
		t.Errorf("first failure = %+v", first)
	}
	if first.File != "math/calc_test.js" || first.Line != 12 {
		t.Errorf("first failure located at %s:%d, want math/calc_test.js:12", first.File, first.Line)
	}
	if len(first.StackTrace) != 3 {
		t.Errorf("first failure stack has %d frames, want 3", len(first.StackTrace))
	}

	if failures[1].Kind != domain.OutcomeError || failures[1].Line != 0 {
		t.Errorf("tearDown failure = %+v", failures[1])
	}
	if failures[2].TestName != "jsunit.math.calc_test" || failures[2].Message != "timed out" {
		t.Errorf("runner error failure = %+v", failures[2])
	}
}
