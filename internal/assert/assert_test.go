package assert

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
)

// goOps is a minimal Operations over plain Go values.
type goOps struct{}

func (goOps) String(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(v)
}
func (goOps) Equal(a, b any) bool { return fmt.Sprint(a) == fmt.Sprint(b) }
func (goOps) Same(a, b any) bool  { return a == b }
func (goOps) Truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
func (goOps) IsNull(v any) bool { return v == nil }
func (goOps) Matches(pattern, value any) (bool, error) {
	re, err := regexp.Compile(fmt.Sprint(pattern))
	if err != nil {
		return false, err
	}
	return re.MatchString(fmt.Sprint(value)), nil
}

type missing struct{}

func TestHelpers_Call(t *testing.T) {
	h := NewHelpers[any](goOps{}, missing{})

	tests := []struct {
		name    string
		helper  string
		args    []any
		wantMsg string
		wantOK  bool
	}{
		{name: "equals passes", helper: "assertEquals", args: []any{2, 2}, wantOK: true},
		{name: "equals fails", helper: "assertEquals", args: []any{-2, 2}, wantMsg: "expected:<-2> but was:<2>"},
		{name: "equals with message", helper: "assertEquals", args: []any{"sum", 3, 2}, wantMsg: "sum expected:<3> but was:<2>"},
		{name: "true passes", helper: "assertTrue", args: []any{true}, wantOK: true},
		{name: "true fails without message", helper: "assertTrue", args: []any{false}, wantMsg: ""},
		{name: "true fails with message", helper: "assertTrue", args: []any{"3==2", false}, wantMsg: "3==2"},
		{name: "true without args passes", helper: "assertTrue", args: nil, wantOK: true},
		{name: "not null fails", helper: "assertNotNull", args: []any{"value", nil}, wantMsg: "value"},
		{name: "null passes", helper: "assertNull", args: []any{nil}, wantOK: true},
		{name: "null fails", helper: "assertNull", args: []any{1}, wantMsg: ""},
		{name: "same fails", helper: "assertSame", args: []any{1, 2}, wantMsg: "expected same:<1> but was:<2>"},
		{name: "not same fails", helper: "assertNotSame", args: []any{"m", 1, 1}, wantMsg: "m expected not same"},
		{name: "not same passes", helper: "assertNotSame", args: []any{1, 2}, wantOK: true},
		{name: "matches fails", helper: "assertMatches", args: []any{"^a", "b"}, wantMsg: "expected match:<^a> but was:<b>"},
		{name: "matches passes", helper: "assertMatches", args: []any{"^a", "abc"}, wantOK: true},
		{name: "fail with message", helper: "fail", args: []any{"boom"}, wantMsg: "boom"},
		{name: "fail without message", helper: "fail", args: nil, wantMsg: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.Call(tt.helper, tt.args)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			var f *Failure
			if !errors.As(err, &f) {
				t.Fatalf("expected *Failure, got %v", err)
			}
			if f.Message != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, f.Message)
			}
		})
	}
}

func TestHelpers_CallErrors(t *testing.T) {
	h := NewHelpers[any](goOps{}, missing{})

	t.Run("unknown helper", func(t *testing.T) {
		if err := h.Call("assertBogus", nil); err == nil {
			t.Error("expected error for unknown helper")
		}
	})

	t.Run("bad pattern is not a failure", func(t *testing.T) {
		err := h.Call("assertMatches", []any{"(", "x"})
		var f *Failure
		if err == nil || errors.As(err, &f) {
			t.Errorf("expected a non-failure error, got %v", err)
		}
	})
}
