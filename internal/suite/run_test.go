package suite

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jsassert "jsunit/internal/assert"
	"jsunit/internal/script"
)

// recorder is a Sink that records every report in order.
type recorder struct {
	events []string
	stopAt int // stop once this many reports were made; 0 never stops
	traces map[string]string
}

func (r *recorder) ReportSuccess(name string) {
	r.events = append(r.events, "ok "+name)
}

func (r *recorder) ReportFailure(name, message string) {
	r.events = append(r.events, "fail "+name+": "+message)
}

func (r *recorder) ReportError(name string, cause error) {
	r.events = append(r.events, "error "+name+": "+cause.Error())
}

func (r *recorder) ShouldStop() bool {
	return r.stopAt > 0 && len(r.events) >= r.stopAt
}

func (r *recorder) TraceFailure(name, stack string) {
	if r.traces == nil {
		r.traces = make(map[string]string)
	}
	r.traces[name] = stack
}

type fn struct{}

func (fn) Kind() script.Kind { return script.Callable }
func (fn) TypeName() string  { return "function" }

// fakeInstance runs members from a map of Go funcs and logs invocations.
type fakeInstance struct {
	methods    map[string]func() error
	unreadable map[string]error
	log        *[]string
}

func (f *fakeInstance) Members() []string {
	var names []string
	for name := range f.methods {
		names = append(names, name)
	}
	return names
}

func (f *fakeInstance) Member(name string) (script.Value, error) {
	if err, ok := f.unreadable[name]; ok {
		return nil, err
	}
	if _, ok := f.methods[name]; ok {
		return fn{}, nil
	}
	return nil, nil
}

func (f *fakeInstance) Invoke(name string) error {
	*f.log = append(*f.log, name)
	return f.methods[name]()
}

func pass() error { return nil }

func TestLeaf_Run(t *testing.T) {
	failure := func() error { return &jsassert.Failure{Message: "expected:<1> but was:<2>", Stack: "at testA"} }
	broken := func() error { return errors.New("boom") }

	tests := []struct {
		name       string
		methods    map[string]func() error
		unreadable map[string]error
		wantCalls  []string
		want       []string
	}{
		{
			name:      "success",
			methods:   map[string]func() error{"testA": pass},
			wantCalls: []string{"testA"},
			want:      []string{"ok testA(S)"},
		},
		{
			name:      "assertion failure",
			methods:   map[string]func() error{"testA": failure},
			wantCalls: []string{"testA"},
			want:      []string{"fail testA(S): expected:<1> but was:<2>"},
		},
		{
			name:      "other error",
			methods:   map[string]func() error{"testA": broken},
			wantCalls: []string{"testA"},
			want:      []string{"error testA(S): boom"},
		},
		{
			name:      "hooks around body",
			methods:   map[string]func() error{"setUp": pass, "testA": pass, "tearDown": pass},
			wantCalls: []string{"setUp", "testA", "tearDown"},
			want:      []string{"ok testA(S)"},
		},
		{
			name:      "setUp failure is the only outcome",
			methods:   map[string]func() error{"setUp": broken, "testA": pass, "tearDown": pass},
			wantCalls: []string{"setUp"},
			want:      []string{"error testA(S): boom"},
		},
		{
			name:      "tearDown runs after a failing body",
			methods:   map[string]func() error{"testA": failure, "tearDown": pass},
			wantCalls: []string{"testA", "tearDown"},
			want:      []string{"fail testA(S): expected:<1> but was:<2>"},
		},
		{
			name:      "tearDown failure is an additional outcome",
			methods:   map[string]func() error{"testA": pass, "tearDown": broken},
			wantCalls: []string{"testA", "tearDown"},
			want:      []string{"ok testA(S)", "error testA(S): boom"},
		},
		{
			name:       "setUp that cannot be read is an error",
			methods:    map[string]func() error{"testA": pass},
			unreadable: map[string]error{"setUp": errors.New("Error: hook")},
			want:       []string{"error testA(S): Error: hook"},
		},
		{
			name:       "tearDown that cannot be read is an additional outcome",
			methods:    map[string]func() error{"testA": pass},
			unreadable: map[string]error{"tearDown": errors.New("Error: hook")},
			wantCalls:  []string{"testA"},
			want:       []string{"ok testA(S)", "error testA(S): Error: hook"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string
			inst := &fakeInstance{methods: tt.methods, unreadable: tt.unreadable, log: &calls}
			rec := &recorder{}

			NewLeaf("S", "testA", Shared(inst)).Run(rec)

			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.want, rec.events)
		})
	}
}

func TestLeaf_RunTracesFailures(t *testing.T) {
	var calls []string
	inst := &fakeInstance{
		methods: map[string]func() error{"testA": func() error { return &jsassert.Failure{Message: "m", Stack: "at testA"} }},
		log:     &calls,
	}
	rec := &recorder{}

	NewLeaf("S", "testA", Shared(inst)).Run(rec)

	assert.Equal(t, "at testA", rec.traces["testA(S)"])
}

func TestLeaf_RunRecoversPanics(t *testing.T) {
	var calls []string
	inst := &fakeInstance{
		methods: map[string]func() error{"testA": func() error { panic("kaboom") }},
		log:     &calls,
	}
	rec := &recorder{}

	NewLeaf("S", "testA", Shared(inst)).Run(rec)

	require.Len(t, rec.events, 1)
	assert.Contains(t, rec.events[0], "error testA(S): unexpected panic in test: kaboom")
}

func TestLeaf_RunBindError(t *testing.T) {
	rec := &recorder{}
	leaf := NewLeaf("S", "testA", func() (script.Instance, error) {
		return nil, errors.New("cannot construct")
	})

	leaf.Run(rec)

	assert.Equal(t, []string{"error testA(S): cannot construct"}, rec.events)
}

func TestLeaf_BinderCalledPerRun(t *testing.T) {
	built := 0
	var calls []string
	leaf := NewLeaf("S", "testA", func() (script.Instance, error) {
		built++
		return &fakeInstance{methods: map[string]func() error{"testA": pass}, log: &calls}, nil
	})

	leaf.Run(&recorder{})
	leaf.Run(&recorder{})

	assert.Equal(t, 2, built)
}

func TestWarning(t *testing.T) {
	rec := &recorder{}
	w := Warning("f.js", "No tests found in f.js")

	w.Run(rec)

	assert.Equal(t, "warning", w.Name())
	assert.Equal(t, 1, w.CountTestCases())
	msg, ok := w.Diagnostic()
	assert.True(t, ok)
	assert.Equal(t, "No tests found in f.js", msg)
	assert.Equal(t, []string{"fail warning(f.js): No tests found in f.js"}, rec.events)
}

// tree builds root{a, b, inner{c, d}, e} whose leaves all pass.
func tree(calls *[]string) *Composite {
	leaf := func(name string) *Leaf {
		inst := &fakeInstance{methods: map[string]func() error{name: pass}, log: calls}
		return NewLeaf("T", name, Shared(inst))
	}
	inner := NewComposite("inner")
	inner.Add(leaf("testC"))
	inner.Add(leaf("testD"))

	root := NewComposite("root")
	root.Add(leaf("testA"))
	root.Add(leaf("testB"))
	root.Add(inner)
	root.Add(leaf("testE"))
	return root
}

func TestComposite_CountAndOrder(t *testing.T) {
	var calls []string
	root := tree(&calls)
	rec := &recorder{}

	assert.Equal(t, 5, root.CountTestCases())
	Execute(root, rec)

	assert.Equal(t, []string{"testA", "testB", "testC", "testD", "testE"}, calls)
	assert.Len(t, rec.events, 5)

	var names []string
	for _, l := range Leaves(root) {
		names = append(names, l.String())
	}
	assert.Equal(t, []string{"testA(T)", "testB(T)", "testC(T)", "testD(T)", "testE(T)"}, names)
}

func TestComposite_StopIsPolledAtEveryLevel(t *testing.T) {
	for stopAt := 1; stopAt <= 5; stopAt++ {
		t.Run(fmt.Sprintf("stop after %d", stopAt), func(t *testing.T) {
			var calls []string
			rec := &recorder{stopAt: stopAt}

			Execute(tree(&calls), rec)

			assert.Len(t, calls, stopAt)
			assert.Len(t, rec.events, stopAt)
		})
	}
}

func TestExecute_StoppedSinkRunsNothing(t *testing.T) {
	var calls []string
	rec := &recorder{stopAt: 1, events: []string{"earlier"}}

	Execute(tree(&calls), rec)

	assert.Empty(t, calls)
}

func TestWalk_SkipsChildren(t *testing.T) {
	var calls []string
	var visited []string
	Walk(tree(&calls), func(n Node, depth int) bool {
		visited = append(visited, fmt.Sprintf("%d:%s", depth, n.Name()))
		return n.Name() != "inner"
	})

	assert.Equal(t, []string{"0:root", "1:testA", "1:testB", "1:inner", "1:testE"}, visited)
}
