package controller

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	m "taptree.dev/pkg/taptree/internal/model"
)

const outerTrace = `Error: outer
    at outer (test/a.js:10:5)
    at run (lib/runner.js:20:3)
    at step (lib/runner.js:30:3)
    at loop (lib/runner.js:40:3)
    at main (lib/runner.js:50:3)
`

const innerTrace = `Error: inner
    at inner (test/a.js:3:9)
    at helper (test/a.js:4:9)
    at wrap (test/a.js:5:9)
    at outerHelper (test/a.js:6:9)
    at run (lib/runner.js:20:3)
    at step (lib/runner.js:30:3)
    at loop (lib/runner.js:40:3)
    at main (lib/runner.js:50:3)
`

func TestStackLines(t *testing.T) {
	st := NewStyles(false)

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, StackLines(" \n", "", st))
	})

	t.Run("plain", func(t *testing.T) {
		assert.Equal(t, []string{
			"outer (test/a.js:10:5)",
			"run (lib/runner.js:20:3)",
			"step (lib/runner.js:30:3)",
			"loop (lib/runner.js:40:3)",
			"main (lib/runner.js:50:3)",
		}, StackLines(outerTrace, "", st))
	})

	t.Run("elided against the failure it caused", func(t *testing.T) {
		assert.Equal(t, []string{
			"inner (test/a.js:3:9)",
			"helper (test/a.js:4:9)",
			"wrap (test/a.js:5:9)",
			"outerHelper (test/a.js:6:9)",
			"... 2 lines matching cause trace ...",
		}, StackLines(innerTrace, outerTrace, st))
	})

	t.Run("short overlap is kept", func(t *testing.T) {
		lines := StackLines(outerTrace, innerTrace, st)
		assert.Len(t, lines, 5)
	})
}

func TestHighlightFilename(t *testing.T) {
	st := Styles{
		Dim:  func(s string) string { return "<" + s + ">" },
		File: func(s string) string { return "[" + s + "]" },
	}

	tests := []struct {
		name string
		line string
		file string
		want string
	}{
		{name: "local", line: "fn (test/a.js:1:2)", file: "test/a.js", want: "<fn (>[test/a.js]<:1:2)>"},
		{name: "absolute", line: "fn (/usr/lib/a.js:1:2)", file: "/usr/lib/a.js", want: "<fn (/usr/lib/a.js:1:2)>"},
		{name: "dependency", line: "fn (node_modules/x/a.js:1:2)", file: "node_modules/x/a.js", want: "<fn (node_modules/x/a.js:1:2)>"},
		{name: "parent dir", line: "fn (../a.js:1:2)", file: "../a.js", want: "<fn (../a.js:1:2)>"},
		{name: "native", line: "fn (native)", file: "native", want: "<fn (native)>"},
		{name: "missing", line: "fn", file: "", want: "<fn>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, highlightFilename(tt.line, tt.file, st))
		})
	}
}

func TestRecursiveStack(t *testing.T) {
	st := NewStyles(false)

	d := m.RecordOf(
		"stack", outerTrace,
		"cause", m.RecordOf("message", "inner", "stack", innerTrace),
		"errors", []any{
			"not a failure",
			map[string]any{"stack": "at agg (test/b.js:1:1)\n"},
		},
	)

	want := []string{
		"outer (test/a.js:10:5)",
		"run (lib/runner.js:20:3)",
		"step (lib/runner.js:30:3)",
		"loop (lib/runner.js:40:3)",
		"main (lib/runner.js:50:3)",
		"- Cause: inner",
		"  inner (test/a.js:3:9)",
		"  helper (test/a.js:4:9)",
		"  wrap (test/a.js:5:9)",
		"  outerHelper (test/a.js:6:9)",
		"  ... 2 lines matching cause trace ...",
		"- Aggregated:",
		"  agg (test/b.js:1:1)",
	}

	assert.Equal(t, want, RecursiveStack(d, st))
}

func TestRecursiveStack_NestedCauses(t *testing.T) {
	d := m.RecordOf("cause", m.RecordOf("cause", m.RecordOf("stack", "at deep (x.js:1:1)\n")))

	got := strings.Join(RecursiveStack(d, NewStyles(false)), "\n")
	assert.Equal(t, "- Cause:\n  - Cause:\n    deep (x.js:1:1)", got)
}

func TestRecursiveStack_Nil(t *testing.T) {
	assert.Nil(t, RecursiveStack(nil, NewStyles(false)))
}
