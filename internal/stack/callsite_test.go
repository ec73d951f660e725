package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "taptree.dev/pkg/taptree/internal/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		line string
		want CallSite
	}{
		{
			name: "method with location",
			line: "    at Test.<anonymous> (test/clean.ts:12:34)",
			want: CallSite{
				FileName: "test/clean.ts", LineNumber: 12, ColumnNumber: 34,
				TypeName: "Test", MethodName: "<anonymous>", FunctionName: "Test.<anonymous>",
			},
		},
		{
			name: "bare location",
			line: "at node:child_process:1:3333",
			want: CallSite{FileName: "node:child_process", LineNumber: 1, ColumnNumber: 3333},
		},
		{
			name: "anonymous marker is not a location",
			line: "    at Some.method (<anonymous>)",
			want: CallSite{
				TypeName: "Some", MethodName: "method (<anonymous>)", FunctionName: "Some.method (<anonymous>)",
			},
		},
		{
			name: "native",
			line: "at Array.map (native)",
			want: CallSite{TypeName: "Array", MethodName: "map", FunctionName: "Array.map", IsNative: true},
		},
		{
			name: "promise all index",
			line: "    at async Promise.all (index 0)",
			want: CallSite{
				TypeName: "Promise", MethodName: "all", FunctionName: "Promise.all",
				IsAsync: true, IsPromiseAll: true,
			},
		},
		{
			name: "promise all later index",
			line: "at async Promise.all (index 12)",
			want: CallSite{
				TypeName: "Promise", MethodName: "all", FunctionName: "Promise.all",
				IsAsync: true, IsPromiseAll: true, PromiseIndex: 12,
			},
		},
		{
			name: "constructor",
			line: "at new Thing (lib/thing.js:3:9)",
			want: CallSite{
				FileName: "lib/thing.js", LineNumber: 3, ColumnNumber: 9,
				FunctionName: "Thing", IsConstructor: true,
			},
		},
		{
			name: "async with alias",
			line: "at async Foo.bar [as baz] (lib/foo.js:1:2)",
			want: CallSite{
				FileName: "lib/foo.js", LineNumber: 1, ColumnNumber: 2,
				TypeName: "Foo", MethodName: "baz", FunctionName: "Foo.bar [as baz]", IsAsync: true,
			},
		},
		{
			name: "file url",
			line: "at run (file:///home/u/x.mjs:7:1)",
			want: CallSite{FileName: "/home/u/x.mjs", LineNumber: 7, ColumnNumber: 1, FunctionName: "run"},
		},
		{
			name: "garbage",
			line: "this is not a frame",
			want: CallSite{FunctionName: "this is not a frame"},
		},
		{
			name: "path with spaces",
			line: "at Fake.foo() (this file does not exist:420:69)",
			want: CallSite{
				FileName: "this file does not exist", LineNumber: 420, ColumnNumber: 69,
				TypeName: "Fake", MethodName: "foo()", FunctionName: "Fake.foo()",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.line)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParse_EvalOrigin(t *testing.T) {
	c := Parse("    at eval (eval at <anonymous> (lib/run.js:10:5), <anonymous>:1:7)")

	assert.Equal(t, "eval", c.FunctionName)
	assert.Equal(t, "<anonymous>", c.FileName)
	assert.Equal(t, 1, c.LineNumber)
	assert.Equal(t, 7, c.ColumnNumber)
	require.NotNil(t, c.EvalOrigin)
	assert.Equal(t, "lib/run.js", c.EvalOrigin.FileName)
	assert.Equal(t, 10, c.EvalOrigin.LineNumber)
	assert.Equal(t, "eval (eval at <anonymous> (lib/run.js:10:5), <anonymous>:1:7)", c.String())
}

func TestIsUseful(t *testing.T) {
	assert.True(t, IsUseful(&CallSite{FileName: "a.js", LineNumber: 1, ColumnNumber: 1}))
	assert.False(t, IsUseful(&CallSite{FileName: "a.js", LineNumber: 1}))
	assert.False(t, IsUseful(&CallSite{LineNumber: 1, ColumnNumber: 1}))
	assert.False(t, IsUseful(nil))
}

func TestString_RoundTrip(t *testing.T) {
	lines := []string{
		"Test.<anonymous> (test/clean.ts:12:34)",
		"node:child_process:1:3333",
		"Array.map (native)",
		"new Thing (lib/thing.js:3:9)",
		"async run (lib/run.js:1:2)",
		"Some.method (<anonymous>)",
		"async Promise.all (index 3)",
	}

	for _, l := range lines {
		t.Run(l, func(t *testing.T) {
			assert.Equal(t, l, Parse("    at "+l).String())
		})
	}
}

func TestRecordAndFromValue(t *testing.T) {
	c := Parse("at Foo.bar (lib/foo.js:4:2)")

	r := c.Record()
	assert.Equal(t, []string{"fileName", "lineNumber", "columnNumber", "typeName", "methodName", "functionName"}, r.Keys())

	back := FromValue(r)
	require.NotNil(t, back)
	assert.True(t, back.Equal(c))

	assert.Nil(t, FromValue(m.NewRecord()))
	assert.Nil(t, FromValue("lib/foo.js:4:2"))
	assert.Same(t, c, FromValue(c))

	fromMap := FromValue(map[string]any{"fileName": "x.js", "lineNumber": 3, "columnNumber": 1.0})
	require.NotNil(t, fromMap)
	assert.True(t, IsUseful(fromMap))

	all := Parse("at async Promise.all (index 2)")
	assert.Equal(t, 2, all.Record().Value("promiseIndex"))
	assert.True(t, FromValue(all.Record()).Equal(all))
}

func TestHere(t *testing.T) {
	c := Here(0)
	require.NotNil(t, c)

	assert.True(t, c.Generated)
	assert.Equal(t, "callsite_test.go", c.FileName)
	assert.Positive(t, c.LineNumber)
	assert.Equal(t, "TestHere", c.MethodName)
	assert.False(t, IsUseful(c), "the Go runtime reports no column")
}

func TestClearLocalGenerated(t *testing.T) {
	local := &CallSite{FileName: "test/x.go", Generated: true}
	ClearLocalGenerated(local)
	assert.False(t, local.Generated)

	missing := &CallSite{Generated: true}
	ClearLocalGenerated(missing)
	assert.False(t, missing.Generated)

	dep := &CallSite{FileName: "node_modules/dep/index.js", Generated: true}
	ClearLocalGenerated(dep)
	assert.True(t, dep.Generated)

	abs := &CallSite{FileName: "/usr/lib/x.js", Generated: true}
	ClearLocalGenerated(abs)
	assert.True(t, abs.Generated)

	ClearLocalGenerated(nil)
}

func TestSetGoFunction(t *testing.T) {
	c := &CallSite{}
	c.setGoFunction("taptree.dev/pkg/taptree/internal/parser.(*Parser).Feed")
	assert.Equal(t, "Parser", c.TypeName)
	assert.Equal(t, "Feed", c.MethodName)

	c = &CallSite{}
	c.setGoFunction("main.main")
	assert.Equal(t, "", c.TypeName)
	assert.Equal(t, "main", c.MethodName)
}
