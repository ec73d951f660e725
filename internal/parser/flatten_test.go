package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "taptree.dev/pkg/taptree/internal/model"
)

func TestFlatten(t *testing.T) {
	events := ParseString(readFixture(t, "subtest-stream-no-comment.tap"), Options{})

	flat := Flatten(events)

	want := []m.EventType{m.EventVersion}
	for range 9 {
		want = append(want, m.EventAssert)
	}

	want = append(want, m.EventPlan, m.EventComplete, m.EventFinish, m.EventClose)
	assert.Equal(t, want, types(flat))

	names := []string{
		"true is ok", "doag is also okay", "first",
		"but that is ok", "this passes", "nested ok",
		"second", "nesting", "this passes",
	}

	for i, e := range find(flat, m.EventAssert) {
		assert.Equal(t, i+1, e.Result.ID)
		assert.Equal(t, names[i], e.Result.Fullname)
	}

	assert.Equal(t, m.Plan{Start: 1, End: 9}, *find(flat, m.EventPlan)[0].Plan)

	root := complete(t, flat)
	assert.Equal(t, 2, root.Count, "the root summary is kept as is")

	require.Equal(t, m.EventAssert, events[2].Type)
	assert.Equal(t, 1, events[2].Result.ID, "the nested stream is not renumbered in place")
}

func TestParser_FlatOption(t *testing.T) {
	text := readFixture(t, "subtest-stream-no-comment.tap")

	p := New(Options{Flat: true})

	var got []m.Event
	for i := 0; i < len(text); i += 11 {
		got = append(got, p.Feed(text[i:min(i+11, len(text))])...)
	}

	got = append(got, p.End()...)

	assert.Equal(t, types(Flatten(ParseString(text, Options{}))), types(got))

	asserts := find(got, m.EventAssert)
	require.Len(t, asserts, 9)
	assert.Equal(t, 9, asserts[8].Result.ID)

	first := asserts[2].Result
	require.NotNil(t, first.Time)
	assert.InDelta(t, 11.345, *first.Time, 1e-9)
}
