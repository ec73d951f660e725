package parser

import (
	m "taptree.dev/pkg/taptree/internal/model"
)

// Flatten inlines every subtest's test points into the root stream,
// renumbering them 1..N in document order. Nested plans, comments and
// summaries are dropped; the root plan is replaced by a single 1..N plan
// emitted ahead of the root summary. Results are copied, not renumbered in
// place.
func Flatten(events []m.Event) []m.Event {
	f := &flattener{}
	return f.apply(events)
}

// flattener carries the running id across chunks of a streamed root.
type flattener struct {
	n int
}

func (f *flattener) apply(events []m.Event) []m.Event {
	out := make([]m.Event, 0, len(events))

	for _, e := range events {
		switch e.Type {
		case m.EventChild:
			out = f.inline(out, e.Children)
		case m.EventAssert:
			out = append(out, f.renumber(e.Result))
		case m.EventPlan:
		case m.EventComplete:
			out = append(out, m.PlanEvent(m.Plan{Start: 1, End: f.n}), e)
		default:
			out = append(out, e)
		}
	}

	return out
}

func (f *flattener) inline(out, events []m.Event) []m.Event {
	for _, e := range events {
		switch e.Type {
		case m.EventChild:
			out = f.inline(out, e.Children)
		case m.EventAssert:
			out = append(out, f.renumber(e.Result))
		}
	}

	return out
}

func (f *flattener) renumber(res *m.Result) m.Event {
	f.n++

	r := *res
	r.ID = f.n

	return m.AssertEvent(&r)
}
