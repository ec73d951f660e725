package parser

import (
	m "taptree.dev/pkg/taptree/internal/model"
)

// level is the state of one nesting level: the root stream or a subtest.
type level struct {
	parent   *level
	indent   string
	name     string
	fullname string
	events   []m.Event
	strict   bool

	sawPlan bool
	plan    m.Plan
	skipAll bool

	count, pass, fail, skip, todo int
	failures, skips, todos, passes []*m.Result

	ids    map[int]*m.Result
	lastID int
	time   *float64

	// pending is the last assertion, held until its diag block is known.
	pending *m.Result
	inYAML  bool
	yaml    []string

	// header is a "# Subtest" comment waiting for the child it introduces.
	header     string
	headerName string

	// buffered is the "ok N - name {" assertion that closes this level.
	buffered      *m.Result
	bufferedHasID bool

	bailedOut bool
}

func newLevel(parent *level, indent, name string) *level {
	l := &level{parent: parent, indent: indent, name: name, ids: map[int]*m.Result{}}

	if parent != nil {
		l.strict = parent.strict
		l.fullname = joinName(parent.fullname, name)
	}

	return l
}

func joinName(prefix, name string) string {
	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	default:
		return prefix + " > " + name
	}
}

// tally counts res and files it into the summary lists.
func (l *level) tally(res *m.Result, passes bool) (failing bool) {
	l.count++

	if res.OK {
		l.pass++
	} else {
		l.fail++
	}

	if res.Skip.Set {
		l.skip++
		l.skips = append(l.skips, res)
	}

	if res.Todo.Set {
		l.todo++
		l.todos = append(l.todos, res)
	}

	failing = !res.OK && !res.Skip.Set && !res.Todo.Set

	switch {
	case failing || res.TapError != "":
		l.failures = append(l.failures, res)
	case passes && !res.Skip.Set && !res.Todo.Set:
		l.passes = append(l.passes, res)
	}

	return failing
}

// structural records a protocol problem found at the end of a level or in
// strict mode. It fails the level without counting as a test point.
func (l *level) structural(name, tapError string) {
	l.failures = append(l.failures, &m.Result{Name: name, Fullname: joinName(l.fullname, name), TapError: tapError})
}

func (l *level) final(passes bool) *m.FinalResults {
	if !l.bailedOut {
		switch {
		case !l.sawPlan:
			l.structural("", "no plan")
		case !l.skipAll && l.count != l.plan.End-l.plan.Start+1:
			l.structural("", "incorrect number of tests")
		}
	}

	f := &m.FinalResults{
		OK:       len(l.failures) == 0 && !l.bailedOut,
		Count:    l.count,
		Pass:     l.pass,
		Fail:     l.fail,
		Skip:     l.skip,
		Todo:     l.todo,
		Bailout:  l.bailedOut,
		Failures: nonNil(l.failures),
		Skips:    nonNil(l.skips),
		Todos:    nonNil(l.todos),
		Time:     l.time,
	}

	if l.sawPlan {
		f.Plan = m.FinalPlan{Start: l.plan.Start, End: l.plan.End, Comment: l.plan.Comment, SkipAll: l.skipAll}
		if l.skipAll {
			f.Plan.SkipReason = skipReason(l.plan.Comment)
		}
	}

	if passes {
		f.Passes = nonNil(l.passes)
	}

	return f
}

func nonNil(rs []*m.Result) []*m.Result {
	if rs == nil {
		return []*m.Result{}
	}

	return rs
}
