// Package parser is a streaming parser for the Test Anything Protocol
// (versions 13 and 14, including nested and buffered subtests).
//
// A Parser is fed text in arbitrary chunks and returns the events that
// became final with each chunk. Subtests are reported as a single child
// event carrying their whole stream once they close.
package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	m "taptree.dev/pkg/taptree/internal/model"
)

// Options configures a Parser.
type Options struct {
	// Strict turns non-protocol lines into failures.
	Strict bool
	// Bail stops the stream at the first failing test point.
	Bail bool
	// Passes collects passing results in FinalResults.Passes.
	Passes bool
	// Flat emits the flattened root stream (see Flatten).
	Flat bool
}

const strictNonTAP = "Non-TAP data encountered in strict mode"

// Parser holds the resumable parse state. It is not safe for concurrent use.
type Parser struct {
	opts    Options
	root    *level
	top     *level
	partial string
	seen    bool
	done    bool
	bailing bool
	flat    *flattener
}

// New returns a parser at the start of a stream.
func New(opts Options) *Parser {
	root := newLevel(nil, "", "")
	root.strict = opts.Strict

	p := &Parser{opts: opts, root: root, top: root}
	if opts.Flat {
		p.flat = &flattener{}
	}

	return p
}

// ParseString parses a whole document.
func ParseString(text string, opts Options) []m.Event {
	p := New(opts)
	events := p.Feed(text)

	return append(events, p.End()...)
}

// Done reports whether the stream reached its end, by End or a bailout.
func (p *Parser) Done() bool { return p.done }

// Feed consumes a chunk and returns the root-level events it completed.
// A trailing partial line is kept until the next chunk or End.
func (p *Parser) Feed(chunk string) []m.Event {
	if p.done {
		return nil
	}

	p.partial += chunk

	for !p.done {
		i := strings.IndexByte(p.partial, '\n')
		if i < 0 {
			break
		}

		line := strings.TrimSuffix(p.partial[:i], "\r")
		p.partial = p.partial[i+1:]
		p.line(line)
	}

	return p.drain()
}

// End consumes any partial line and closes every open level. Subtests
// still open are closed without a closing test point.
func (p *Parser) End() []m.Event {
	if !p.done && p.partial != "" {
		line := strings.TrimSuffix(p.partial, "\r")
		p.partial = ""
		p.line(line)
	}

	if !p.done {
		for p.top != p.root {
			p.closeTop(nil)
		}

		p.finishLevel(p.root)
		p.done = true
	}

	return p.drain()
}

func (p *Parser) drain() []m.Event {
	events := p.root.events
	p.root.events = nil

	if p.flat != nil {
		events = p.flat.apply(events)
	}

	return events
}

func (p *Parser) emit(l *level, e m.Event) {
	if p.done {
		return
	}

	l.events = append(l.events, e)
}

func (p *Parser) line(line string) {
	top := p.top

	if top.inYAML && p.yamlLine(top, line) {
		return
	}

	if strings.TrimSpace(line) == "" {
		p.emit(top, m.ExtraEvent(line+"\n"))
		return
	}

	defer func() { p.seen = true }()

	target := top
	for target.parent != nil && !strings.HasPrefix(line, target.indent) {
		target = target.parent
	}

	rest := line[len(target.indent):]

	if target != top {
		var (
			closing *m.Result
			hasID   bool
		)

		if leadingSpace(rest) == "" {
			if r, h, ok := parseAssert(rest); ok && !r.Buffered {
				closing, hasID = r, h
			}
		}

		for p.top.parent != target && !p.done {
			p.closeTop(nil)
		}

		if rest == "}" && p.top.buffered != nil {
			p.closeTop(nil)
			return
		}

		p.closeTop(closing)

		if closing != nil {
			p.assert(target, closing, hasID)
			return
		}
	}

	p.body(target, rest, line)
}

// body handles a line at level l. rest is the line without l's indent.
func (p *Parser) body(l *level, rest, raw string) {
	if p.done {
		return
	}

	if ws := leadingSpace(rest); ws != "" {
		if l.pending != nil && ws == "  " && strings.TrimSpace(rest) == "---" {
			l.inYAML = true
			l.yaml = nil

			return
		}

		p.startChild(l, l.indent+ws, rest[len(ws):])

		return
	}

	if sub := subtestRe.FindStringSubmatch(rest); sub != nil {
		p.flushPending(l)
		p.flushHeader(l)
		l.header, l.headerName = rest+"\n", sub[1]

		return
	}

	if res, hasID, ok := parseAssert(rest); ok {
		if res.Buffered {
			p.startBuffered(l, res, hasID)
			return
		}

		p.assert(l, res, hasID)

		return
	}

	p.flushPending(l)
	p.flushHeader(l)

	if p.done {
		return
	}

	if v, ok := parseVersion(rest); ok && l == p.root && !p.seen {
		p.emit(l, m.VersionEvent(v))
		return
	}

	if plan, ok := parsePlan(rest); ok && !l.sawPlan {
		p.plan(l, plan)
		return
	}

	if sub := bailRe.FindStringSubmatch(rest); sub != nil {
		p.bail(strings.TrimSpace(sub[1]))
		return
	}

	if sub := pragmaRe.FindStringSubmatch(rest); sub != nil {
		if sub[2] == "strict" {
			l.strict = sub[1] == "+"
		}

		p.emit(l, m.ExtraEvent(raw+"\n"))

		return
	}

	if strings.HasPrefix(rest, "#") {
		if t, ok := parseTimeComment(rest); ok {
			l.time = t
		}

		p.emit(l, m.CommentEvent(rest+"\n"))

		return
	}

	p.nonTAP(l, raw)
}

func (p *Parser) nonTAP(l *level, raw string) {
	p.emit(l, m.ExtraEvent(raw+"\n"))

	if l.strict {
		l.structural(strings.TrimSpace(raw), strictNonTAP)
	}
}

func (p *Parser) plan(l *level, plan m.Plan) {
	l.sawPlan = true
	l.plan = plan
	l.skipAll = plan.End == plan.Start-1 && l.count == 0

	p.emit(l, m.PlanEvent(plan))
}

func (p *Parser) assert(l *level, res *m.Result, hasID bool) {
	p.flushPending(l)
	p.flushHeader(l)

	if p.done {
		return
	}

	if !hasID {
		res.ID = l.lastID + 1
	}

	res.Fullname = joinName(l.fullname, res.Name)

	if prev, dup := l.ids[res.ID]; dup {
		res.Previous = prev
		res.TapError = fmt.Sprintf("test point id %d appears multiple times", res.ID)
	} else if l.sawPlan && !l.skipAll && res.ID > l.plan.End {
		res.TapError = fmt.Sprintf("id greater than plan end (%d > %d)", res.ID, l.plan.End)
	}

	l.ids[res.ID] = res
	l.lastID = res.ID
	l.pending = res
}

// flushPending records the held assertion, if any.
func (p *Parser) flushPending(l *level) {
	if l.inYAML {
		p.abortYAML(l, false)
	}

	res := l.pending
	if res == nil {
		return
	}

	l.pending = nil
	failing := l.tally(res, p.opts.Passes)
	p.emit(l, m.AssertEvent(res))

	if failing && p.opts.Bail && !p.bailing {
		p.bail(res.Name)
	}
}

func (p *Parser) flushHeader(l *level) {
	if l.header == "" {
		return
	}

	p.emit(l, m.CommentEvent(l.header))
	l.header, l.headerName = "", ""
}

// startChild opens an indented subtest under l whose first line is first.
func (p *Parser) startChild(l *level, indent, first string) {
	p.flushPending(l)

	if p.done {
		return
	}

	header, name := l.header, l.headerName
	l.header, l.headerName = "", ""

	consumed := false

	if header == "" {
		if sub := subtestRe.FindStringSubmatch(first); sub != nil {
			header, name, consumed = first+"\n", sub[1], true
		} else {
			header = "# Subtest\n"
		}
	}

	c := newLevel(l, indent, name)
	p.emit(c, m.CommentEvent(header))
	p.top = c

	if !consumed {
		p.body(c, first, indent+first)
	}
}

// startBuffered opens the subtest of "ok N - name {". The assertion is
// recorded when the subtest closes.
func (p *Parser) startBuffered(l *level, res *m.Result, hasID bool) {
	p.flushPending(l)
	p.flushHeader(l)

	if p.done {
		return
	}

	c := newLevel(l, l.indent+"    ", res.Name)
	c.buffered, c.bufferedHasID = res, hasID
	p.top = c
}

// closeTop closes the innermost level. closing is the parent assertion
// that ends it; its time becomes the subtest time.
func (p *Parser) closeTop(closing *m.Result) {
	if p.done || p.top == p.root {
		return
	}

	l := p.top

	src := closing
	if l.buffered != nil {
		src = l.buffered
	}

	if src != nil && src.Time != nil {
		l.time = src.Time
	}

	p.flushPending(l)

	if p.done {
		return
	}

	p.finishLevel(l)
	p.top = l.parent
	p.emit(l.parent, m.ChildEvent(l.events))

	if l.buffered != nil {
		p.assert(l.parent, l.buffered, l.bufferedHasID)
	}
}

// finishLevel appends complete, finish and close to l.
func (p *Parser) finishLevel(l *level) {
	p.flushPending(l)
	p.flushHeader(l)

	l.events = append(l.events,
		m.CompleteEvent(l.final(p.opts.Passes)),
		m.FinishEvent(),
		m.CloseEvent(),
	)
}

// bail closes every open level with a bailout, innermost first.
func (p *Parser) bail(reason string) {
	if p.done || p.bailing {
		return
	}

	p.bailing = true

	for l := p.top; l != nil; l = l.parent {
		p.flushPending(l)
		p.flushHeader(l)

		l.bailedOut = true
		l.events = append(l.events, m.BailEvent(reason))
		p.finishLevel(l)

		if l.parent != nil {
			l.parent.events = append(l.parent.events, m.ChildEvent(l.events))
		}
	}

	p.top = p.root
	p.done = true
}

// yamlLine consumes a line of an open diag block. It returns false when the
// line ends the block without belonging to it.
func (p *Parser) yamlLine(l *level, line string) bool {
	prefix := l.indent + "  "

	if strings.TrimRight(line, " \t") == prefix+"..." {
		p.endYAML(l)
		return true
	}

	if strings.HasPrefix(line, prefix) || strings.TrimSpace(line) == "" {
		l.yaml = append(l.yaml, line)
		return true
	}

	p.abortYAML(l, false)

	return false
}

func (p *Parser) endYAML(l *level) {
	prefix := l.indent + "  "

	lines := make([]string, len(l.yaml))
	for i, y := range l.yaml {
		lines[i] = strings.TrimPrefix(y, prefix)
	}

	diag, err := decodeDiag(strings.Join(lines, "\n"))
	if err != nil {
		slog.Debug("invalid diagnostic block", "test", l.pending.Name, "error", err)
		p.abortYAML(l, true)

		return
	}

	l.pending.Diag = diag
	l.inYAML = false
	l.yaml = nil

	p.flushPending(l)
}

// abortYAML records the held assertion without diag and passes the block
// through as opaque lines.
func (p *Parser) abortYAML(l *level, closed bool) {
	lines := append([]string{l.indent + "  ---"}, l.yaml...)
	if closed {
		lines = append(lines, l.indent+"  ...")
	}

	l.inYAML = false
	l.yaml = nil

	p.flushPending(l)

	for _, line := range lines {
		p.emit(l, m.ExtraEvent(line+"\n"))
	}
}

func decodeDiag(text string) (*m.Record, error) {
	if strings.TrimSpace(text) == "" {
		return m.NewRecord(), nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal([]byte(text), &node); err != nil {
		return nil, fmt.Errorf("decode diag: %w", err)
	}

	v, err := m.FromYAMLNode(&node)
	if err != nil {
		return nil, err
	}

	rec, ok := v.(*m.Record)
	if !ok {
		return nil, fmt.Errorf("decode diag: expected a mapping, got %T", v)
	}

	return rec, nil
}
