// Package stringify renders parsed protocol events back into TAP text.
package stringify

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	m "taptree.dev/pkg/taptree/internal/model"
)

// Options configures rendering.
type Options struct {
	// Flat renumbers every test point of the tree 1..N and emits a single
	// root plan at the end.
	Flat bool
}

const childIndent = "    "

// Stringify renders events as protocol text ending in a single newline.
func Stringify(events []m.Event, opts Options) string {
	w := &writer{}

	if opts.Flat {
		w.flat(events, true)

		if len(events) > 0 {
			fmt.Fprintf(&w.buf, "1..%d\n", w.n)
		}
	} else {
		w.nested(events, "", true)
	}

	return w.buf.String()
}

type writer struct {
	buf bytes.Buffer
	n   int
}

func (w *writer) nested(events []m.Event, indent string, root bool) {
	for i := 0; i < len(events); i++ {
		e := events[i]

		switch e.Type {
		case m.EventVersion:
			if root {
				fmt.Fprintf(&w.buf, "TAP version %d\n", e.Version)
			}
		case m.EventPlan:
			w.plan(indent, e.Plan)
		case m.EventComment:
			w.line(indent, e.Comment)
		case m.EventAssert:
			w.assert(indent, e.Result, e.Result.ID, false)
		case m.EventChild:
			if i+1 < len(events) && events[i+1].Type == m.EventAssert && events[i+1].Result.Buffered {
				res := events[i+1].Result
				w.assert(indent, res, res.ID, true)
				w.nested(withoutHeader(e.Children), indent+childIndent, false)
				w.buf.WriteString(indent + "}\n")
				w.diag(indent, res.Diag)
				i++

				continue
			}

			children := e.Children
			if header, ok := subtestHeader(children); ok {
				w.line(indent, header)
				children = children[1:]
			}

			w.nested(children, indent+childIndent, false)
		case m.EventBail:
			w.bail(indent, e.Reason)
		case m.EventExtra:
			w.raw(e.Raw)
		}
	}
}

// flat inlines children. Nested plans, versions and bailouts are dropped;
// comments are kept at the left margin.
func (w *writer) flat(events []m.Event, root bool) {
	for _, e := range events {
		switch e.Type {
		case m.EventVersion:
			if root {
				fmt.Fprintf(&w.buf, "TAP version %d\n", e.Version)
			}
		case m.EventComment:
			w.line("", e.Comment)
		case m.EventAssert:
			w.n++
			w.assert("", e.Result, w.n, false)
		case m.EventChild:
			w.flat(e.Children, false)
		case m.EventBail:
			if root {
				w.bail("", e.Reason)
			}
		case m.EventExtra:
			w.raw(e.Raw)
		}
	}
}

func subtestHeader(children []m.Event) (string, bool) {
	if len(children) > 0 && children[0].Type == m.EventComment && strings.HasPrefix(children[0].Comment, "# Subtest") {
		return children[0].Comment, true
	}

	return "", false
}

func withoutHeader(children []m.Event) []m.Event {
	if _, ok := subtestHeader(children); ok {
		return children[1:]
	}

	return children
}

func (w *writer) line(indent, text string) {
	w.buf.WriteString(indent)
	w.buf.WriteString(text)

	if !strings.HasSuffix(text, "\n") {
		w.buf.WriteByte('\n')
	}
}

func (w *writer) raw(text string) {
	w.line("", text)
}

func (w *writer) plan(indent string, p *m.Plan) {
	text := fmt.Sprintf("%d..%d", p.Start, p.End)
	if p.Comment != "" {
		text += " # " + p.Comment
	}

	w.line(indent, text)
}

func (w *writer) bail(indent, reason string) {
	text := "Bail out!"
	if reason != "" {
		text += " " + reason
	}

	w.line(indent, text)
}

func (w *writer) assert(indent string, res *m.Result, id int, open bool) {
	var b strings.Builder

	if !res.OK {
		b.WriteString("not ")
	}

	b.WriteString("ok ")
	b.WriteString(strconv.Itoa(id))

	if res.Name != "" {
		b.WriteString(" - ")
		b.WriteString(EscapeName(res.Name))
	}

	writeDirective(&b, "SKIP", res.Skip)
	writeDirective(&b, "TODO", res.Todo)

	if res.Time != nil {
		b.WriteString(" # time=")
		b.WriteString(strconv.FormatFloat(*res.Time, 'f', -1, 64))
		b.WriteString("ms")
	}

	if open {
		b.WriteString(" {")
	}

	w.line(indent, b.String())

	if !open {
		w.diag(indent, res.Diag)
	}
}

func writeDirective(b *strings.Builder, name string, d m.Directive) {
	if !d.Set {
		return
	}

	b.WriteString(" # ")
	b.WriteString(name)

	if d.Reason != "" {
		b.WriteString(" ")
		b.WriteString(d.Reason)
	}
}

// diag renders a YAML block two spaces deeper than its test point.
func (w *writer) diag(indent string, d *m.Record) {
	if d.Len() == 0 {
		return
	}

	var out bytes.Buffer

	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)

	if err := enc.Encode(d); err != nil {
		w.line(indent, "# diagnostics not renderable: "+err.Error())
		return
	}

	_ = enc.Close()

	prefix := indent + "  "
	w.line(prefix, "---")

	for _, l := range strings.Split(strings.TrimRight(out.String(), "\n"), "\n") {
		if l == "" {
			w.buf.WriteString("\n")
			continue
		}

		w.line(prefix, l)
	}

	w.line(prefix, "...")
}

// EscapeName escapes the characters that would otherwise start a
// directive or an escape sequence.
func EscapeName(s string) string {
	return strings.NewReplacer(`\`, `\\`, "#", `\#`).Replace(s)
}
