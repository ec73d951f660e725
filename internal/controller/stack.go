package controller

import (
	"path/filepath"
	"strings"

	m "taptree.dev/pkg/taptree/internal/model"
	"taptree.dev/pkg/taptree/internal/stack"
)

const (
	causeHeader      = "- Cause:"
	aggregatedHeader = "- Aggregated:"
	nestedPadding    = "  "
)

// StackLines renders one frame per line. When against holds the trace of
// the failure this one caused, the run of frames both traces share is
// replaced by a single elision marker.
func StackLines(trace, against string, st Styles) []string {
	if strings.TrimSpace(trace) == "" {
		return nil
	}

	frames := stack.ParseStack(trace)

	if strings.TrimSpace(against) != "" {
		el := stack.ElideOverlap(stack.ParseStack(against), frames)
		if el.Header != "" {
			lines := make([]string, 0, len(el.Body))

			for _, l := range el.Body {
				if l == el.Header {
					lines = append(lines, st.Dim(l))
					continue
				}

				lines = append(lines, formatLine(stack.Parse(l), st))
			}

			return lines
		}
	}

	lines := make([]string, 0, len(frames))
	for _, c := range frames {
		lines = append(lines, formatLine(c, st))
	}

	return lines
}

func formatLine(c *stack.CallSite, st Styles) string {
	file := c.FileName
	if c.EvalOrigin != nil {
		file = c.EvalOrigin.FileName
	}

	return highlightFilename(c.String(), file, st)
}

// highlightFilename dims a frame, highlighting its file name only when the
// file belongs to the local tree.
func highlightFilename(s, file string, st Styles) string {
	if !localFile(file) || !strings.Contains(s, file) {
		return st.Dim(s)
	}

	parts := strings.Split(s, file)
	last := parts[len(parts)-1]

	var b strings.Builder
	for _, p := range parts[:len(parts)-1] {
		b.WriteString(st.Dim(p))
		b.WriteString(st.File(file))
	}

	b.WriteString(st.Dim(last))

	return b.String()
}

func localFile(f string) bool {
	switch {
	case f == "", f == "native", f == "<anonymous>":
		return false
	case filepath.IsAbs(f), strings.HasPrefix(f, ".."):
		return false
	case strings.HasPrefix(f, "node_modules"), strings.HasPrefix(f, "vendor/"):
		return false
	}

	return true
}

// RecursiveStack renders the trace of d followed by the traces of its cause
// chain and aggregated failures. Each nested failure gets a header line and
// its content indented below it.
func RecursiveStack(d *m.Record, st Styles) []string {
	return recursiveStack(d, "", "", st)
}

func recursiveStack(d *m.Record, why, parent string, st Styles) []string {
	if d == nil {
		return nil
	}

	var (
		out []string
		pad string
	)

	if why != "" {
		header := why
		if msg, ok := d.Value("message").(string); ok && msg != "" {
			header += " " + msg
		}

		out = append(out, st.Heading(header))
		pad = nestedPadding
	}

	trace, _ := d.Value("stack").(string)

	for _, l := range StackLines(trace, parent, st) {
		out = append(out, pad+l)
	}

	if cause, ok := asRecord(d.Value("cause")); ok {
		for _, l := range recursiveStack(cause, causeHeader, trace, st) {
			out = append(out, pad+l)
		}
	}

	if errs, ok := d.Value("errors").([]any); ok {
		for _, e := range errs {
			sub, ok := asRecord(e)
			if !ok {
				continue
			}

			for _, l := range recursiveStack(sub, aggregatedHeader, trace, st) {
				out = append(out, pad+l)
			}
		}
	}

	return out
}

func asRecord(v any) (*m.Record, bool) {
	switch r := v.(type) {
	case *m.Record:
		return r, r != nil
	case map[string]any:
		return m.RecordFromMap(r), true
	}

	return nil, false
}
