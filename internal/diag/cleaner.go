// Package diag turns raw diagnostic candidates (assertion context, thrown
// failure extracts, test metadata) into sanitized records fit to be
// attached to a test point.
package diag

import (
	"os"
	"reflect"
	"slices"
	"strings"

	m "taptree.dev/pkg/taptree/internal/model"
	"taptree.dev/pkg/taptree/internal/stack"
)

// InlineCodePlaceholder replaces multi-line filenames of evaluated code.
const InlineCodePlaceholder = "<inline code>"

// DefaultDeny lists keys that are operational noise and never shown.
var DefaultDeny = []string{
	"todo",
	"skip",
	"childId",
	"cb",
	"name",
	"indent",
	"bail",
	"parent",
	"buffered",
	"grep",
	"grepInvert",
	"only",
	"saveFixture",
	"env",
	"compareOptions",
}

// DefaultDenyPrefixes lists key prefixes of child-test-only bookkeeping.
var DefaultDenyPrefixes = []string{"tapChild", "_tapChild", "tapMocha"}

// deleteIfEmpty keys are also dropped when nil, false or the empty string.
var deleteIfEmpty = []string{"at", "stack", "context", "runOnly"}

// SourceReader loads source files for caret rendering.
type SourceReader interface {
	ReadFile(path string) ([]byte, error)
}

// ReadFileFunc adapts a function to SourceReader.
type ReadFileFunc func(path string) ([]byte, error)

// ReadFile implements SourceReader.
func (f ReadFileFunc) ReadFile(path string) ([]byte, error) { return f(path) }

// Options configures a Cleaner.
type Options struct {
	// Deny extends DefaultDeny.
	Deny []string
	// DenyPrefixes extends DefaultDenyPrefixes.
	DenyPrefixes []string
	// Reader loads source for the source field. Nil disables source rendering.
	Reader SourceReader
	// ContextLines is the number of lines shown around the call site line.
	ContextLines int
}

// Cleaner sanitizes diagnostic records. It holds no per-call state and is
// safe for concurrent use.
type Cleaner struct {
	deny     map[string]struct{}
	prefixes []string
	reader   SourceReader
	context  int
}

// NewCleaner builds a Cleaner from opts on top of the default deny-list.
func NewCleaner(opts Options) *Cleaner {
	c := &Cleaner{
		deny:     map[string]struct{}{},
		prefixes: append(slices.Clone(DefaultDenyPrefixes), opts.DenyPrefixes...),
		reader:   opts.Reader,
		context:  opts.ContextLines,
	}

	for _, k := range append(slices.Clone(DefaultDeny), opts.Deny...) {
		c.deny[k] = struct{}{}
	}

	return c
}

var defaultCleaner = NewCleaner(Options{Reader: ReadFileFunc(os.ReadFile), ContextLines: 2})

// Clean sanitizes r with the default deny-list, reading source files from disk.
func Clean(r *m.Record) *m.Record {
	return defaultCleaner.Clean(r)
}

// Clean returns a sanitized copy of r. The input is not modified. Shared
// nested records are cleaned independently at each occurrence.
func (c *Cleaner) Clean(r *m.Record) *m.Record {
	res := r.Clone()

	c.prune(res)
	c.normalizeStack(res)
	c.attachSource(res)
	compare(res)
	elideInlineCode(res)
	c.recurse(res)

	return res
}

func (c *Cleaner) denied(key string) bool {
	if _, ok := c.deny[key]; ok {
		return true
	}

	for _, p := range c.prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}

	return false
}

// prune runs deny-by-key first, then drops empty values.
func (c *Cleaner) prune(res *m.Record) {
	for _, k := range res.Keys() {
		if c.denied(k) {
			res.Delete(k)
		}
	}

	for _, k := range res.Keys() {
		v := res.Value(k)

		if k == "message" {
			if _, ok := v.(string); ok {
				res.Delete(k)
			}

			continue
		}

		if k == "found" || k == "wanted" {
			continue
		}

		if isEmpty(k, v) {
			res.Delete(k)
		}
	}
}

func isEmpty(key string, v any) bool {
	nilOrBlank := slices.Contains(deleteIfEmpty, key)

	switch t := v.(type) {
	case nil:
		return nilOrBlank
	case string:
		return nilOrBlank && t == ""
	case bool:
		return nilOrBlank && !t
	case *m.Record:
		return t.Len() == 0
	case *stack.CallSite:
		return t == nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer:
		return rv.IsNil() && nilOrBlank
	default:
		return false
	}
}

func (c *Cleaner) normalizeStack(res *m.Record) {
	v, ok := res.Get("stack")
	if !ok {
		return
	}

	switch t := v.(type) {
	case string:
		res.Set("stack", strings.TrimRight(t, "\n")+"\n")
	case []string:
		res.Set("stack", strings.Join(t, "\n")+"\n")
	case []any:
		lines := make([]string, 0, len(t))
		for _, l := range t {
			if s, ok := l.(string); ok {
				lines = append(lines, s)
			}
		}

		res.Set("stack", strings.Join(lines, "\n")+"\n")
	}
}

// attachSource resolves the call site, from at or from the stack text, and
// renders the source around it.
func (c *Cleaner) attachSource(res *m.Record) {
	var at *stack.CallSite

	if v, ok := res.Get("at"); ok {
		at = stack.FromValue(v)
		if at == nil {
			return
		}
	} else if s, ok := res.Value("stack").(string); ok {
		at = stack.Representative(stack.Capture(s))
		if at == nil {
			return
		}
	} else {
		return
	}

	res.Set("at", at.Record())

	if src, ok := c.renderSource(at); ok {
		res.Set("source", src)
	}
}

func compare(res *m.Record) {
	found, hasFound := res.Get("found")
	wanted, hasWanted := res.Get("wanted")

	if !hasFound || !hasWanted {
		return
	}

	// An empty diff means both render the same.
	if !Equivalent(found, wanted) {
		if d := Diff(found, wanted); d != "" {
			res.Set("diff", d)
		}
	}

	res.Delete("found")
	res.Delete("wanted")
}

func elideInlineCode(res *m.Record) {
	if !truthy(res.Value("eval")) {
		return
	}

	if f, ok := res.Value("filename").(string); ok && strings.Contains(f, "\n") {
		res.Set("filename", InlineCodePlaceholder)
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case float64:
		return t != 0
	default:
		return true
	}
}

func (c *Cleaner) recurse(res *m.Record) {
	for _, key := range []string{"cause", "errorOrigin"} {
		if sub, ok := asRecord(res.Value(key)); ok {
			res.Set(key, c.Clean(sub))
		}
	}

	errs, ok := res.Value("errors").([]any)
	if !ok {
		return
	}

	cleaned := make([]any, len(errs))

	for i, e := range errs {
		if sub, ok := asRecord(e); ok {
			cleaned[i] = c.Clean(sub)
		} else {
			cleaned[i] = e
		}
	}

	res.Set("errors", cleaned)
}

func asRecord(v any) (*m.Record, bool) {
	switch t := v.(type) {
	case *m.Record:
		return t, t != nil
	case map[string]any:
		return m.RecordFromMap(t), true
	default:
		return nil, false
	}
}
