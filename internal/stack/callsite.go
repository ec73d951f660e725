// Package stack models stack frames (call sites) and reconciles the frame
// lists of a failure and its cause for display.
package stack

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	m "taptree.dev/pkg/taptree/internal/model"
)

// CallSite is one stack frame. Zero line/column numbers and an empty file
// name mean the location is unknown.
type CallSite struct {
	FileName      string
	LineNumber    int
	ColumnNumber  int
	TypeName      string
	MethodName    string
	FunctionName  string
	EvalOrigin    *CallSite
	IsNative      bool
	IsConstructor bool
	IsAsync       bool
	// IsPromiseAll marks an "async Promise.all (index N)" frame, PromiseIndex
	// holding N.
	IsPromiseAll bool
	PromiseIndex int
	// Generated marks a frame synthesized while capturing, rather than parsed.
	Generated bool
}

var (
	locationRe     = regexp.MustCompile(`^(.*):(\d+):(\d+)$`)
	lineLocationRe = regexp.MustCompile(`^(.*):(\d+)$`)
	aliasRe        = regexp.MustCompile(`^(.*) \[as ([^\]]+)\]$`)
	promiseIndexRe = regexp.MustCompile(`^index (\d+)$`)
)

// Parse extracts a call site from one textual stack frame. It never fails:
// input it cannot make sense of ends up in FunctionName with no location.
func Parse(line string) *CallSite {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "at ")

	c := &CallSite{}

	if rest, ok := strings.CutPrefix(s, "async "); ok {
		c.IsAsync = true
		s = rest
	}

	if rest, ok := strings.CutPrefix(s, "new "); ok {
		c.IsConstructor = true
		s = rest
	}

	if strings.HasSuffix(s, ")") {
		if open := matchingParen(s); open >= 0 {
			fn := strings.TrimSpace(s[:open])
			inner := s[open+1 : len(s)-1]

			switch {
			case strings.HasPrefix(inner, "eval at "):
				if c.parseEval(inner) {
					c.setFunction(fn)
					return c
				}
			case inner == "native":
				c.IsNative = true
				c.setFunction(fn)

				return c
			case promiseIndexRe.MatchString(inner):
				c.IsPromiseAll = true
				c.PromiseIndex, _ = strconv.Atoi(promiseIndexRe.FindStringSubmatch(inner)[1])
				c.setFunction(fn)

				return c
			default:
				if c.setLocation(inner) {
					c.setFunction(fn)
					return c
				}
			}
		}
	}

	if c.setLocation(s) {
		return c
	}

	c.setFunction(s)

	return c
}

// matchingParen returns the index of the "(" that balances the final ")".
func matchingParen(s string) int {
	depth := 0

	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

func (c *CallSite) parseEval(inner string) bool {
	idx := strings.LastIndex(inner, ", ")
	if idx < 0 {
		return false
	}

	origin := strings.TrimPrefix(inner[:idx], "eval at ")
	if !c.setLocation(inner[idx+2:]) {
		return false
	}

	c.EvalOrigin = Parse(origin)

	return true
}

func (c *CallSite) setLocation(loc string) bool {
	loc = strings.TrimPrefix(loc, "file://")

	if sub := locationRe.FindStringSubmatch(loc); sub != nil && sub[1] != "" {
		c.FileName = sub[1]
		c.LineNumber, _ = strconv.Atoi(sub[2])
		c.ColumnNumber, _ = strconv.Atoi(sub[3])

		return true
	}

	if sub := lineLocationRe.FindStringSubmatch(loc); sub != nil && sub[1] != "" && !strings.ContainsAny(sub[1], " ") {
		c.FileName = sub[1]
		c.LineNumber, _ = strconv.Atoi(sub[2])

		return true
	}

	return false
}

func (c *CallSite) setFunction(fn string) {
	c.FunctionName = fn
	if fn == "" {
		return
	}

	name := fn
	alias := ""

	if sub := aliasRe.FindStringSubmatch(fn); sub != nil {
		name, alias = sub[1], sub[2]
	}

	if idx := strings.Index(name, "."); idx > 0 {
		c.TypeName = name[:idx]
		c.MethodName = name[idx+1:]
	}

	if alias != "" {
		c.MethodName = alias
	}
}

// IsUseful reports whether the call site names a file, line and column.
func IsUseful(c *CallSite) bool {
	return c != nil && c.FileName != "" && c.LineNumber > 0 && c.ColumnNumber > 0
}

func (c *CallSite) location() string {
	loc := c.FileName
	if c.LineNumber > 0 {
		loc += ":" + strconv.Itoa(c.LineNumber)
		if c.ColumnNumber > 0 {
			loc += ":" + strconv.Itoa(c.ColumnNumber)
		}
	}

	return loc
}

func (c *CallSite) functionLabel() string {
	fn := c.FunctionName
	if c.IsConstructor {
		fn = "new " + fn
	}

	if c.IsAsync {
		fn = "async " + fn
	}

	return fn
}

// String renders the frame in canonical one-line form, without the "at " prefix.
func (c *CallSite) String() string {
	if c == nil {
		return ""
	}

	fn := c.functionLabel()

	switch {
	case c.EvalOrigin != nil:
		if fn == "" {
			fn = "eval"
		}

		return fn + " (eval at " + c.EvalOrigin.String() + ", " + c.location() + ")"
	case c.FileName != "":
		if fn == "" {
			return c.location()
		}

		return fn + " (" + c.location() + ")"
	case c.IsNative:
		if fn == "" {
			return "native"
		}

		return fn + " (native)"
	case c.IsPromiseAll:
		return fn + " (index " + strconv.Itoa(c.PromiseIndex) + ")"
	default:
		return fn
	}
}

// Equal compares call sites structurally.
func (c *CallSite) Equal(o *CallSite) bool {
	if c == nil || o == nil {
		return c == o
	}

	return c.FileName == o.FileName &&
		c.LineNumber == o.LineNumber &&
		c.ColumnNumber == o.ColumnNumber &&
		c.FunctionName == o.FunctionName &&
		c.IsNative == o.IsNative &&
		c.IsConstructor == o.IsConstructor &&
		c.IsAsync == o.IsAsync &&
		c.IsPromiseAll == o.IsPromiseAll &&
		c.PromiseIndex == o.PromiseIndex &&
		c.EvalOrigin.Equal(o.EvalOrigin)
}

// Record returns the plain-value form of the call site.
func (c *CallSite) Record() *m.Record {
	r := m.NewRecord()
	if c == nil {
		return r
	}

	if c.FileName != "" {
		r.Set("fileName", c.FileName)
	}

	if c.LineNumber > 0 {
		r.Set("lineNumber", c.LineNumber)
	}

	if c.ColumnNumber > 0 {
		r.Set("columnNumber", c.ColumnNumber)
	}

	if c.TypeName != "" {
		r.Set("typeName", c.TypeName)
	}

	if c.MethodName != "" {
		r.Set("methodName", c.MethodName)
	}

	if c.FunctionName != "" {
		r.Set("functionName", c.FunctionName)
	}

	if c.EvalOrigin != nil {
		r.Set("evalOrigin", c.EvalOrigin.Record())
	}

	if c.IsNative {
		r.Set("isNative", true)
	}

	if c.IsConstructor {
		r.Set("isConstructor", true)
	}

	if c.IsAsync {
		r.Set("isAsync", true)
	}

	if c.IsPromiseAll {
		r.Set("isPromiseAll", true)
		r.Set("promiseIndex", c.PromiseIndex)
	}

	if c.Generated {
		r.Set("generated", true)
	}

	return r
}

// MarshalYAML renders the plain-value form.
func (c *CallSite) MarshalYAML() (any, error) { return c.Record().MarshalYAML() }

// MarshalJSON renders the plain-value form.
func (c *CallSite) MarshalJSON() ([]byte, error) { return json.Marshal(c.Record()) }

// FromValue converts a *CallSite or its plain-value form back to a call
// site. Anything else yields nil.
func FromValue(v any) *CallSite {
	switch t := v.(type) {
	case *CallSite:
		return t
	case CallSite:
		return &t
	case map[string]any:
		return FromValue(m.RecordFromMap(t))
	case *m.Record:
		if t.Len() == 0 {
			return nil
		}

		c := &CallSite{
			FileName:     stringValue(t.Value("fileName")),
			LineNumber:   intValue(t.Value("lineNumber")),
			ColumnNumber: intValue(t.Value("columnNumber")),
			TypeName:     stringValue(t.Value("typeName")),
			MethodName:   stringValue(t.Value("methodName")),
			FunctionName: stringValue(t.Value("functionName")),
			EvalOrigin:   FromValue(t.Value("evalOrigin")),
		}
		c.IsNative, _ = t.Value("isNative").(bool)
		c.IsConstructor, _ = t.Value("isConstructor").(bool)
		c.IsAsync, _ = t.Value("isAsync").(bool)
		c.IsPromiseAll, _ = t.Value("isPromiseAll").(bool)
		c.PromiseIndex = intValue(t.Value("promiseIndex"))
		c.Generated, _ = t.Value("generated").(bool)

		return c
	default:
		return nil
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	}

	return 0
}

// Here synthesizes the call site of its caller, skip frames above it.
// Column information is not available from the Go runtime.
func Here(skip int) *CallSite {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return nil
	}

	c := &CallSite{FileName: relativeToWorkdir(file), LineNumber: line, Generated: true}

	if fn := runtime.FuncForPC(pc); fn != nil {
		c.setGoFunction(fn.Name())
	}

	return c
}

// setGoFunction splits a runtime function name such as
// "example.com/pkg.(*Type).Method" into type and method names.
func (c *CallSite) setGoFunction(name string) {
	c.FunctionName = name

	short := name
	if idx := strings.LastIndex(short, "/"); idx >= 0 {
		short = short[idx+1:]
	}

	_, rest, ok := strings.Cut(short, ".")
	if !ok {
		return
	}

	typ, method, ok := strings.Cut(rest, ".")
	if !ok {
		c.MethodName = rest
		return
	}

	c.TypeName = strings.Trim(typ, "(*)")
	c.MethodName = method
}

func relativeToWorkdir(file string) string {
	wd, err := os.Getwd()
	if err != nil {
		return file
	}

	rel, err := filepath.Rel(wd, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return file
	}

	return filepath.ToSlash(rel)
}

// ClearLocalGenerated drops the Generated flag from frames that live in the
// local tree (relative paths outside vendored dependencies) or have no file.
// Generated information is only worth showing for code that is not ours.
func ClearLocalGenerated(c *CallSite) {
	if c == nil {
		return
	}

	f := c.FileName
	if f == "" || !(filepath.IsAbs(f) || strings.HasPrefix(f, "node_modules") || strings.HasPrefix(f, "vendor/")) {
		c.Generated = false
	}
}
