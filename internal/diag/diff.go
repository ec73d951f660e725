package diag

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"
)

var compareAll = cmp.Exporter(func(reflect.Type) bool { return true })

// sameNumber compares numbers of any Go kind by value, so an int found and
// a float64 wanted holding 1 are equal.
var sameNumber = cmp.FilterValues(
	func(a, b any) bool {
		_, okA := number(a)
		_, okB := number(b)

		return okA && okB
	},
	cmp.Comparer(func(a, b any) bool {
		x, _ := number(a)
		y, _ := number(b)

		return x == y
	}),
)

func number(v any) (float64, bool) {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

// Equivalent reports whether found and wanted show the same value. A string
// and a number are equivalent when the number renders as that string, and
// numbers of different kinds when they hold the same value.
func Equivalent(found, wanted any) bool {
	if s, ok := found.(string); ok {
		if n, ok := numberString(wanted); ok {
			return s == n
		}
	}

	if s, ok := wanted.(string); ok {
		if n, ok := numberString(found); ok {
			return s == n
		}
	}

	return cmp.Equal(found, wanted, compareAll, sameNumber)
}

func numberString(v any) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32), true
	default:
		return "", false
	}
}

// Diff renders a unified diff from wanted (expected) to found (actual).
func Diff(found, wanted any) string {
	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(render(wanted)),
		B:        difflib.SplitLines(render(found)),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	}

	text, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return "--- expected\n+++ actual\n"
	}

	return text
}

func render(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	out, err := yaml.Marshal(v)
	if err != nil {
		return strings.TrimSpace(strconv.Quote(err.Error()))
	}

	return strings.TrimRight(string(out), "\n")
}
