// Package extract builds diagnostic records from thrown values: Go errors,
// failure-shaped records decoded from a stream, and arbitrary scalars.
package extract

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	m "taptree.dev/pkg/taptree/internal/model"
	"taptree.dev/pkg/taptree/internal/stack"
)

// GenericName is the failure name that is not worth reporting as a type.
const GenericName = "Error"

// Kind classifies a thrown value by the optional fields it carries.
type Kind int

const (
	// Scalar is anything that is not failure-shaped.
	Scalar Kind = iota
	// Single is a failure with neither cause nor sub-failures.
	Single
	// Caused is a failure referencing the failure that triggered it.
	Caused
	// Composite is a failure bundling sub-failures, possibly with a cause.
	Composite
)

func (k Kind) String() string {
	switch k {
	case Single:
		return "single"
	case Caused:
		return "caused"
	case Composite:
		return "composite"
	default:
		return "scalar"
	}
}

// Failure is the failure-shaped view of a thrown value.
type Failure struct {
	Name    string
	Message string
	// Stack is the raw stack text. HasStack distinguishes "" from absent.
	Stack    string
	HasStack bool
	// Frames, when set, are used instead of parsing Stack.
	Frames []*stack.CallSite
	// Props holds every other own property, in order.
	Props *m.Record
	// Cause is a nested failure (*Failure, error, record) or a raw value.
	Cause    any
	HasCause bool
	// Errors is a sequence of nested failures and raw values, or any raw
	// value when the failure carries a non-sequence collection.
	Errors    any
	HasErrors bool
}

// Kind reports which union variant f is.
func (f *Failure) Kind() Kind {
	switch {
	case f == nil:
		return Scalar
	case f.HasErrors:
		return Composite
	case f.HasCause:
		return Caused
	default:
		return Single
	}
}

// Classify resolves v to its failure view. Scalars yield a nil Failure.
func Classify(v any) (*Failure, Kind) {
	var f *Failure

	switch t := v.(type) {
	case *Failure:
		f = t
	case error:
		f = FromError(t)
	case *m.Record:
		f = fromRecord(t)
	case map[string]any:
		f = fromRecord(m.RecordFromMap(t))
	}

	return f, f.Kind()
}

// Optional interfaces a Go error may implement to enrich its failure view.
type (
	named   interface{ Name() string }
	stacked interface{ Stack() string }
	fielded interface{ Fields() map[string]any }
)

var genericTypes = map[string]bool{
	"errors.errorString": true,
	"errors.joinError":   true,
	"fmt.wrapError":      true,
	"fmt.wrapErrors":     true,
}

// FromError builds the failure view of a Go error. Unwrap() error becomes
// the cause and Unwrap() []error the sub-failures. A nil error, including a
// nil pointer behind the interface, yields nil.
func FromError(err error) *Failure {
	if err == nil || isNil(err) {
		return nil
	}

	f := &Failure{Message: err.Error(), Name: typeName(err)}

	if n, ok := err.(named); ok && n.Name() != "" {
		f.Name = n.Name()
	}

	if s, ok := err.(stacked); ok {
		f.Stack, f.HasStack = s.Stack(), true
	}

	if fe, ok := err.(fielded); ok {
		f.Props = m.RecordFromMap(fe.Fields())
	} else {
		f.Props = structFields(err)
	}

	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		subs := u.Unwrap()
		seq := make([]any, 0, len(subs))
		for _, s := range subs {
			if s != nil && !isNil(s) {
				seq = append(seq, s)
			}
		}

		f.Errors, f.HasErrors = seq, true
	case interface{ Unwrap() error }:
		if c := u.Unwrap(); c != nil && !isNil(c) {
			f.Cause, f.HasCause = c, true
		}
	}

	return f
}

func isNil(v any) bool {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

func typeName(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.Name() == "" || genericTypes[t.String()] {
		return GenericName
	}

	return t.Name()
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// structFields copies exported scalar fields of a struct error, keyed in
// lowerCamel form. Error-typed fields are left to Unwrap.
func structFields(err error) *m.Record {
	r := m.NewRecord()

	v := reflect.ValueOf(err)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return r
		}

		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return r
	}

	t := v.Type()

	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Type.Implements(errorType) {
			continue
		}

		switch sf.Type.Kind() {
		case reflect.String, reflect.Bool,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			r.Set(lowerFirst(sf.Name), v.Field(i).Interface())
		}
	}

	return r
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	if strings.ToUpper(s) == s {
		return strings.ToLower(s)
	}

	return string(unicode.ToLower(r)) + s[size:]
}

func fromRecord(r *m.Record) *Failure {
	if r == nil {
		return nil
	}

	f := &Failure{Props: m.NewRecord()}

	r.Range(func(k string, v any) bool {
		switch k {
		case "name":
			f.Name, _ = v.(string)
		case "message":
			f.Message, _ = v.(string)
		case "stack":
			f.Stack, f.HasStack = v.(string)
		case "cause":
			f.Cause, f.HasCause = v, true
		case "errors":
			f.Errors, f.HasErrors = v, true
		default:
			f.Props.Set(k, v)
		}

		return true
	})

	return f
}
