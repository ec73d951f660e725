package extract

import (
	"strings"

	m "taptree.dev/pkg/taptree/internal/model"
	"taptree.dev/pkg/taptree/internal/stack"
)

// ReservedOptionPrefix marks options that only concern child tests.
const ReservedOptionPrefix = "tapChild"

// Extract builds the diagnostic record of a thrown value v. The result is
// seeded from extra, then from every option that is neither reserved nor
// already present in extra. Values that are not failure-shaped end up
// under "error".
//
// The only mutation of v is dropping "context" from a "source" record.
func Extract(v any, extra, options *m.Record) *m.Record {
	res := extra.Clone()
	MergeOptions(res, options)

	f, kind := Classify(v)
	if kind == Scalar {
		res.Set("error", v)
		return res
	}

	stripSourceContext(f.Props)

	frames := f.Frames
	if frames == nil && f.HasStack {
		frames = stack.Capture(f.Stack)
	}

	switch {
	case len(frames) > 0:
		at := stack.Representative(frames)
		stack.ClearLocalGenerated(at)

		res.Set("stack", stack.Join(frames))
		res.Set("at", at)
	case f.HasStack:
		// every frame was internal
		res.Set("stack", "")
		res.Set("at", nil)
	}

	if f.Name != "" && f.Name != GenericName {
		res.Set("type", f.Name)
	}

	f.Props.Range(func(k string, pv any) bool {
		if k != "message" && k != "name" && k != "stack" {
			res.Set(k, pv)
		}

		return true
	})

	if f.HasCause {
		res.Set("cause", nested(f.Cause, options))
	}

	if f.HasErrors {
		if seq, ok := sequence(f.Errors); ok {
			out := make([]any, len(seq))
			for i, sub := range seq {
				out[i] = nested(sub, options)
			}

			res.Set("errors", out)
		} else {
			res.Set("errors", f.Errors)
		}
	}

	return res
}

// MergeOptions copies into res every option whose key does not start with
// ReservedOptionPrefix and is not already set in res.
func MergeOptions(res, options *m.Record) {
	options.Range(func(k string, v any) bool {
		if !strings.HasPrefix(k, ReservedOptionPrefix) && !res.Has(k) {
			res.Set(k, v)
		}

		return true
	})
}

func nested(v any, options *m.Record) any {
	if _, kind := Classify(v); kind == Scalar {
		return v
	}

	return Extract(v, nil, options)
}

func sequence(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []error:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}

		return out, true
	default:
		return nil, false
	}
}

func stripSourceContext(props *m.Record) {
	src, ok := props.Value("source").(*m.Record)
	if ok && src.Has("context") {
		src.Delete("context")
	}
}

// FromErrorRecord is Extract for a Go error with no extra data.
func FromErrorRecord(err error) *m.Record {
	return Extract(err, nil, nil)
}
