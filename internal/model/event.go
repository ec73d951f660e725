// Package model defines the data structures of the test protocol: events,
// test point results, plans, level summaries and diagnostic records.
package model

import (
	"encoding/json"
)

// EventType tags an Event.
type EventType string

const (
	// EventVersion declares the protocol version (root level only).
	EventVersion EventType = "version"
	// EventPlan declares the expected test point range for a level.
	EventPlan EventType = "plan"
	// EventComment carries a comment line, including its leading "#" and trailing newline.
	EventComment EventType = "comment"
	// EventAssert carries one test point Result.
	EventAssert EventType = "assert"
	// EventChild carries the complete event stream of a nested subtest.
	EventChild EventType = "child"
	// EventComplete carries the FinalResults of a level.
	EventComplete EventType = "complete"
	// EventBail signals a bailout with an optional reason.
	EventBail EventType = "bail"
	// EventFinish follows complete.
	EventFinish EventType = "finish"
	// EventClose ends a level.
	EventClose EventType = "close"
	// EventExtra is an opaque passthrough of a line that is not protocol.
	EventExtra EventType = "extra"
)

// Event is one structured record in a parsed protocol stream. Only the
// payload field matching Type is populated.
type Event struct {
	Type     EventType
	Version  int
	Plan     *Plan
	Comment  string
	Result   *Result
	Children []Event
	Final    *FinalResults
	Reason   string
	Raw      string
}

// VersionEvent builds a version event.
func VersionEvent(v int) Event { return Event{Type: EventVersion, Version: v} }

// PlanEvent builds a plan event.
func PlanEvent(p Plan) Event { return Event{Type: EventPlan, Plan: &p} }

// CommentEvent builds a comment event.
func CommentEvent(c string) Event { return Event{Type: EventComment, Comment: c} }

// AssertEvent builds an assert event.
func AssertEvent(r *Result) Event { return Event{Type: EventAssert, Result: r} }

// ChildEvent builds a child event.
func ChildEvent(children []Event) Event { return Event{Type: EventChild, Children: children} }

// CompleteEvent builds a complete event.
func CompleteEvent(f *FinalResults) Event { return Event{Type: EventComplete, Final: f} }

// BailEvent builds a bail event.
func BailEvent(reason string) Event { return Event{Type: EventBail, Reason: reason} }

// ExtraEvent builds a passthrough event for a non-protocol line.
func ExtraEvent(raw string) Event { return Event{Type: EventExtra, Raw: raw} }

// FinishEvent builds a finish event.
func FinishEvent() Event { return Event{Type: EventFinish} }

// CloseEvent builds a close event.
func CloseEvent() Event { return Event{Type: EventClose} }

// payload returns the value rendered next to the tag when serializing.
func (e Event) payload() any {
	switch e.Type {
	case EventVersion:
		return e.Version
	case EventPlan:
		return e.Plan
	case EventComment:
		return e.Comment
	case EventAssert:
		return e.Result
	case EventChild:
		return e.Children
	case EventComplete:
		return e.Final
	case EventBail:
		return e.Reason
	case EventExtra:
		return e.Raw
	default:
		return nil
	}
}

// MarshalYAML renders the event as a [type, payload] pair.
func (e Event) MarshalYAML() (any, error) {
	if p := e.payload(); p != nil {
		return []any{string(e.Type), p}, nil
	}

	return []any{string(e.Type)}, nil
}

// MarshalJSON renders the event as a [type, payload] pair.
func (e Event) MarshalJSON() ([]byte, error) {
	if p := e.payload(); p != nil {
		return json.Marshal([]any{string(e.Type), p})
	}

	return json.Marshal([]any{string(e.Type)})
}

// Plan declares the expected test point id range of a level.
type Plan struct {
	Start   int    `yaml:"start" json:"start"`
	End     int    `yaml:"end" json:"end"`
	Comment string `yaml:"comment" json:"comment"`
}

// Directive is a SKIP or TODO marker: unset, set without reason, or set with a reason.
type Directive struct {
	Set    bool
	Reason string
}

// Reasoned returns a directive carrying reason; an empty reason still marks it set.
func Reasoned(reason string) Directive {
	return Directive{Set: true, Reason: reason}
}

// Value returns false, true, or the reason string.
func (d Directive) Value() any {
	if !d.Set {
		return false
	}

	if d.Reason != "" {
		return d.Reason
	}

	return true
}

// MarshalYAML renders false, true or the reason.
func (d Directive) MarshalYAML() (any, error) { return d.Value(), nil }

// MarshalJSON renders false, true or the reason.
func (d Directive) MarshalJSON() ([]byte, error) { return json.Marshal(d.Value()) }

// Result is one reported test point.
type Result struct {
	ID       int       `yaml:"id" json:"id"`
	Name     string    `yaml:"name" json:"name"`
	Fullname string    `yaml:"fullname" json:"fullname"`
	OK       bool      `yaml:"ok" json:"ok"`
	Skip     Directive `yaml:"skip" json:"skip"`
	Todo     Directive `yaml:"todo" json:"todo"`
	Buffered bool      `yaml:"buffered" json:"buffered"`
	Time     *float64  `yaml:"time" json:"time"`
	Diag     *Record   `yaml:"diag" json:"diag"`
	TapError string    `yaml:"tapError,omitempty" json:"tapError,omitempty"`
	Plan     *Plan     `yaml:"plan,omitempty" json:"plan,omitempty"`
	Previous *Result   `yaml:"previous,omitempty" json:"previous,omitempty"`
}

// FinalPlan is the plan as resolved at the end of a level.
type FinalPlan struct {
	Start      int    `yaml:"start" json:"start"`
	End        int    `yaml:"end" json:"end"`
	SkipAll    bool   `yaml:"skipAll" json:"skipAll"`
	SkipReason string `yaml:"skipReason" json:"skipReason"`
	Comment    string `yaml:"comment" json:"comment"`
}

// FinalResults summarizes a level once it is complete.
type FinalResults struct {
	OK       bool      `yaml:"ok" json:"ok"`
	Count    int       `yaml:"count" json:"count"`
	Pass     int       `yaml:"pass" json:"pass"`
	Fail     int       `yaml:"fail" json:"fail"`
	Skip     int       `yaml:"skip" json:"skip"`
	Todo     int       `yaml:"todo" json:"todo"`
	Bailout  bool      `yaml:"bailout" json:"bailout"`
	Plan     FinalPlan `yaml:"plan" json:"plan"`
	Failures []*Result `yaml:"failures" json:"failures"`
	Skips    []*Result `yaml:"skips" json:"skips"`
	Todos    []*Result `yaml:"todos" json:"todos"`
	Passes   []*Result `yaml:"passes,omitempty" json:"passes,omitempty"`
	Time     *float64  `yaml:"time" json:"time"`
}
