package parser

import (
	"regexp"
	"strconv"
	"strings"

	m "taptree.dev/pkg/taptree/internal/model"
)

var (
	versionRe   = regexp.MustCompile(`^TAP version (\d+)\s*$`)
	planRe      = regexp.MustCompile(`^(\d+)\.\.(\d+)\s*(?:#\s*(.*))?$`)
	assertRe    = regexp.MustCompile(`^(not )?ok(?:\s+(\d+))?(?:\s+(.*?))?\s*$`)
	bailRe      = regexp.MustCompile(`^Bail out!\s*(.*)$`)
	pragmaRe    = regexp.MustCompile(`^pragma ([+-])(\w+)\s*$`)
	subtestRe   = regexp.MustCompile(`^# Subtest(?::\s*(.*?))?\s*$`)
	timeRe      = regexp.MustCompile(`^time=([0-9]+(?:\.[0-9]+)?)(ms|s)?$`)
	directiveRe = regexp.MustCompile(`(?i)^(skip|todo)\S*(?:\s+(.*))?$`)
	skipPlanRe  = regexp.MustCompile(`(?i)^skip\S*\s*`)
)

func parseVersion(s string) (int, bool) {
	sub := versionRe.FindStringSubmatch(s)
	if sub == nil {
		return 0, false
	}

	v, err := strconv.Atoi(sub[1])

	return v, err == nil
}

func parsePlan(s string) (m.Plan, bool) {
	sub := planRe.FindStringSubmatch(s)
	if sub == nil {
		return m.Plan{}, false
	}

	start, err1 := strconv.Atoi(sub[1])
	end, err2 := strconv.Atoi(sub[2])

	if err1 != nil || err2 != nil {
		return m.Plan{}, false
	}

	return m.Plan{Start: start, End: end, Comment: strings.TrimSpace(sub[3])}, true
}

// skipReason returns the reason of a skip-all plan comment ("skip: why").
func skipReason(comment string) string {
	return strings.TrimSpace(strings.TrimLeft(skipPlanRe.ReplaceAllString(comment, ""), ":"))
}

// parseAssert reads "ok|not ok [id] [- name] [# directives] [{]".
// hasID is false when the line carries no explicit id.
func parseAssert(s string) (res *m.Result, hasID bool, ok bool) {
	sub := assertRe.FindStringSubmatch(s)
	if sub == nil {
		return nil, false, false
	}

	res = &m.Result{OK: sub[1] == ""}

	if sub[2] != "" {
		res.ID, _ = strconv.Atoi(sub[2])
		hasID = true
	}

	rest := sub[3]

	if rest == "{" {
		res.Buffered = true
		rest = ""
	} else if r, found := strings.CutSuffix(rest, " {"); found {
		res.Buffered = true
		rest = strings.TrimRight(r, " ")
	}

	name, directives := splitDirectives(rest)
	if !applyDirectives(res, directives) {
		name = rest
	}

	name = strings.TrimLeft(name, " ")
	if n, found := strings.CutPrefix(name, "-"); found {
		name = strings.TrimLeft(n, " ")
	}

	res.Name = unescapeName(strings.TrimRight(name, " "))

	return res, hasID, true
}

// splitDirectives cuts s at its first unescaped " #" or leading "#".
func splitDirectives(s string) (name, directives string) {
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\':
			i++
		case s[i] == '#' && (i == 0 || s[i-1] == ' '):
			return s[:i], strings.TrimSpace(s[i+1:])
		}
	}

	return s, ""
}

// applyDirectives sets skip/todo/time from "SKIP why # time=1ms" style text.
// It reports false when text holds no recognizable directive, in which case
// the text belongs to the name.
func applyDirectives(res *m.Result, text string) bool {
	if text == "" {
		return true
	}

	segments := strings.Split(text, " # ")
	recognized := false

	for _, seg := range segments {
		seg = strings.TrimSpace(strings.TrimPrefix(seg, "#"))

		if sub := timeRe.FindStringSubmatch(seg); sub != nil {
			t, _ := strconv.ParseFloat(sub[1], 64)
			if sub[2] == "s" {
				t *= 1000
			}

			res.Time = &t
			recognized = true

			continue
		}

		if sub := directiveRe.FindStringSubmatch(seg); sub != nil {
			d := m.Directive{Set: true, Reason: strings.TrimSpace(sub[2])}
			if strings.EqualFold(sub[1], "skip") {
				res.Skip = d
			} else {
				res.Todo = d
			}

			recognized = true
		}
	}

	if !recognized {
		res.Time, res.Skip, res.Todo = nil, m.Directive{}, m.Directive{}
	}

	return recognized
}

func unescapeName(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder

	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '#' || s[i+1] == '\\') {
			i++
		}

		b.WriteByte(s[i])
	}

	return b.String()
}

func parseTimeComment(s string) (*float64, bool) {
	body, ok := strings.CutPrefix(s, "# ")
	if !ok {
		return nil, false
	}

	sub := timeRe.FindStringSubmatch(strings.TrimSpace(body))
	if sub == nil {
		return nil, false
	}

	t, _ := strconv.ParseFloat(sub[1], 64)
	if sub[2] == "s" {
		t *= 1000
	}

	return &t, true
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}
