package stack

import (
	"fmt"
	"regexp"
	"strings"
)

// minOverlap is the shortest run of shared frames worth eliding.
const minOverlap = 4

var (
	frameLineRe = regexp.MustCompile(`^\s*at\s`)
	goOffsetRe  = regexp.MustCompile(`\s\+0x[0-9a-f]+$`)
	goHeaderRe  = regexp.MustCompile(`^goroutine \d+ \[.*\]:$`)
)

// DefaultIgnore matches frames that never point at user-observable code:
// runtime internals of the process that produced the stack.
var DefaultIgnore = []*regexp.Regexp{
	regexp.MustCompile(`^node:`),
	regexp.MustCompile(`^internal/`),
	regexp.MustCompile(`(^|/)src/runtime/`),
	regexp.MustCompile(`(^|/)src/testing/`),
}

// DefaultIgnoreFunctions matches Go function names of internal frames.
var DefaultIgnoreFunctions = []*regexp.Regexp{
	regexp.MustCompile(`^runtime\.`),
	regexp.MustCompile(`^testing\.`),
	regexp.MustCompile(`^reflect\.`),
}

// ParseStack splits stack text into call sites. Header lines such as
// "Error: message" are skipped when the text contains "at ..." frames.
// Go traces ("goroutine 1 [running]:" with function/location line pairs)
// are recognized as well.
func ParseStack(text string) []*CallSite {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	if isGoTrace(lines) {
		return parseGoTrace(lines)
	}

	framed := false

	for _, l := range lines {
		if frameLineRe.MatchString(l) {
			framed = true
			break
		}
	}

	frames := make([]*CallSite, 0, len(lines))

	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}

		if framed && !frameLineRe.MatchString(l) {
			continue
		}

		frames = append(frames, Parse(l))
	}

	return frames
}

func isGoTrace(lines []string) bool {
	if len(lines) > 0 && goHeaderRe.MatchString(strings.TrimSpace(lines[0])) {
		return true
	}

	return len(lines) > 1 && strings.HasPrefix(lines[1], "\t") && strings.Contains(lines[1], ".go:")
}

func parseGoTrace(lines []string) []*CallSite {
	var frames []*CallSite

	for i := 0; i < len(lines); i++ {
		fn := strings.TrimSpace(lines[i])
		if fn == "" || goHeaderRe.MatchString(fn) {
			continue
		}

		c := &CallSite{}

		if open := matchingParen(fn); open > 0 && strings.HasSuffix(fn, ")") {
			fn = fn[:open]
		}

		c.setGoFunction(fn)

		if i+1 < len(lines) && strings.HasPrefix(lines[i+1], "\t") {
			i++
			c.setLocation(goOffsetRe.ReplaceAllString(strings.TrimSpace(lines[i]), ""))
		}

		frames = append(frames, c)
	}

	return frames
}

// Internal reports whether a frame belongs to runtime internals.
func Internal(c *CallSite) bool {
	if c == nil {
		return true
	}

	for _, re := range DefaultIgnore {
		if c.FileName != "" && re.MatchString(c.FileName) {
			return true
		}
	}

	if !strings.HasSuffix(c.FileName, ".go") {
		return false
	}

	for _, re := range DefaultIgnoreFunctions {
		if re.MatchString(c.FunctionName) {
			return true
		}
	}

	return false
}

// Filter drops internal frames, keeping order.
func Filter(frames []*CallSite) []*CallSite {
	out := make([]*CallSite, 0, len(frames))

	for _, f := range frames {
		if !Internal(f) {
			out = append(out, f)
		}
	}

	return out
}

// Capture returns the user-observable frames of stack text. An empty result
// for non-empty text means every frame was internal.
func Capture(text string) []*CallSite {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	return Filter(ParseStack(text))
}

// Representative returns the first useful frame, falling back to the first
// frame, or nil when there are none.
func Representative(frames []*CallSite) *CallSite {
	for _, f := range frames {
		if IsUseful(f) {
			return f
		}
	}

	if len(frames) > 0 {
		return frames[0]
	}

	return nil
}

// Join renders frames one per line.
func Join(frames []*CallSite) string {
	lines := make([]string, len(frames))
	for i, f := range frames {
		lines[i] = f.String()
	}

	return strings.Join(lines, "\n")
}

// Overlap locates a run of frames shared by a failure and its cause.
// Offset indexes the failure frames, Pos the cause frames.
type Overlap struct {
	Offset int
	Pos    int
	Len    int
}

// OverlapRange finds the first run of at least four consecutive frames that
// starts early in frames and reappears in causeFrames after more than three
// unmatched cause frames. Len is zero when there is no such run.
func OverlapRange(frames, causeFrames []*CallSite) Overlap {
	for i := 0; i < len(frames)-(minOverlap-1); i++ {
		pos := indexOf(causeFrames, frames[i])
		if pos < minOverlap {
			continue
		}

		rest := len(causeFrames) - pos
		maxLen := min(len(frames)-i, rest)

		n := 1
		for n < maxLen && frames[i+n].Equal(causeFrames[pos+n]) {
			n++
		}

		if n >= minOverlap {
			return Overlap{Offset: i, Pos: pos, Len: n}
		}
	}

	return Overlap{}
}

func indexOf(frames []*CallSite, f *CallSite) int {
	for i, c := range frames {
		if c.Equal(f) {
			return i
		}
	}

	return -1
}

// Elision is the display form of a cause stack. Header holds the elision
// marker when a shared run was found; Body holds the cause frames with the
// run replaced by that marker.
type Elision struct {
	Header string
	Body   []string
}

// ElideOverlap renders causeFrames, replacing the run it shares with frames
// by a single "... N lines matching cause trace ..." marker, where N is the
// run length minus two. The frames themselves are not modified.
func ElideOverlap(frames, causeFrames []*CallSite) Elision {
	o := OverlapRange(frames, causeFrames)
	if o.Len == 0 {
		body := make([]string, len(causeFrames))
		for i, c := range causeFrames {
			body[i] = c.String()
		}

		return Elision{Body: body}
	}

	marker := fmt.Sprintf("... %d lines matching cause trace ...", o.Len-2)
	body := make([]string, 0, len(causeFrames)-o.Len+1)

	for _, c := range causeFrames[:o.Pos] {
		body = append(body, c.String())
	}

	body = append(body, marker)

	for _, c := range causeFrames[o.Pos+o.Len:] {
		body = append(body, c.String())
	}

	return Elision{Header: marker, Body: body}
}
