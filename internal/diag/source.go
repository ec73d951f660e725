package diag

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"taptree.dev/pkg/taptree/internal/stack"
)

// renderSource shows the lines around at with a caret under its column.
//
//	lib/foo.js:3:5
//	  2 | const x = 1
//	  3 | assert(x === 2)
//	    | ----^
//	  4 | done()
func (c *Cleaner) renderSource(at *stack.CallSite) (string, bool) {
	if c.reader == nil || at.FileName == "" || at.LineNumber <= 0 || at.ColumnNumber <= 0 {
		return "", false
	}

	data, err := c.reader.ReadFile(at.FileName)
	if err != nil {
		slog.Debug("source not readable", "file", at.FileName, "error", err)
		return "", false
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if at.LineNumber > len(lines) {
		return "", false
	}

	first := max(1, at.LineNumber-c.context)
	last := min(len(lines), at.LineNumber+c.context)
	width := len(strconv.Itoa(last))

	var b strings.Builder

	fmt.Fprintf(&b, "%s:%d:%d\n", at.FileName, at.LineNumber, at.ColumnNumber)

	for n := first; n <= last; n++ {
		fmt.Fprintf(&b, "%*d | %s\n", width, n, lines[n-1])

		if n == at.LineNumber {
			fmt.Fprintf(&b, "%*s | %s^\n", width, "", strings.Repeat("-", at.ColumnNumber-1))
		}
	}

	return b.String(), true
}
