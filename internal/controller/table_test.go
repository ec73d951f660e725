package controller

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	m "taptree.dev/pkg/taptree/internal/model"
)

func ptr(f float64) *float64 { return &f }

func TestSummaryTable(t *testing.T) {
	summaries := []m.Summary{
		{Name: "a.tap", Final: &m.FinalResults{OK: true, Count: 3, Pass: 2, Skip: 1, Time: ptr(12.5)}},
		{Name: "b.tap", Final: &m.FinalResults{Count: 2, Pass: 1, Fail: 1, Todo: 1}},
		{Name: "c.tap", Final: &m.FinalResults{Bailout: true, Fail: 1}},
		{Name: "d.tap"},
		{Name: "e.tap", Err: errors.New("boom")},
	}

	table := SummaryTable(summaries)
	lines := strings.Split(strings.TrimRight(table, "\n"), "\n")

	assert.Contains(t, lines[0], "Input")
	assert.Contains(t, lines[0], "Status")

	row := func(name string) string {
		for _, l := range lines {
			if strings.Contains(l, name) {
				return l
			}
		}

		return ""
	}

	assert.Regexp(t, `a\.tap\s+ok\s+2\s+0\s+1\s+0\s+12\.5ms`, row("a.tap"))
	assert.Regexp(t, `b\.tap\s+not ok\s+1\s+1\s+0\s+1\s+-`, row("b.tap"))
	assert.Contains(t, row("c.tap"), "bailed out")
	assert.Contains(t, row("d.tap"), "incomplete")
	assert.Contains(t, row("e.tap"), "error")

	footer := lines[len(lines)-1]
	assert.Contains(t, footer, "Total 5")
	assert.Contains(t, footer, "1 ok")
	assert.Regexp(t, `3\s+2\s+1\s+1`, footer)
}

func TestSummaryTable_Empty(t *testing.T) {
	table := SummaryTable(nil)

	assert.Contains(t, table, "Total 0")
}
