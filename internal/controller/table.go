package controller

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"

	m "taptree.dev/pkg/taptree/internal/model"
)

const (
	statusOK      = "ok"
	statusNotOK   = "not ok"
	statusBailed  = "bailed out"
	statusBroken  = "error"
	statusPartial = "incomplete"
)

// SummaryTable renders one row per input with its root tallies and a
// footer with the totals.
func SummaryTable(summaries []m.Summary) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Input", "Status", "Pass", "Fail", "Skip", "Todo", "Time"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoFormatHeaders(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})

	var total m.FinalResults

	okCount := 0

	for _, s := range summaries {
		if s.OK() {
			okCount++
		}

		f := s.Final
		if f == nil {
			table.Append([]string{string(s.Name), status(s), "-", "-", "-", "-", "-"})
			continue
		}

		total.Pass += f.Pass
		total.Fail += f.Fail
		total.Skip += f.Skip
		total.Todo += f.Todo

		table.Append([]string{
			string(s.Name), status(s),
			strconv.Itoa(f.Pass), strconv.Itoa(f.Fail), strconv.Itoa(f.Skip), strconv.Itoa(f.Todo),
			formatTime(f.Time),
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total %d", len(summaries)),
		fmt.Sprintf("%d ok", okCount),
		strconv.Itoa(total.Pass), strconv.Itoa(total.Fail), strconv.Itoa(total.Skip), strconv.Itoa(total.Todo),
		"",
	})

	table.Render()

	return tableBuffer.String()
}

func status(s m.Summary) string {
	switch {
	case s.Err != nil:
		return statusBroken
	case s.Final == nil:
		return statusPartial
	case s.Final.Bailout:
		return statusBailed
	case s.Final.OK:
		return statusOK
	default:
		return statusNotOK
	}
}

func formatTime(t *float64) string {
	if t == nil {
		return "-"
	}

	return strconv.FormatFloat(*t, 'f', -1, 64) + "ms"
}
