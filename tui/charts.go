// charts.go turns a QueryResult into its three display forms: an aligned
// table, a line chart, and a bar chart (ntcharts).
//
// Chart rules follow the transcript contract: the first column is the
// category axis when the result has more than one column, and the first
// numeric column after it supplies the values.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"
	"github.com/charmbracelet/lipgloss"

	"snowchat/snowflake"
)

const maxCellWidth = 32

// renderTable renders the raw result as aligned columns.
func renderTable(res *snowflake.QueryResult) []string {
	if len(res.Columns) == 0 {
		return []string{StyleDimmed.Render("(no columns)")}
	}

	widths := make([]int, len(res.Columns))
	for i, col := range res.Columns {
		widths[i] = len(col)
	}
	for _, row := range res.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	for i := range widths {
		if widths[i] > maxCellWidth {
			widths[i] = maxCellWidth
		}
	}

	pad := func(s string, w int) string {
		if len(s) > w {
			s = s[:w-1] + "…"
		}
		if n := w - lipgloss.Width(s); n > 0 {
			return s + strings.Repeat(" ", n)
		}
		return s
	}

	var lines []string

	var header strings.Builder
	var rule strings.Builder
	for i, col := range res.Columns {
		header.WriteString(pad(col, widths[i]) + "  ")
		rule.WriteString(strings.Repeat("─", widths[i]) + "  ")
	}
	lines = append(lines, StyleBold.Render(strings.TrimRight(header.String(), " ")))
	lines = append(lines, StyleDimmed.Render(strings.TrimRight(rule.String(), " ")))

	for _, row := range res.Rows {
		var b strings.Builder
		for i, cell := range row {
			if i < len(widths) {
				b.WriteString(pad(cell, widths[i]) + "  ")
			}
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}

	lines = append(lines, StyleDimmed.Render(fmt.Sprintf("(%d row%s)", res.RowCount, pluralSuffix(res.RowCount))))
	return lines
}

// renderLineChart plots the value series as a line.
func renderLineChart(res *snowflake.QueryResult, width, height int) []string {
	_, values, ok := numericSeries(res)
	if !ok {
		return []string{StyleDimmed.Render("(no numeric column to chart)")}
	}

	chart := streamlinechart.New(width, height)
	for _, v := range values {
		chart.Push(v)
	}
	chart.Draw()
	return strings.Split(chart.View(), "\n")
}

// renderBarChart plots one bar per row, labeled by the category column.
func renderBarChart(res *snowflake.QueryResult, width, height int) []string {
	labels, values, ok := numericSeries(res)
	if !ok {
		return []string{StyleDimmed.Render("(no numeric column to chart)")}
	}

	chart := barchart.New(width, height)
	for i, v := range values {
		chart.Push(barchart.BarData{
			Label: labels[i],
			Values: []barchart.BarValue{
				{Name: labels[i], Value: v, Style: StyleSuccess},
			},
		})
	}
	chart.Draw()
	return strings.Split(chart.View(), "\n")
}

// numericSeries extracts the chartable series: labels from the first
// column when the result has more than one column (row numbers
// otherwise), values from the first column that parses as numeric.
func numericSeries(res *snowflake.QueryResult) (labels []string, values []float64, ok bool) {
	if len(res.Rows) == 0 {
		return nil, nil, false
	}

	valueCol := -1
	start := 0
	if len(res.Columns) > 1 {
		start = 1 // first column is the category axis
	}
	for col := start; col < len(res.Columns); col++ {
		if _, err := strconv.ParseFloat(res.Rows[0][col], 64); err == nil {
			valueCol = col
			break
		}
	}
	if valueCol == -1 {
		return nil, nil, false
	}

	for i, row := range res.Rows {
		v, err := strconv.ParseFloat(row[valueCol], 64)
		if err != nil {
			v = 0
		}
		values = append(values, v)

		if len(res.Columns) > 1 {
			labels = append(labels, row[0])
		} else {
			labels = append(labels, strconv.Itoa(i+1))
		}
	}
	return labels, values, true
}

func pluralSuffix(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
