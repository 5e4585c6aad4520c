package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. Numeric and currency columns align
// right.
type column struct {
	header  string
	numeric bool
}

var (
	jobColumns = []column{
		{header: "ID", numeric: true},
		{header: "Title"},
		{header: "Status"},
		{header: "Budget", numeric: true},
		{header: "Industry"},
		{header: "Created"},
	}
	selectionColumns = []column{
		{header: "Role"},
		{header: "Actor"},
		{header: "Salary", numeric: true},
		{header: "Box office", numeric: true},
		{header: "Rating", numeric: true},
		{header: "Risk", numeric: true},
	}
	statsColumns = []column{
		{header: "Status"},
		{header: "Jobs", numeric: true},
	}
)

// renderTable draws rows under columns. A non-empty footer is rendered as a
// separate summary row; short rows are padded with blanks.
func renderTable(columns []column, rows [][]string, footer []string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.header
		align := text.AlignLeft
		if col.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignFooter: align,
			AlignHeader: text.AlignLeft,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		tw.AppendRow(padRow(row, len(columns)))
	}
	if len(footer) > 0 {
		tw.AppendFooter(padRow(footer, len(columns)))
	}
	return tw.Render()
}

func padRow(values []string, width int) table.Row {
	row := make(table.Row, width)
	for i := range row {
		if i < len(values) {
			row[i] = values[i]
		} else {
			row[i] = ""
		}
	}
	return row
}
