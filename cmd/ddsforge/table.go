package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. Numbers and extents are right aligned;
// paths get a width cap so long asset paths wrap instead of stretching the
// table.
type column struct {
	title    string
	align    text.Align
	maxWidth int
}

func textCol(title string) column   { return column{title: title, align: text.AlignLeft} }
func numberCol(title string) column { return column{title: title, align: text.AlignRight} }
func pathCol(title string) column {
	return column{title: title, align: text.AlignLeft, maxWidth: 60}
}

// renderTable renders rows under columns. A non-empty footer is added as a
// summary row; missing cells render empty.
func renderTable(columns []column, rows [][]string, footer ...string) string {
	if len(columns) == 0 {
		return ""
	}
	cells := func(values []string) table.Row {
		row := make(table.Row, len(columns))
		for i := range row {
			if i < len(values) {
				row[i] = values[i]
			} else {
				row[i] = ""
			}
		}
		return row
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault

	header := make([]string, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.title
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       c.align,
			AlignHeader: c.align,
			AlignFooter: c.align,
		}
		if c.maxWidth > 0 {
			configs[i].WidthMax = c.maxWidth
			configs[i].WidthMaxEnforcer = text.WrapHard
		}
	}
	tw.AppendHeader(cells(header))
	for _, row := range rows {
		tw.AppendRow(cells(row))
	}
	if len(footer) > 0 {
		tw.AppendFooter(cells(footer))
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
