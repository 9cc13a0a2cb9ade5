package formatting

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Status cell values the table formatter colors.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
	out     io.Writer
}

// Format renders t as a rounded table followed by a row count.
func (f *TableFormatter) Format(t Table) error {
	if len(t.Rows) == 0 {
		msg := t.Empty
		if msg == "" {
			msg = "No items found"
		}
		_, err := fmt.Fprintln(f.out, f.color(text.FgYellow, msg))
		return err
	}

	tw := f.createTable()
	header := make(table.Row, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = f.color(text.FgHiCyan, strings.ToUpper(h))
	}
	tw.AppendHeader(header)

	for _, row := range t.Rows {
		r := make(table.Row, len(row))
		for i, cell := range row {
			r[i] = f.cell(cell)
		}
		tw.AppendRow(r)
	}
	tw.Render()

	if !f.options.Quiet {
		_, err := fmt.Fprintf(f.out, "%s %s\n", f.color(text.FgHiBlue, "Total:"), f.color(text.FgHiWhite, fmt.Sprint(len(t.Rows))))
		return err
	}
	return nil
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) cell(value string) string {
	switch value {
	case StatusOK:
		return f.color(text.FgGreen, value)
	case StatusFailed:
		return f.color(text.FgRed, value)
	}
	return value
}

func (f *TableFormatter) color(c text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return c.Sprint(s)
}
