// Package preview renders sheet updates and cached prices as terminal tables.
package preview

import (
	"context"
	"fmt"
	"io"
	"strings"

	"ocean_tracker/internal/pricecache"
	"ocean_tracker/internal/report"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Printer is a dry-run publisher: it prints what would be written instead
// of touching the spreadsheet.
type Printer struct {
	w io.Writer
	// MaxColWidth wraps wide cells such as HYPERLINK formulas. Default 40.
	MaxColWidth int
	Color       bool
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(p.w)
	if p.Color {
		tw.SetStyle(table.StyleColoredDark)
	} else {
		tw.SetStyle(table.StyleLight)
	}
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	return tw
}

func (p *Printer) Publish(ctx context.Context, update report.SheetUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fmt.Fprintln(p.w, text.Bold.Sprint(strings.ToUpper(update.SheetName)))

	// title lines above the column names
	header := update.HeaderRows
	if header > len(update.Rows) {
		header = len(update.Rows)
	}
	for i := 0; i < header-1; i++ {
		if line := strings.TrimSpace(fmt.Sprint(update.Rows[i][0])); line != "" {
			fmt.Fprintln(p.w, line)
		}
	}

	tw := p.newTable()
	if header > 0 {
		tw.AppendHeader(tableRow(update.Rows[header-1]))
	}

	maxWidth := p.MaxColWidth
	if maxWidth <= 0 {
		maxWidth = 40
	}
	cfgs := make([]table.ColumnConfig, 0, update.Columns)
	for i := 0; i < update.Columns; i++ {
		cfgs = append(cfgs, table.ColumnConfig{Number: i + 1, WidthMax: maxWidth})
	}
	tw.SetColumnConfigs(cfgs)

	data := update.Rows[header:]
	for i, row := range data {
		if i == update.DataRows {
			tw.AppendFooter(tableRow(row))
			continue
		}
		tw.AppendRow(tableRow(row))
	}

	tw.Render()
	fmt.Fprintln(p.w)
	return nil
}

func tableRow(cells []interface{}) table.Row {
	row := make(table.Row, len(cells))
	copy(row, cells)
	return row
}

// RenderCache prints cached prices in key order.
func RenderCache(w io.Writer, entries []pricecache.Entry) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.Style().Options.DrawBorder = false
	tw.AppendHeader(table.Row{"TIMESTAMP (UTC)", "PRICE"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignRight},
	})

	for _, e := range entries {
		tw.AppendRow(table.Row{e.Key, report.FormatUSD(e.Price)})
	}
	tw.AppendFooter(table.Row{fmt.Sprintf("%d entries", len(entries)), ""})
	tw.Render()
}
