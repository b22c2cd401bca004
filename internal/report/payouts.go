package report

import (
	"context"

	"github.com/rs/zerolog/log"
)

// PayoutsSchema is the input contract for payout exports. Columns other than
// these are carried through after the fixed columns.
var PayoutsSchema = Schema{
	Dataset: "payouts",
	Fields: []Field{
		{Name: inTime, Required: true},
		{Name: inAmount, Required: true},
		{Name: inTx, Aliases: []string{"Transaction ID", "TXID"}},
	},
}

const (
	colPrice     = "BTC Price (USD)"
	colCostBasis = "Cost Basis (USD)"
	colGainLoss  = "Gain/Loss (USD)"
)

// PayoutsColumns is the fixed leading layout of the payouts sheet. Cost basis
// is always the 5th column and gain/loss the 6th, whatever the export order.
var PayoutsColumns = []string{
	inTime,
	inTx,
	inAmount,
	colPrice,
	colCostBasis,
	colGainLoss,
}

// payoutTotals are the columns that get a SUM in the totals row.
var payoutTotals = map[string]bool{
	inAmount:     true,
	colCostBasis: true,
	colGainLoss:  true,
}

const txExplorerURL = "https://mempool.space/tx/"

// BuildPayouts enriches a payouts table. Cost basis and gain/loss are literal
// numbers computed here, left empty when the amount or a price is missing.
func BuildPayouts(ctx context.Context, table RawTable, prices PriceSource, opts Options) (SheetUpdate, error) {
	idx, err := PayoutsSchema.Bind(table.Columns)
	if err != nil {
		log.Error().Err(err).Strs("columns", table.Columns).Msg("Payouts table does not match schema")
		return SheetUpdate{}, err
	}

	columns, extras := payoutColumns(table.Columns)
	header := headerBlock(columns, opts)
	layout := Layout{HeaderRows: len(header)}
	n := len(table.Rows)

	rows := make([][]interface{}, 0, len(header)+n+1)
	rows = append(rows, header...)

	skipped := 0
	for i, raw := range table.Rows {
		row, computed := payoutRow(ctx, raw, idx, extras, prices, opts)
		if !computed {
			skipped++
			log.Debug().Int("row", layout.DataRow(i)).Msg("Payout row left without cost basis")
		}
		rows = append(rows, row)
	}

	if n > 0 {
		rows = append(rows, payoutTotalsRow(columns, layout, n))
	}

	log.Debug().
		Int("rows", n).
		Int("without_cost_basis", skipped).
		Int("extra_columns", len(extras)).
		Msg("Built payout rows")

	return SheetUpdate{
		SheetName:  opts.SheetName,
		Columns:    len(columns),
		Rows:       rows,
		HeaderRows: layout.HeaderRows,
		DataRows:   n,
		Format:     payoutFormatting(layout, n),
	}, nil
}

// payoutColumns returns the output header and the input indexes of the extra
// columns, in source order.
func payoutColumns(input []string) ([]string, []int) {
	columns := append([]string(nil), PayoutsColumns...)
	var extras []int
	for i, c := range input {
		name := cleanText(c)
		if name == "" || PayoutsSchema.known(name) || name == colPrice || name == colCostBasis || name == colGainLoss {
			continue
		}
		columns = append(columns, name)
		extras = append(extras, i)
	}
	return columns, extras
}

// payoutRow builds one data row. computed is false when cost basis was skipped.
func payoutRow(ctx context.Context, raw []string, idx map[string]int, extras []int, prices PriceSource, opts Options) ([]interface{}, bool) {
	row := make([]interface{}, 0, len(PayoutsColumns)+len(extras))

	rawTime := field(raw, idx, inTime)
	ts, timeOK := parseTime(rawTime)
	if timeOK {
		row = append(row, ts.Format(displayTimeLayout))
	} else {
		row = append(row, cleanText(rawTime))
	}

	if tx := cleanText(field(raw, idx, inTx)); tx != "" {
		row = append(row, hyperlink(txExplorerURL+tx, tx))
	} else {
		row = append(row, "")
	}

	amount, amountOK := parseNumber(field(raw, idx, inAmount))
	if amountOK {
		row = append(row, amount)
	} else {
		row = append(row, cleanText(field(raw, idx, inAmount)))
	}

	var historical float64
	priceOK := false
	if timeOK {
		historical, priceOK = prices.Historical(ctx, ts)
	}
	if priceOK {
		row = append(row, historical)
	} else {
		row = append(row, "")
	}

	var costBasis, gainLoss interface{} = "", ""
	if amountOK && priceOK {
		costBasis = amount * historical
		if opts.HasCurrentPrice {
			gainLoss = amount * (opts.CurrentPrice - historical)
		}
	}
	row = append(row, costBasis, gainLoss)

	for _, i := range extras {
		if i < len(raw) {
			row = append(row, cleanText(raw[i]))
		} else {
			row = append(row, "")
		}
	}
	return row, amountOK && priceOK
}

func payoutTotalsRow(columns []string, layout Layout, n int) []interface{} {
	row := make([]interface{}, len(columns))
	for i, name := range columns {
		switch {
		case i == 0:
			row[i] = "Total"
		case payoutTotals[name]:
			row[i] = layout.SumFormula(i+1, n)
		default:
			row[i] = ""
		}
	}
	return row
}

func payoutFormatting(layout Layout, n int) Formatting {
	h := layout.HeaderRows
	f := Formatting{
		Styles: []TextStyle{
			{Range: GridRange{StartRow: 0, EndRow: 2}, Bold: true, Align: "LEFT"},
		},
		Wrap: []GridRange{
			{StartRow: h - 1, EndRow: h},
		},
	}
	if n == 0 {
		return f
	}

	col := func(name string) int {
		for i, c := range PayoutsColumns {
			if c == name {
				return i
			}
		}
		return -1
	}
	amount, price, gainLoss := col(inAmount), col(colPrice), col(colGainLoss)

	totals := layout.TotalsRow(n) - 1
	f.Merges = append(f.Merges, GridRange{StartRow: totals, EndRow: totals + 1, StartColumn: 0, EndColumn: amount})
	f.Styles = append(f.Styles, TextStyle{Range: GridRange{StartRow: totals, EndRow: totals + 1}, Bold: true, Align: "RIGHT"})
	f.NumberFormats = append(f.NumberFormats,
		NumberFormat{
			Range: GridRange{StartRow: h, EndRow: totals, StartColumn: 0, EndColumn: 1},
			Type:  "DATE_TIME",
		},
		NumberFormat{
			Range:   GridRange{StartRow: h, EndRow: totals + 1, StartColumn: price, EndColumn: gainLoss + 1},
			Type:    "CURRENCY",
			Pattern: currencyPattern,
		},
	)
	gl := GridRange{StartRow: h, EndRow: totals + 1, StartColumn: gainLoss, EndColumn: gainLoss + 1}
	f.Conditionals = append(f.Conditionals,
		ConditionalRule{Range: gl, Condition: "NUMBER_LESS", Value: "0", Foreground: lossColor},
		ConditionalRule{Range: gl, Condition: "NUMBER_GREATER", Value: "0", Foreground: gainColor},
	)
	return f
}
