package report

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

const (
	inTime       = "Time"
	inBlock      = "Block"
	inShareLog   = "Share Log %"
	inShareCount = "Share Count"
	inEarnings   = "Earnings (BTC)"
	inPoolFees   = "Pool Fees (BTC)"
	inAmount     = "Amount (BTC)"
	inTx         = "Transaction"
)

// EarningsSchema is the input contract for earnings exports.
var EarningsSchema = Schema{
	Dataset: "earnings",
	Fields: []Field{
		{Name: inTime, Required: true},
		{Name: inBlock, Required: true},
		{Name: inShareLog, Required: true},
		{Name: inShareCount, Aliases: []string{"Shares"}, Required: true},
		{Name: inEarnings, Aliases: []string{inAmount}, Required: true},
		{Name: inPoolFees, Required: true},
	},
}

// Earnings sheet columns, 1-based.
const (
	eTime = iota + 1
	eBlock
	eShare
	eShareCount
	eEarnings
	eFees
	ePrice
	eCostBasis
	eFeesCostBasis
	eCurrentValue
	eGainLoss
)

// EarningsColumns is the fixed output layout of the earnings sheet.
var EarningsColumns = []string{
	"Time",
	"Block",
	"Share %",
	"Share Count",
	"Earnings (BTC)",
	"Pool Fees (BTC)",
	"BTC Price (USD)",
	"Cost Basis (USD)",
	"Pool Fees Cost Basis (USD)",
	"Current Value (USD)",
	"Gain/Loss (USD)",
}

const blockExplorerURL = "https://mempool.space/block/"

// BuildEarnings enriches an earnings table. Cost basis, current value and
// gain/loss are sheet formulas over same-row cells and the totals row's
// current price cell; the totals row sums every data row.
func BuildEarnings(ctx context.Context, table RawTable, prices PriceSource, opts Options) (SheetUpdate, error) {
	idx, err := EarningsSchema.Bind(table.Columns)
	if err != nil {
		log.Error().Err(err).Strs("columns", table.Columns).Msg("Earnings table does not match schema")
		return SheetUpdate{}, err
	}

	header := headerBlock(EarningsColumns, opts)
	layout := Layout{HeaderRows: len(header)}
	n := len(table.Rows)
	totalsRow := layout.TotalsRow(n)

	rows := make([][]interface{}, 0, len(header)+n+1)
	rows = append(rows, header...)

	unpriced := 0
	for i, raw := range table.Rows {
		row, priced := earningsRow(ctx, raw, idx, layout.DataRow(i), totalsRow, prices)
		if !priced {
			unpriced++
		}
		rows = append(rows, row)
	}

	if n > 0 {
		rows = append(rows, earningsTotals(layout, n, opts))
	}

	log.Debug().
		Int("rows", n).
		Int("unpriced", unpriced).
		Int("totals_row", totalsRow).
		Msg("Built earnings rows")

	return SheetUpdate{
		SheetName:  opts.SheetName,
		Columns:    len(EarningsColumns),
		Rows:       rows,
		HeaderRows: layout.HeaderRows,
		DataRows:   n,
		Format:     earningsFormatting(layout, n),
	}, nil
}

// earningsRow builds one data row at sheet row r. priced is false when the
// historical price could not be resolved.
func earningsRow(ctx context.Context, raw []string, idx map[string]int, r, totalsRow int, prices PriceSource) ([]interface{}, bool) {
	row := make([]interface{}, len(EarningsColumns))
	for i := range row {
		row[i] = ""
	}

	rawTime := field(raw, idx, inTime)
	ts, timeOK := parseTime(rawTime)
	if timeOK {
		row[eTime-1] = ts.Format(displayTimeLayout)
	} else {
		row[eTime-1] = cleanText(rawTime)
		log.Warn().Str("time", rawTime).Int("row", r).Msg("Unparseable earnings timestamp")
	}

	if block := cleanText(field(raw, idx, inBlock)); block != "" {
		row[eBlock-1] = hyperlink(blockExplorerURL+block, block)
	}
	row[eShare-1] = numberOrText(field(raw, idx, inShareLog))
	row[eShareCount-1] = numberOrText(field(raw, idx, inShareCount))

	earnings, earningsOK := parseNumber(field(raw, idx, inEarnings))
	if earningsOK {
		row[eEarnings-1] = earnings
	} else {
		row[eEarnings-1] = cleanText(field(raw, idx, inEarnings))
	}
	fees, feesOK := parseNumber(field(raw, idx, inPoolFees))
	if feesOK {
		row[eFees-1] = fees
	} else {
		row[eFees-1] = cleanText(field(raw, idx, inPoolFees))
	}

	priced := false
	if timeOK {
		if price, ok := prices.Historical(ctx, ts); ok {
			row[ePrice-1] = price
			priced = true
		}
	}

	if earningsOK {
		row[eCostBasis-1] = fmt.Sprintf("=%s*%s", Cell(eEarnings, r), Cell(ePrice, r))
		row[eCurrentValue-1] = fmt.Sprintf("=%s*%s", Cell(eEarnings, r), AbsCell(ePrice, totalsRow))
		row[eGainLoss-1] = fmt.Sprintf("=%s-%s", Cell(eCurrentValue, r), Cell(eCostBasis, r))
	}
	if feesOK {
		row[eFeesCostBasis-1] = fmt.Sprintf("=%s*%s", Cell(eFees, r), Cell(ePrice, r))
	}
	return row, priced
}

func earningsTotals(layout Layout, n int, opts Options) []interface{} {
	row := make([]interface{}, len(EarningsColumns))
	for i := range row {
		row[i] = ""
	}
	row[eTime-1] = "Total"
	for _, col := range []int{eEarnings, eFees, eCostBasis, eFeesCostBasis, eCurrentValue, eGainLoss} {
		row[col-1] = layout.SumFormula(col, n)
	}
	row[ePrice-1] = currentPriceCell(opts)
	return row
}

func earningsFormatting(layout Layout, n int) Formatting {
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

	totals := layout.TotalsRow(n) - 1
	f.Merges = append(f.Merges, GridRange{StartRow: totals, EndRow: totals + 1, StartColumn: 0, EndColumn: eEarnings - 1})
	f.Styles = append(f.Styles, TextStyle{Range: GridRange{StartRow: totals, EndRow: totals + 1}, Bold: true, Align: "RIGHT"})
	f.NumberFormats = append(f.NumberFormats,
		NumberFormat{
			Range: GridRange{StartRow: h, EndRow: totals, StartColumn: eTime - 1, EndColumn: eTime},
			Type:  "DATE_TIME",
		},
		NumberFormat{
			Range:   GridRange{StartRow: h, EndRow: totals + 1, StartColumn: ePrice - 1, EndColumn: eGainLoss},
			Type:    "CURRENCY",
			Pattern: currencyPattern,
		},
	)
	gainLoss := GridRange{StartRow: h, EndRow: totals + 1, StartColumn: eGainLoss - 1, EndColumn: eGainLoss}
	f.Conditionals = append(f.Conditionals,
		ConditionalRule{Range: gainLoss, Condition: "NUMBER_LESS", Value: "0", Foreground: lossColor},
		ConditionalRule{Range: gainLoss, Condition: "NUMBER_GREATER", Value: "0", Foreground: gainColor},
	)
	return f
}
