package report

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	displayTimeLayout = "01/02/06 15:04:05"
	reportTimeLayout  = "January 02, 2006 03:04 PM"
)

// timeLayouts are the timestamp shapes seen in pool CSV exports. Values
// without a zone are taken as UTC.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"01/02/06 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// missingMarkers are cell texts that mean "no value".
var missingMarkers = map[string]bool{
	"":     true,
	"nan":  true,
	"NaN":  true,
	"null": true,
	"None": true,
}

// cleanText trims whitespace and trailing separator artifacts left by CSV
// exports, and normalises missing markers to "".
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ",;| \t")
	s = strings.TrimSpace(s)
	if missingMarkers[s] {
		return ""
	}
	return s
}

// parseNumber reads a numeric cell, tolerating thousands separators and a
// trailing percent sign.
func parseNumber(s string) (float64, bool) {
	s = cleanText(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// numberOrText returns the parsed number when the cell is numeric, otherwise
// its cleaned text.
func numberOrText(s string) interface{} {
	if v, ok := parseNumber(s); ok {
		return v
	}
	return cleanText(s)
}

func field(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

var usd = message.NewPrinter(language.English)

// FormatUSD renders a dollar amount with thousands separators, e.g. $61,234.50.
func FormatUSD(v float64) string {
	return usd.Sprintf("$%.2f", v)
}

// headerBlock builds the rows above the data: report timestamp, current
// price, a spacer and the column names. Every row is padded to len(columns).
func headerBlock(columns []string, opts Options) [][]interface{} {
	price := ""
	if opts.HasCurrentPrice {
		price = FormatUSD(opts.CurrentPrice)
	}

	title := padRow([]interface{}{"Report as of: " + opts.Now.Format(reportTimeLayout)}, len(columns))
	priceRow := padRow([]interface{}{"BTC Price: " + price}, len(columns))
	spacer := padRow(nil, len(columns))

	names := make([]interface{}, len(columns))
	for i, c := range columns {
		names[i] = c
	}
	return [][]interface{}{title, priceRow, spacer, names}
}

func padRow(row []interface{}, width int) []interface{} {
	for len(row) < width {
		row = append(row, "")
	}
	return row
}

// currentPriceCell is the literal current price, or "" when unavailable.
func currentPriceCell(opts Options) interface{} {
	if !opts.HasCurrentPrice {
		return ""
	}
	return opts.CurrentPrice
}
