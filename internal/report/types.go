// Package report turns scraped mining-pool tables into sheet updates: header
// block, enriched data rows with price columns and formulas, a totals row and
// the formatting directives that go with them.
package report

import (
	"context"
	"time"
)

// RawTable is a scraped dataset: column names plus string cells, row-major.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// PriceSource resolves the historical price at a timestamp. ok is false when
// the price is not available.
type PriceSource interface {
	Historical(ctx context.Context, ts time.Time) (float64, bool)
}

// Options carries per-run inputs shared by the builders.
type Options struct {
	SheetName string
	Now       time.Time
	// CurrentPrice is captured once per run; HasCurrentPrice is false when
	// the lookup failed.
	CurrentPrice    float64
	HasCurrentPrice bool
}

// SheetUpdate is everything the sheet writer needs to replace one tab.
type SheetUpdate struct {
	SheetName  string
	Columns    int
	// Rows holds the header block, HeaderRows rows long, then DataRows data
	// rows and, when there is data, a totals row.
	Rows       [][]interface{}
	HeaderRows int
	DataRows   int
	Format     Formatting
}

// GridRange is a 0-based, end-exclusive cell range. A zero End means unbounded.
type GridRange struct {
	StartRow    int
	EndRow      int
	StartColumn int
	EndColumn   int
}

type TextStyle struct {
	Range GridRange
	Bold  bool
	// Align is a horizontal alignment such as LEFT or RIGHT.
	Align string
}

type NumberFormat struct {
	Range   GridRange
	Type    string
	Pattern string
}

type Color struct {
	Red, Green, Blue float64
}

// ConditionalRule colours text when the cell value satisfies Condition against Value.
type ConditionalRule struct {
	Range      GridRange
	Condition  string
	Value      string
	Foreground Color
}

// Formatting is the set of formatting directives applied after values are written.
type Formatting struct {
	Styles        []TextStyle
	Merges        []GridRange
	NumberFormats []NumberFormat
	Conditionals  []ConditionalRule
	Wrap          []GridRange
}

var (
	lossColor = Color{Red: 0.8}
	gainColor = Color{Green: 0.8}
)

const currencyPattern = "$#,##0.00"
