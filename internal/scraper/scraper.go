// Package scraper retrieves the raw earnings and payout exports for a miner
// address from the pool dashboard.
package scraper

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"ocean_tracker/internal/report"
)

type Dataset string

const (
	Earnings Dataset = "earnings"
	Payouts  Dataset = "payouts"
)

// Datasets lists every dataset in processing order.
var Datasets = []Dataset{Earnings, Payouts}

// Scraper fetches one dataset as a raw table. The HTTP and download-directory
// strategies both satisfy it.
type Scraper interface {
	Fetch(ctx context.Context, ds Dataset) (report.RawTable, error)
}

var ErrEmptyExport = errors.New("export contains no header row")

// ParseCSV reads a CSV export with a header row. Cells are trimmed and rows
// shorter than the header are padded with empty cells.
func ParseCSV(r io.Reader) (report.RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return report.RawTable{}, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return report.RawTable{}, ErrEmptyExport
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.TrimSpace(h)
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		row := make([]string, max(len(header), len(rec)))
		for i, cell := range rec {
			row[i] = strings.TrimSpace(cell)
		}
		rows = append(rows, row)
	}

	return report.RawTable{Columns: header, Rows: rows}, nil
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
