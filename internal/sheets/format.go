package sheets

import (
	"strings"

	"ocean_tracker/internal/report"

	"google.golang.org/api/sheets/v4"
)

// A1Range quotes a tab title for A1 notation and appends cell, if any.
func A1Range(title, cell string) string {
	quoted := "'" + strings.ReplaceAll(title, "'", "''") + "'"
	if cell == "" {
		return quoted
	}
	return quoted + "!" + cell
}

// wholeSheet addresses every cell of a tab.
func wholeSheet(sheetID int64) *sheets.GridRange {
	return &sheets.GridRange{SheetId: sheetID, ForceSendFields: []string{"SheetId"}}
}

func gridRange(sheetID int64, r report.GridRange) *sheets.GridRange {
	g := wholeSheet(sheetID)
	g.StartRowIndex = int64(r.StartRow)
	g.StartColumnIndex = int64(r.StartColumn)
	if r.EndRow > 0 {
		g.EndRowIndex = int64(r.EndRow)
	}
	if r.EndColumn > 0 {
		g.EndColumnIndex = int64(r.EndColumn)
	}
	return g
}

func unmergeRequests(sheetID int64) []*sheets.Request {
	return []*sheets.Request{{
		UnmergeCells: &sheets.UnmergeCellsRequest{Range: wholeSheet(sheetID)},
	}}
}

// resetRequests clears cell formatting and drops the conditional rules a
// previous run added, so rules do not pile up across runs.
func resetRequests(sheetID int64, conditionalRules int) []*sheets.Request {
	reqs := []*sheets.Request{{
		RepeatCell: &sheets.RepeatCellRequest{
			Range:  wholeSheet(sheetID),
			Cell:   &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{}},
			Fields: "userEnteredFormat",
		},
	}}
	// deleting index 0 repeatedly shifts the remaining rules down
	for i := 0; i < conditionalRules; i++ {
		reqs = append(reqs, &sheets.Request{
			DeleteConditionalFormatRule: &sheets.DeleteConditionalFormatRuleRequest{
				SheetId:         sheetID,
				Index:           0,
				ForceSendFields: []string{"SheetId", "Index"},
			},
		})
	}
	return reqs
}

// FormatRequests converts formatting directives into batchUpdate requests.
func FormatRequests(sheetID int64, f report.Formatting) []*sheets.Request {
	var reqs []*sheets.Request

	for _, m := range f.Merges {
		reqs = append(reqs, &sheets.Request{
			MergeCells: &sheets.MergeCellsRequest{
				Range:     gridRange(sheetID, m),
				MergeType: "MERGE_ALL",
			},
		})
	}

	for _, s := range f.Styles {
		reqs = append(reqs, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: gridRange(sheetID, s.Range),
				Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
					TextFormat:          &sheets.TextFormat{Bold: s.Bold},
					HorizontalAlignment: s.Align,
				}},
				Fields: "userEnteredFormat(textFormat,horizontalAlignment)",
			},
		})
	}

	for _, n := range f.NumberFormats {
		reqs = append(reqs, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: gridRange(sheetID, n.Range),
				Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
					NumberFormat: &sheets.NumberFormat{Type: n.Type, Pattern: n.Pattern},
				}},
				Fields: "userEnteredFormat.numberFormat",
			},
		})
	}

	for _, c := range f.Conditionals {
		reqs = append(reqs, &sheets.Request{
			AddConditionalFormatRule: &sheets.AddConditionalFormatRuleRequest{
				Rule: &sheets.ConditionalFormatRule{
					Ranges: []*sheets.GridRange{gridRange(sheetID, c.Range)},
					BooleanRule: &sheets.BooleanRule{
						Condition: &sheets.BooleanCondition{
							Type:   c.Condition,
							Values: []*sheets.ConditionValue{{UserEnteredValue: c.Value}},
						},
						Format: &sheets.CellFormat{
							TextFormat: &sheets.TextFormat{
								ForegroundColor: &sheets.Color{
									Red:   c.Foreground.Red,
									Green: c.Foreground.Green,
									Blue:  c.Foreground.Blue,
								},
							},
						},
					},
				},
			},
		})
	}

	for _, w := range f.Wrap {
		reqs = append(reqs, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range:  gridRange(sheetID, w),
				Cell:   &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{WrapStrategy: "WRAP"}},
				Fields: "userEnteredFormat.wrapStrategy",
			},
		})
	}

	return reqs
}
