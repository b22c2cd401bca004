package sheets

import (
	"encoding/json"
	"testing"

	"ocean_tracker/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestA1Range(t *testing.T) {
	assert.Equal(t, "'Earnings'!A1", A1Range("Earnings", "A1"))
	assert.Equal(t, "'Bob''s Payouts'", A1Range("Bob's Payouts", ""))
}

func TestGridRangeSendsZeroSheetID(t *testing.T) {
	data, err := json.Marshal(gridRange(0, report.GridRange{StartRow: 4, EndRow: 8, StartColumn: 10, EndColumn: 11}))
	require.NoError(t, err)

	assert.JSONEq(t, `{"sheetId":0,"startRowIndex":4,"endRowIndex":8,"startColumnIndex":10,"endColumnIndex":11}`, string(data))
}

func TestGridRangeOpenEnded(t *testing.T) {
	g := gridRange(5, report.GridRange{StartRow: 3, EndRow: 4})
	assert.Equal(t, int64(3), g.StartRowIndex)
	assert.Equal(t, int64(4), g.EndRowIndex)
	assert.Zero(t, g.EndColumnIndex)
}

func TestFormatRequests(t *testing.T) {
	red := report.Color{Red: 0.8}
	f := report.Formatting{
		Merges: []report.GridRange{{StartRow: 7, EndRow: 8, EndColumn: 4}},
		Styles: []report.TextStyle{{Range: report.GridRange{EndRow: 2}, Bold: true, Align: "LEFT"}},
		NumberFormats: []report.NumberFormat{
			{Range: report.GridRange{StartRow: 4, EndRow: 8, StartColumn: 6, EndColumn: 11}, Type: "CURRENCY", Pattern: "$#,##0.00"},
		},
		Conditionals: []report.ConditionalRule{
			{Range: report.GridRange{StartRow: 4, EndRow: 8, StartColumn: 10, EndColumn: 11}, Condition: "NUMBER_LESS", Value: "0", Foreground: red},
		},
		Wrap: []report.GridRange{{StartRow: 3, EndRow: 4}},
	}

	reqs := FormatRequests(2, f)
	require.Len(t, reqs, 5)

	assert.Equal(t, "MERGE_ALL", reqs[0].MergeCells.MergeType)
	assert.Equal(t, int64(4), reqs[0].MergeCells.Range.EndColumnIndex)

	assert.True(t, reqs[1].RepeatCell.Cell.UserEnteredFormat.TextFormat.Bold)
	assert.Equal(t, "LEFT", reqs[1].RepeatCell.Cell.UserEnteredFormat.HorizontalAlignment)

	assert.Equal(t, "userEnteredFormat.numberFormat", reqs[2].RepeatCell.Fields)
	assert.Equal(t, "CURRENCY", reqs[2].RepeatCell.Cell.UserEnteredFormat.NumberFormat.Type)

	rule := reqs[3].AddConditionalFormatRule.Rule
	assert.Equal(t, "NUMBER_LESS", rule.BooleanRule.Condition.Type)
	assert.Equal(t, "0", rule.BooleanRule.Condition.Values[0].UserEnteredValue)
	assert.Equal(t, 0.8, rule.BooleanRule.Format.TextFormat.ForegroundColor.Red)
	assert.Equal(t, int64(2), rule.Ranges[0].SheetId)

	assert.Equal(t, "WRAP", reqs[4].RepeatCell.Cell.UserEnteredFormat.WrapStrategy)
}

func TestResetRequestsDropConditionalRules(t *testing.T) {
	reqs := resetRequests(4, 3)
	require.Len(t, reqs, 4)
	assert.Equal(t, "userEnteredFormat", reqs[0].RepeatCell.Fields)
	for _, r := range reqs[1:] {
		require.NotNil(t, r.DeleteConditionalFormatRule)
		assert.Zero(t, r.DeleteConditionalFormatRule.Index)
	}
}
