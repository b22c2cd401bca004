package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnLetter(t *testing.T) {
	tests := []struct {
		col  int
		want string
	}{
		{1, "A"},
		{5, "E"},
		{26, "Z"},
		{27, "AA"},
		{28, "AB"},
		{52, "AZ"},
		{53, "BA"},
		{702, "ZZ"},
		{703, "AAA"},
		{0, ""},
		{-3, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ColumnLetter(tt.col), "column %d", tt.col)
	}
}

func TestLayoutRows(t *testing.T) {
	l := Layout{HeaderRows: 4}

	assert.Equal(t, 5, l.FirstDataRow())
	assert.Equal(t, 5, l.DataRow(0))
	assert.Equal(t, 7, l.DataRow(2))
	assert.Equal(t, 7, l.LastDataRow(3))
	assert.Equal(t, 8, l.TotalsRow(3))
	assert.Equal(t, "=SUM(E5:E7)", l.SumFormula(5, 3))
}

func TestLayoutTracksHeaderSize(t *testing.T) {
	l := Layout{HeaderRows: 6}

	assert.Equal(t, 7, l.DataRow(0))
	assert.Equal(t, "=SUM(AA7:AA8)", l.SumFormula(27, 2))
}

func TestCellReferences(t *testing.T) {
	assert.Equal(t, "E5", Cell(5, 5))
	assert.Equal(t, "$G$8", AbsCell(7, 8))
	assert.Equal(t, "AB12", Cell(28, 12))
}

func TestHyperlinkEscapesQuotes(t *testing.T) {
	assert.Equal(t,
		`=HYPERLINK("https://x/a""b", "a""b")`,
		hyperlink(`https://x/a"b`, `a"b`))
}
