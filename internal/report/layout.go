package report

import (
	"fmt"
	"strings"
)

// Layout describes where data rows sit on the sheet. Every formula emitter
// derives row numbers from it, so the header block size lives in one place.
// Row numbers are 1-based, as in A1 notation.
type Layout struct {
	HeaderRows int
}

func (l Layout) FirstDataRow() int {
	return l.HeaderRows + 1
}

// DataRow returns the sheet row of the i-th (0-based) data record.
func (l Layout) DataRow(i int) int {
	return l.HeaderRows + 1 + i
}

// LastDataRow returns the sheet row of the last of n data records.
// With n == 0 it is the last header row.
func (l Layout) LastDataRow(n int) int {
	return l.HeaderRows + n
}

// TotalsRow returns the sheet row following n data records.
func (l Layout) TotalsRow(n int) int {
	return l.HeaderRows + n + 1
}

// SumFormula sums column col over all n data rows.
func (l Layout) SumFormula(col, n int) string {
	letter := ColumnLetter(col)
	return fmt.Sprintf("=SUM(%s%d:%s%d)", letter, l.FirstDataRow(), letter, l.LastDataRow(n))
}

// ColumnLetter converts a 1-based column index to spreadsheet letters:
// 1 -> A, 26 -> Z, 27 -> AA. Bijective base 26, there is no zero digit.
func ColumnLetter(col int) string {
	if col < 1 {
		return ""
	}
	var b []byte
	for col > 0 {
		col--
		b = append(b, byte('A'+col%26))
		col /= 26
	}
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// Cell returns a relative A1 reference such as E5.
func Cell(col, row int) string {
	return fmt.Sprintf("%s%d", ColumnLetter(col), row)
}

// AbsCell returns an absolute A1 reference such as $G$8.
func AbsCell(col, row int) string {
	return fmt.Sprintf("$%s$%d", ColumnLetter(col), row)
}

// hyperlink renders a HYPERLINK formula. Quotes are doubled per formula string rules.
func hyperlink(url, label string) string {
	esc := func(s string) string { return strings.ReplaceAll(s, `"`, `""`) }
	return fmt.Sprintf(`=HYPERLINK("%s", "%s")`, esc(url), esc(label))
}
