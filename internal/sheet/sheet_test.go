package sheet

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"match-reconciliation-backend/internal/models"
)

func intPtr(n int) *int { return &n }

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func sampleRows() []models.MergedRow {
	return []models.MergedRow{
		{
			BankRow: intPtr(1), BankDate: datePtr(2024, 1, 10), BankCode: "OP-1", BankName: "Juan Perez", BankAmount: amount("1000.50"),
			SaleRow: intPtr(7), InvoiceNumber: "F001-1", SaleCode: "V-1", SaleDate: datePtr(2024, 1, 12), SaleName: "JUAN PEREZ", SaleAmount: amount("1000.50"),
			MatchType: "code-exact", Confidence: "HIGH", MatchCode: "AB12CD",
		},
		{
			BankRow: intPtr(2), BankDate: datePtr(2024, 2, 29), BankName: "Refund", BankAmount: amount("-25"),
			MatchType: models.NoneMatched,
		},
		{
			SaleRow: intPtr(9), InvoiceNumber: "F001-9", SaleAmount: amount("12.34"),
			MatchType: models.NoneMatched,
		},
	}
}

func assertSameRows(t *testing.T, want, got []models.MergedRow) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i], got[i]
		assert.Equal(t, i+2, g.Line)
		assert.Equal(t, w.BankRow, g.BankRow, "row %d", i)
		assert.Equal(t, w.BankDate, g.BankDate, "row %d", i)
		assert.Equal(t, w.BankCode, g.BankCode, "row %d", i)
		assert.Equal(t, w.BankName, g.BankName, "row %d", i)
		assert.Equal(t, w.SaleRow, g.SaleRow, "row %d", i)
		assert.Equal(t, w.InvoiceNumber, g.InvoiceNumber, "row %d", i)
		assert.Equal(t, w.SaleCode, g.SaleCode, "row %d", i)
		assert.Equal(t, w.SaleDate, g.SaleDate, "row %d", i)
		assert.Equal(t, w.SaleName, g.SaleName, "row %d", i)
		assert.Equal(t, w.MatchType, g.MatchType, "row %d", i)
		assert.Equal(t, w.Confidence, g.Confidence, "row %d", i)
		assert.Equal(t, w.MatchCode, g.MatchCode, "row %d", i)
		assertAmount(t, w.BankAmount, g.BankAmount)
		assertAmount(t, w.SaleAmount, g.SaleAmount)
	}
}

func assertAmount(t *testing.T, want, got *decimal.Decimal) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	assert.True(t, want.Equal(*got), "want %s, got %s", want, got)
}

func TestXLSXRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleRows()))

	rows, problems, err := Read(&buf, FormatXLSX)
	require.NoError(t, err)
	assert.Empty(t, problems)
	assertSameRows(t, sampleRows(), rows)
}

func TestCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()))
	assert.True(t, strings.HasPrefix(buf.String(), strings.Join(Header, ",")+"\n"))

	rows, problems, err := Read(&buf, FormatCSV)
	require.NoError(t, err)
	assert.Empty(t, problems)
	assertSameRows(t, sampleRows(), rows)
}

func TestReadLegacyHeaders(t *testing.T) {
	input := strings.Join([]string{
		"row_banco;Fecha_Banco;Nombre_Banco;Monto_Banco;row_venta;Factura;Fecha_Venta;Monto_Venta;Match_Tipo;Confianza;Match_Code",
		"3;10/01/2024;Ana;1500.00;4;F-4;2024-01-11;1500.00;any;Medium (100%);",
		"nan;NaT;;nan;5;F-5;;99;;;",
		";;;;;;;;;;",
		"x;;;10;;;;;;;",
		"6;31-13-2024;;10;;;;;;;",
		"7.0;;;10;;;;;;;",
		"3.7;;;10;;;;;;;",
	}, "\n")

	rows, problems, err := Read(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	first := rows[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, 3, *first.BankRow)
	assert.Equal(t, datePtr(2024, 1, 10), first.BankDate)
	assert.Equal(t, "Ana", first.BankName)
	assert.Equal(t, "F-4", first.InvoiceNumber)
	assert.Equal(t, datePtr(2024, 1, 11), first.SaleDate)
	assert.Equal(t, "Medium (100%)", first.Confidence)
	assert.True(t, first.HasBank())
	assert.True(t, first.HasSale())

	second := rows[1]
	assert.Equal(t, 3, second.Line)
	assert.False(t, second.HasBank())
	assert.True(t, second.HasSale())
	assert.Nil(t, second.SaleDate)

	whole := rows[2]
	assert.Equal(t, 7, whole.Line)
	assert.Equal(t, 7, *whole.BankRow)

	require.Len(t, problems, 3)
	assert.Equal(t, 5, problems[0].Line)
	assert.Contains(t, problems[0].Error, ColBankRow)
	assert.Equal(t, 6, problems[1].Line)
	assert.Contains(t, problems[1].Error, ColBankDate)
	assert.Equal(t, 8, problems[2].Line)
	assert.Contains(t, problems[2].Error, "not a whole number")
}

func TestReadRejectsUnknownLayout(t *testing.T) {
	_, _, err := Read(strings.NewReader("a,b\n1,2\n"), FormatCSV)
	assert.Error(t, err)

	_, _, err = Read(strings.NewReader(""), FormatCSV)
	assert.Error(t, err)

	_, _, err = Read(strings.NewReader("not a workbook"), FormatXLSX)
	assert.Error(t, err)
}

func TestFormatFromFilename(t *testing.T) {
	f, err := FormatFromFilename("Merged.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = FormatFromFilename("merged.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = FormatFromFilename("merged.pdf")
	assert.Error(t, err)
}
