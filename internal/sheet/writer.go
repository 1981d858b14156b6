package sheet

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"match-reconciliation-backend/internal/models"
)

const dateFormat = "yyyy-mm-dd"

// WriteXLSX writes rows as a single-sheet workbook with the canonical header.
func WriteXLSX(w io.Writer, rows []models.MergedRow) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	numFmt := dateFormat
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return errors.Wrap(err, "create date style")
	}
	for _, col := range []string{ColBankDate, ColSaleDate} {
		name, err := excelize.ColumnNumberToName(columnNumber(col))
		if err != nil {
			return err
		}
		if err := f.SetColStyle(sheet, name, style); err != nil {
			return errors.Wrapf(err, "style column %s", col)
		}
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "write header")
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := xlsxValues(&rows[i])
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return errors.Wrapf(err, "write row %d", i+2)
		}
	}
	return f.Write(w)
}

// WriteCSV writes rows as comma separated text with the canonical header.
func WriteCSV(w io.Writer, rows []models.MergedRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for i := range rows {
		if err := cw.Write(csvValues(&rows[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func columnNumber(col string) int {
	for i, h := range Header {
		if h == col {
			return i + 1
		}
	}
	return 0
}

func xlsxValues(r *models.MergedRow) []interface{} {
	return []interface{}{
		intValue(r.BankRow), timeValue(r.BankDate), r.BankCode, r.BankName, amountValue(r.BankAmount),
		intValue(r.SaleRow), r.InvoiceNumber, r.SaleCode, timeValue(r.SaleDate), r.SaleName, amountValue(r.SaleAmount),
		r.MatchType, r.Confidence, r.MatchCode,
	}
}

func csvValues(r *models.MergedRow) []string {
	return []string{
		intString(r.BankRow), dateString(r.BankDate), r.BankCode, r.BankName, amountString(r.BankAmount),
		intString(r.SaleRow), r.InvoiceNumber, r.SaleCode, dateString(r.SaleDate), r.SaleName, amountString(r.SaleAmount),
		r.MatchType, r.Confidence, r.MatchCode,
	}
}

func intValue(n *int) interface{} {
	if n == nil {
		return nil
	}
	return *n
}

func timeValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func amountValue(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.InexactFloat64()
}

func intString(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func dateString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func amountString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}
