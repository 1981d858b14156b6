package sheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"match-reconciliation-backend/internal/models"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// FormatFromFilename picks the reader for a file by its extension.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	}
	return "", errors.Errorf("unsupported file type %q, expected .xlsx or .csv", filepath.Ext(name))
}

// RowError describes a line that could not be parsed.
type RowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02-01-2006",
	"02/01/2006",
}

// Read parses a merged reconciliation file. Lines that fail to parse are
// returned as RowErrors and left out of the result.
func Read(r io.Reader, format Format) ([]models.MergedRow, []RowError, error) {
	var (
		table [][]string
		err   error
	)
	switch format {
	case FormatXLSX:
		table, err = readXLSX(r)
	case FormatCSV:
		table, err = readCSV(r)
	default:
		err = errors.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, nil, err
	}
	return parseTable(table)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", sheets[0])
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	sample, _ := br.Peek(1024)

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	switch {
	case bytes.Contains(sample, []byte(",")):
		reader.Comma = ','
	case bytes.Contains(sample, []byte("\t")):
		reader.Comma = '\t'
	case bytes.Contains(sample, []byte(";")):
		reader.Comma = ';'
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	return rows, nil
}

func parseTable(table [][]string) ([]models.MergedRow, []RowError, error) {
	if len(table) == 0 {
		return nil, nil, errors.New("file is empty")
	}

	index := map[string]int{}
	for i, name := range table[0] {
		index[canonicalColumn(name)] = i
	}
	_, hasBank := index[ColBankAmount]
	_, hasSale := index[ColSaleAmount]
	if !hasBank && !hasSale {
		return nil, nil, errors.Errorf("header has neither %s nor %s", ColBankAmount, ColSaleAmount)
	}

	var (
		rows     []models.MergedRow
		problems []RowError
	)
	for i, record := range table[1:] {
		line := i + 2
		if blank(record) {
			continue
		}
		get := func(col string) string {
			idx, ok := index[col]
			if !ok || idx >= len(record) {
				return ""
			}
			return clean(record[idx])
		}
		row, err := parseRow(get)
		if err != nil {
			problems = append(problems, RowError{Line: line, Error: err.Error()})
			continue
		}
		row.Line = line
		rows = append(rows, row)
	}
	return rows, problems, nil
}

func parseRow(get func(string) string) (models.MergedRow, error) {
	var (
		row models.MergedRow
		err error
	)
	if row.BankRow, err = parseInt(get(ColBankRow)); err != nil {
		return row, errors.Wrap(err, ColBankRow)
	}
	if row.BankDate, err = parseDate(get(ColBankDate)); err != nil {
		return row, errors.Wrap(err, ColBankDate)
	}
	if row.BankAmount, err = parseAmount(get(ColBankAmount)); err != nil {
		return row, errors.Wrap(err, ColBankAmount)
	}
	row.BankCode = get(ColBankCode)
	row.BankName = get(ColBankName)

	if row.SaleRow, err = parseInt(get(ColSaleRow)); err != nil {
		return row, errors.Wrap(err, ColSaleRow)
	}
	if row.SaleDate, err = parseDate(get(ColSaleDate)); err != nil {
		return row, errors.Wrap(err, ColSaleDate)
	}
	if row.SaleAmount, err = parseAmount(get(ColSaleAmount)); err != nil {
		return row, errors.Wrap(err, ColSaleAmount)
	}
	row.InvoiceNumber = get(ColInvoice)
	row.SaleCode = get(ColSaleCode)
	row.SaleName = get(ColSaleName)

	row.MatchType = get(ColMatchType)
	row.Confidence = get(ColConfidence)
	row.MatchCode = get(ColMatchCode)
	return row, nil
}

// clean trims a cell and blanks the placeholders dataframe tools write for
// missing values.
func clean(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "nan", "nat", "none", "null":
		return ""
	}
	return s
}

func blank(record []string) bool {
	for _, c := range record {
		if clean(c) != "" {
			return false
		}
	}
	return true
}

func parseInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.Errorf("invalid number %q", s)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil, errors.Errorf("row number %q is not a whole number", s)
	}
	n := int(f)
	return &n, nil
}

func parseAmount(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	return &d, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return nil, errors.Errorf("invalid date serial %q", s)
		}
		return civilDate(t), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civilDate(t), nil
		}
	}
	return nil, errors.Errorf("invalid date %q", s)
}

func civilDate(t time.Time) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
