package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NoneMatched marks export rows that carry only one side.
const NoneMatched = "NONE-MATCHED"

// MergedRow is one line of a merged reconciliation file: an optional bank
// side, an optional sale side and the upstream match hints. The same shape
// is read on import and written on export.
type MergedRow struct {
	Line int `json:"-"`

	BankRow    *int             `json:"bank_row"`
	BankDate   *time.Time       `json:"bank_date"`
	BankCode   string           `json:"bank_code"`
	BankName   string           `json:"bank_name"`
	BankAmount *decimal.Decimal `json:"bank_amount"`

	SaleRow       *int             `json:"sale_row"`
	InvoiceNumber string           `json:"invoice_number"`
	SaleCode      string           `json:"sale_code"`
	SaleDate      *time.Time       `json:"sale_date"`
	SaleName      string           `json:"sale_name"`
	SaleAmount    *decimal.Decimal `json:"sale_amount"`

	MatchType  string `json:"match_type"`
	Confidence string `json:"confidence"`
	MatchCode  string `json:"match_code"`
}

// HasBank reports whether the row carries a bank movement.
func (r *MergedRow) HasBank() bool {
	return r.BankRow != nil && r.BankAmount != nil
}

// HasSale reports whether the row carries a sale record.
func (r *MergedRow) HasSale() bool {
	return r.SaleRow != nil && r.SaleAmount != nil
}
