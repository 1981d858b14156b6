package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger names one of the two input collections.
type Ledger string

const (
	LedgerBank  Ledger = "bank"
	LedgerSales Ledger = "sales"
)

// Opposite returns the ledger candidates are searched in.
func (l Ledger) Opposite() Ledger {
	if l == LedgerBank {
		return LedgerSales
	}
	return LedgerBank
}

// LedgerRecord is the view of a bank or sale record shared by search and
// ranking, so both directions run the same code.
type LedgerRecord interface {
	Ledger() Ledger
	LedgerID() uuid.UUID
	LedgerDate() *time.Time
	LedgerAmount() decimal.Decimal
	LedgerName() string
	LedgerCode() string
}
