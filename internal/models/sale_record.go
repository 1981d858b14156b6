package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleRecord struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Fingerprint   string          `gorm:"size:16;uniqueIndex;not null" json:"fingerprint"`
	SourceRow     *int            `json:"source_row"`
	InvoiceNumber string          `gorm:"index" json:"invoice_number"`
	SaleCode      string          `json:"sale_code"`
	Date          *time.Time      `gorm:"type:date;index" json:"date"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `gorm:"type:numeric(15,2);index" json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (s *SaleRecord) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *SaleRecord) Ledger() Ledger                { return LedgerSales }
func (s *SaleRecord) LedgerID() uuid.UUID           { return s.ID }
func (s *SaleRecord) LedgerDate() *time.Time        { return s.Date }
func (s *SaleRecord) LedgerAmount() decimal.Decimal { return s.Amount }
func (s *SaleRecord) LedgerName() string            { return s.Name }
func (s *SaleRecord) LedgerCode() string            { return s.SaleCode }
