package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BankRecord struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Fingerprint string          `gorm:"size:16;uniqueIndex;not null" json:"fingerprint"`
	SourceRow   *int            `json:"source_row"`
	Date        *time.Time      `gorm:"type:date;index" json:"date"`
	BankCode    string          `json:"bank_code"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `gorm:"type:numeric(15,2);index" json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (b *BankRecord) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (b *BankRecord) Ledger() Ledger                { return LedgerBank }
func (b *BankRecord) LedgerID() uuid.UUID           { return b.ID }
func (b *BankRecord) LedgerDate() *time.Time        { return b.Date }
func (b *BankRecord) LedgerAmount() decimal.Decimal { return b.Amount }
func (b *BankRecord) LedgerName() string            { return b.Name }
func (b *BankRecord) LedgerCode() string            { return b.BankCode }
