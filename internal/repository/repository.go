package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Page bounds a listing. A zero Limit returns every row.
type Page struct {
	Limit  int
	Offset int
}

// DateRange is an inclusive date filter.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Repositories bundles the repositories that share one connection or
// transaction.
type Repositories struct {
	db      *gorm.DB
	Bank    *BankRecordRepository
	Sales   *SaleRecordRepository
	Matches *MatchRepository
	Batches *ImportBatchRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		db:      db,
		Bank:    NewBankRecordRepository(db),
		Sales:   NewSaleRecordRepository(db),
		Matches: NewMatchRepository(db),
		Batches: NewImportBatchRepository(db),
	}
}

// DB exposes the underlying handle.
func (r *Repositories) DB() *gorm.DB {
	return r.db
}

// Transaction runs fn with repositories bound to a single transaction.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// Reset deletes every match and every ledger record.
func (r *Repositories) Reset(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM matches").Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM sale_records").Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM bank_records").Error
	})
}

func paginate(p Page) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p.Limit <= 0 {
			return db
		}
		return db.Limit(p.Limit).Offset(p.Offset)
	}
}
