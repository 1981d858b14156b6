package repository

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"match-reconciliation-backend/internal/services/matching"
)

// ledgerTable describes what differs between the bank and sales tables, so
// both ledgers share one set of queries.
type ledgerTable struct {
	name        string
	matchColumn string
}

var (
	bankTable  = ledgerTable{name: "bank_records", matchColumn: "bank_record_id"}
	salesTable = ledgerTable{name: "sale_records", matchColumn: "sale_record_id"}
)

func (t ledgerTable) column(c string) string {
	return t.name + "." + c
}

func unmatched(t ledgerTable) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(fmt.Sprintf(
			"NOT EXISTS (SELECT 1 FROM matches m WHERE m.%s = %s)", t.matchColumn, t.column("id")))
	}
}

func inDateRange(t ledgerTable, r *DateRange) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if r == nil {
			return db
		}
		return db.Where(t.column("date")+" BETWEEN ? AND ?", r.From, r.To)
	}
}

// candidateFilter applies the amount and date bounds of q. Name and code
// containment is checked by matching.Filter on the fetched rows.
func candidateFilter(t ledgerTable, q matching.CandidateQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q.AmountMin != nil && q.AmountMax != nil {
			db = db.Where(t.column("amount")+" BETWEEN ? AND ?", *q.AmountMin, *q.AmountMax)
		}
		if q.DateFrom != nil && q.DateTo != nil {
			db = db.Where(t.column("date")+" BETWEEN ? AND ?", *q.DateFrom, *q.DateTo)
		}
		return db
	}
}

// upsertByFingerprint inserts rec unless a row with the same fingerprint
// exists, in which case rec is overwritten with the stored row.
func upsertByFingerprint[T any](ctx context.Context, db *gorm.DB, rec *T, fingerprint string) (bool, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "fingerprint"}}, DoNothing: true}).
		Create(rec)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "insert record")
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	var existing T
	if err := db.WithContext(ctx).Where("fingerprint = ?", fingerprint).First(&existing).Error; err != nil {
		return false, errors.Wrapf(err, "load record %s", fingerprint)
	}
	*rec = existing
	return false, nil
}

func findByID[T any](ctx context.Context, db *gorm.DB, id interface{}) (*T, error) {
	var rec T
	err := db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load record")
	}
	return &rec, nil
}

func findUnmatched[T any](ctx context.Context, db *gorm.DB, t ledgerTable, r *DateRange, p Page) ([]T, error) {
	var rows []T
	err := db.WithContext(ctx).
		Table(t.name).
		Scopes(unmatched(t), inDateRange(t, r), paginate(p)).
		Order(t.column("date") + " DESC").
		Order(t.column("amount") + " DESC").
		Find(&rows).Error
	return rows, errors.Wrapf(err, "list unmatched %s", t.name)
}

func findCandidates[T any](ctx context.Context, db *gorm.DB, t ledgerTable, q matching.CandidateQuery) ([]T, error) {
	var rows []T
	err := db.WithContext(ctx).
		Table(t.name).
		Scopes(unmatched(t), candidateFilter(t, q)).
		Order(t.column("id")).
		Find(&rows).Error
	return rows, errors.Wrapf(err, "search candidates in %s", t.name)
}

func countUnmatched(ctx context.Context, db *gorm.DB, t ledgerTable, r *DateRange) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Table(t.name).Scopes(unmatched(t), inDateRange(t, r)).Count(&n).Error
	return n, errors.Wrapf(err, "count unmatched %s", t.name)
}

func countAll(ctx context.Context, db *gorm.DB, t ledgerTable) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Table(t.name).Count(&n).Error
	return n, errors.Wrapf(err, "count %s", t.name)
}

// dateBounds returns the earliest and latest record of a ledger that has a date.
func dateBounds[T any](ctx context.Context, db *gorm.DB, t ledgerTable) (first, last *T, err error) {
	load := func(order string) (*T, error) {
		var rec T
		res := db.WithContext(ctx).Table(t.name).
			Where(t.column("date") + " IS NOT NULL").
			Order(t.column("date") + " " + order).
			Limit(1).Find(&rec)
		if res.Error != nil {
			return nil, errors.Wrapf(res.Error, "date bounds of %s", t.name)
		}
		if res.RowsAffected == 0 {
			return nil, nil
		}
		return &rec, nil
	}
	if first, err = load("ASC"); err != nil {
		return nil, nil, err
	}
	if last, err = load("DESC"); err != nil {
		return nil, nil, err
	}
	return first, last, nil
}
