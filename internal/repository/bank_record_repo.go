package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"match-reconciliation-backend/internal/models"
	"match-reconciliation-backend/internal/services/matching"
)

type BankRecordRepository struct {
	db *gorm.DB
}

func NewBankRecordRepository(db *gorm.DB) *BankRecordRepository {
	return &BankRecordRepository{db: db}
}

// Upsert stores rec keyed by its fingerprint. When the fingerprint is
// already known rec is replaced by the stored row and created is false.
func (r *BankRecordRepository) Upsert(ctx context.Context, rec *models.BankRecord) (created bool, err error) {
	if rec.Fingerprint == "" {
		rec.Fingerprint = matching.BankFingerprint(rec.Date, rec.Amount, rec.BankCode, rec.Name)
	}
	return upsertByFingerprint(ctx, r.db, rec, rec.Fingerprint)
}

func (r *BankRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BankRecord, error) {
	return findByID[models.BankRecord](ctx, r.db, id)
}

// Unmatched lists bank records no match refers to, latest first.
func (r *BankRecordRepository) Unmatched(ctx context.Context, dates *DateRange, p Page) ([]models.BankRecord, error) {
	return findUnmatched[models.BankRecord](ctx, r.db, bankTable, dates, p)
}

// Candidates returns unmatched bank records inside the amount and date
// bounds of q, unranked and unfiltered by name or code.
func (r *BankRecordRepository) Candidates(ctx context.Context, q matching.CandidateQuery) ([]models.BankRecord, error) {
	return findCandidates[models.BankRecord](ctx, r.db, bankTable, q)
}

func (r *BankRecordRepository) Count(ctx context.Context) (int64, error) {
	return countAll(ctx, r.db, bankTable)
}

func (r *BankRecordRepository) CountUnmatched(ctx context.Context, dates *DateRange) (int64, error) {
	return countUnmatched(ctx, r.db, bankTable, dates)
}

func (r *BankRecordRepository) DateBounds(ctx context.Context) (first, last *models.BankRecord, err error) {
	return dateBounds[models.BankRecord](ctx, r.db, bankTable)
}
