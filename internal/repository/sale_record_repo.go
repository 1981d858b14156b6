package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"match-reconciliation-backend/internal/models"
	"match-reconciliation-backend/internal/services/matching"
)

type SaleRecordRepository struct {
	db *gorm.DB
}

func NewSaleRecordRepository(db *gorm.DB) *SaleRecordRepository {
	return &SaleRecordRepository{db: db}
}

// Upsert stores rec keyed by its fingerprint. When the fingerprint is
// already known rec is replaced by the stored row and created is false.
func (r *SaleRecordRepository) Upsert(ctx context.Context, rec *models.SaleRecord) (created bool, err error) {
	if rec.Fingerprint == "" {
		rec.Fingerprint = matching.SaleFingerprint(rec.InvoiceNumber, rec.Date, rec.Amount, rec.Name, rec.SaleCode)
	}
	return upsertByFingerprint(ctx, r.db, rec, rec.Fingerprint)
}

func (r *SaleRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SaleRecord, error) {
	return findByID[models.SaleRecord](ctx, r.db, id)
}

// Unmatched lists sale records no match refers to, latest first.
func (r *SaleRecordRepository) Unmatched(ctx context.Context, dates *DateRange, p Page) ([]models.SaleRecord, error) {
	return findUnmatched[models.SaleRecord](ctx, r.db, salesTable, dates, p)
}

// Candidates returns unmatched sale records inside the amount and date
// bounds of q, unranked and unfiltered by name or code.
func (r *SaleRecordRepository) Candidates(ctx context.Context, q matching.CandidateQuery) ([]models.SaleRecord, error) {
	return findCandidates[models.SaleRecord](ctx, r.db, salesTable, q)
}

func (r *SaleRecordRepository) Count(ctx context.Context) (int64, error) {
	return countAll(ctx, r.db, salesTable)
}

func (r *SaleRecordRepository) CountUnmatched(ctx context.Context, dates *DateRange) (int64, error) {
	return countUnmatched(ctx, r.db, salesTable, dates)
}

func (r *SaleRecordRepository) DateBounds(ctx context.Context) (first, last *models.SaleRecord, err error) {
	return dateBounds[models.SaleRecord](ctx, r.db, salesTable)
}
