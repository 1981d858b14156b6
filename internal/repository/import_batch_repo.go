package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"match-reconciliation-backend/internal/models"
)

type ImportBatchRepository struct {
	db *gorm.DB
}

func NewImportBatchRepository(db *gorm.DB) *ImportBatchRepository {
	return &ImportBatchRepository{db: db}
}

// Create opens a batch in the processing state.
func (r *ImportBatchRepository) Create(ctx context.Context, filename string, totalRows int) (*models.ImportBatch, error) {
	now := time.Now()
	batch := &models.ImportBatch{
		ID:        uuid.New(),
		Filename:  filename,
		TotalRows: totalRows,
		Status:    models.BatchProcessing,
		StartedAt: now,
		CreatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(batch).Error; err != nil {
		return nil, errors.Wrap(err, "create import batch")
	}
	return batch, nil
}

func (r *ImportBatchRepository) Get(ctx context.Context, id uuid.UUID) (*models.ImportBatch, error) {
	return findByID[models.ImportBatch](ctx, r.db, id)
}

// UpdateProgress records how many rows have been processed so far.
func (r *ImportBatchRepository) UpdateProgress(ctx context.Context, id uuid.UUID, processed int) error {
	err := r.db.WithContext(ctx).Model(&models.ImportBatch{}).
		Where("id = ?", id).
		Update("processed_count", processed).
		Error
	return errors.Wrap(err, "update batch progress")
}

// Finish stores the final counters of batch and stamps completed_at.
func (r *ImportBatchRepository) Finish(ctx context.Context, batch *models.ImportBatch, status string) error {
	now := time.Now()
	batch.Status = status
	batch.CompletedAt = &now
	err := r.db.WithContext(ctx).Model(&models.ImportBatch{}).
		Where("id = ?", batch.ID).
		Updates(map[string]interface{}{
			"processed_count": batch.ProcessedCount,
			"new_bank_count":  batch.NewBankCount,
			"new_sales_count": batch.NewSalesCount,
			"confirmed_count": batch.ConfirmedCount,
			"pending_count":   batch.PendingCount,
			"no_match_count":  batch.NoMatchCount,
			"skipped_count":   batch.SkippedCount,
			"summary":         batch.Summary,
			"status":          status,
			"completed_at":    now,
		}).Error
	return errors.Wrap(err, "finish import batch")
}
