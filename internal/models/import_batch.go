package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	BatchProcessing = "processing"
	BatchCompleted  = "completed"
	BatchFailed     = "failed"
)

type ImportBatch struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Filename       string         `json:"filename"`
	TotalRows      int            `json:"total_rows"`
	ProcessedCount int            `json:"processed_count"`
	NewBankCount   int            `json:"new_bank_count"`
	NewSalesCount  int            `json:"new_sales_count"`
	ConfirmedCount int            `json:"confirmed_count"`
	PendingCount   int            `json:"pending_count"`
	NoMatchCount   int            `json:"no_match_count"`
	SkippedCount   int            `json:"skipped_count"`
	Status         string         `gorm:"index" json:"status"`
	Summary        datatypes.JSON `json:"summary"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at"`
	CreatedAt      time.Time      `json:"created_at"`
}
