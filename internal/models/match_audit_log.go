package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionCreated    = "created"
	ActionImported   = "imported_with_code"
	ActionManual     = "manual_match"
	ActionApproved   = "approved"
	ActionRejected   = "rejected"
	ActionApproveAll = "approve_all"
)

type MatchAuditLog struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	MatchID      *uuid.UUID     `gorm:"type:uuid;index" json:"match_id"`
	MatchCode    string         `json:"match_code"`
	Action       string         `gorm:"index" json:"action"`
	BankRecordID *uuid.UUID     `gorm:"type:uuid" json:"bank_record_id"`
	SaleRecordID *uuid.UUID     `gorm:"type:uuid" json:"sale_record_id"`
	PerformedBy  string         `json:"performed_by"`
	Details      datatypes.JSON `json:"details"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (l *MatchAuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
