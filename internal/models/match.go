package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MatchState string

const (
	StatePending   MatchState = "PENDING"
	StateConfirmed MatchState = "CONFIRMED"
	// StateNone is the classifier's "no match" verdict. It is never stored.
	StateNone MatchState = ""
)

// ManualMarker fills both match type and confidence on operator-created matches.
const ManualMarker = "MANUAL"

// Match pairs exactly one bank record with exactly one sale record. The
// unique indexes on both foreign keys keep each record in at most one match.
type Match struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	MatchCode    string      `gorm:"size:32;uniqueIndex;not null" json:"match_code"`
	BankRecordID uuid.UUID   `gorm:"type:uuid;uniqueIndex;not null" json:"bank_record_id"`
	SaleRecordID uuid.UUID   `gorm:"type:uuid;uniqueIndex;not null" json:"sale_record_id"`
	MatchType    string      `json:"match_type"`
	Confidence   string      `json:"confidence"`
	State        MatchState  `gorm:"size:16;index;not null" json:"state"`
	CreatedAt    time.Time   `json:"created_at"`
	ConfirmedAt  *time.Time  `json:"confirmed_at"`
	Bank         *BankRecord `gorm:"foreignKey:BankRecordID" json:"bank,omitempty"`
	Sale         *SaleRecord `gorm:"foreignKey:SaleRecordID" json:"sale,omitempty"`
}

func (m *Match) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
