package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"match-reconciliation-backend/internal/models"
)

// maxInsertAttempts bounds the retries after a generated code clashes.
const maxInsertAttempts = 3

// NewMatch describes a pairing to create.
type NewMatch struct {
	BankID      uuid.UUID
	SaleID      uuid.UUID
	MatchType   string
	Confidence  string
	State       models.MatchState
	PerformedBy string
}

type MatchRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db: db, now: time.Now}
}

// CreateAuto creates a match with a generated code. It returns nil, nil
// when either record already belongs to a match.
func (r *MatchRepository) CreateAuto(ctx context.Context, p NewMatch) (*models.Match, error) {
	m, err := r.insert(ctx, p, "", models.ActionCreated)
	if errors.Is(err, ErrConflictingMatch) {
		return nil, nil
	}
	return m, err
}

// CreateWithCode creates a match under a code supplied from outside. It
// returns nil, nil when either record is already matched and
// ErrCodeCollision when the code is taken by another match.
func (r *MatchRepository) CreateWithCode(ctx context.Context, p NewMatch, code string) (*models.Match, error) {
	if code == "" {
		return nil, errors.New("match code is required")
	}
	m, err := r.insert(ctx, p, code, models.ActionImported)
	if errors.Is(err, ErrConflictingMatch) {
		return nil, nil
	}
	return m, err
}

// CreateManual pairs two records on an operator's behalf. The match is
// confirmed immediately and labelled MANUAL/MANUAL.
func (r *MatchRepository) CreateManual(ctx context.Context, bankID, saleID uuid.UUID, performedBy string) (*models.Match, error) {
	return r.insert(ctx, NewMatch{
		BankID:      bankID,
		SaleID:      saleID,
		MatchType:   models.ManualMarker,
		Confidence:  models.ManualMarker,
		State:       models.StateConfirmed,
		PerformedBy: performedBy,
	}, "", models.ActionManual)
}

// insert checks that neither record is matched and inserts the match in the
// same transaction. The insert runs in a savepoint: when a unique index
// rejects it, a concurrent writer got in after the check, so the check is
// repeated to report what it took. A clash on a generated code is retried
// with a fresh code.
func (r *MatchRepository) insert(ctx context.Context, p NewMatch, code, action string) (*models.Match, error) {
	if p.State != models.StatePending && p.State != models.StateConfirmed {
		return nil, errors.Errorf("cannot create a match in state %q", p.State)
	}

	var m *models.Match
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkAvailable(tx, p, code); err != nil {
			return err
		}
		for attempt := 0; attempt < maxInsertAttempts; attempt++ {
			m = r.newMatch(p, code)
			err := tx.Transaction(func(sp *gorm.DB) error {
				return sp.Create(m).Error
			})
			if err == nil {
				return writeAudit(tx, m, action, p.PerformedBy, nil)
			}
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.Wrap(err, "insert match")
			}
			if cerr := checkAvailable(tx, p, code); cerr != nil {
				return cerr
			}
			if code != "" {
				return errors.Wrap(err, "insert match")
			}
		}
		return errors.Errorf("no free match code after %d attempts", maxInsertAttempts)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MatchRepository) newMatch(p NewMatch, code string) *models.Match {
	m := &models.Match{
		MatchCode:    code,
		BankRecordID: p.BankID,
		SaleRecordID: p.SaleID,
		MatchType:    p.MatchType,
		Confidence:   p.Confidence,
		State:        p.State,
	}
	if m.MatchCode == "" {
		m.MatchCode = NewMatchCode()
	}
	if p.State == models.StateConfirmed {
		now := r.now()
		m.ConfirmedAt = &now
	}
	return m
}

// checkAvailable fails with ErrConflictingMatch when either record is
// already matched, ErrRecordNotFound when either is missing and
// ErrCodeCollision when a supplied code is taken.
func checkAvailable(tx *gorm.DB, p NewMatch, code string) error {
	bankID, saleID := p.BankID, p.SaleID
	exists, err := matchExists(tx, &bankID, &saleID)
	if err != nil {
		return err
	}
	if exists {
		return ErrConflictingMatch
	}
	if err := recordsExist(tx, p.BankID, p.SaleID); err != nil {
		return err
	}
	if code == "" {
		return nil
	}
	var n int64
	if err := tx.Model(&models.Match{}).Where("match_code = ?", code).Count(&n).Error; err != nil {
		return errors.Wrap(err, "check match code")
	}
	if n > 0 {
		return errors.Wrapf(ErrCodeCollision, "code %s", code)
	}
	return nil
}

// matchExists reports whether a match refers to the given bank or sale record.
func matchExists(db *gorm.DB, bankID, saleID *uuid.UUID) (bool, error) {
	q := db.Model(&models.Match{})
	switch {
	case bankID != nil && saleID != nil:
		q = q.Where("bank_record_id = ? OR sale_record_id = ?", *bankID, *saleID)
	case bankID != nil:
		q = q.Where("bank_record_id = ?", *bankID)
	case saleID != nil:
		q = q.Where("sale_record_id = ?", *saleID)
	default:
		return false, nil
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, errors.Wrap(err, "check existing match")
	}
	return n > 0, nil
}

func recordsExist(db *gorm.DB, bankID, saleID uuid.UUID) error {
	var n int64
	if err := db.Model(&models.BankRecord{}).Where("id = ?", bankID).Count(&n).Error; err != nil {
		return errors.Wrap(err, "check bank record")
	}
	if n == 0 {
		return errors.Wrapf(ErrRecordNotFound, "bank record %s", bankID)
	}
	if err := db.Model(&models.SaleRecord{}).Where("id = ?", saleID).Count(&n).Error; err != nil {
		return errors.Wrap(err, "check sale record")
	}
	if n == 0 {
		return errors.Wrapf(ErrRecordNotFound, "sale record %s", saleID)
	}
	return nil
}

// Approve moves a pending match to CONFIRMED and stamps confirmed_at.
func (r *MatchRepository) Approve(ctx context.Context, id uuid.UUID, performedBy string) (*models.Match, error) {
	var m models.Match
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Match{}).
			Where("id = ? AND state = ?", id, models.StatePending).
			Updates(map[string]interface{}{
				"state":        models.StateConfirmed,
				"confirmed_at": r.now(),
			})
		if res.Error != nil {
			return errors.Wrap(res.Error, "approve match")
		}
		if res.RowsAffected == 0 {
			return ErrMatchNotPending
		}
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return errors.Wrap(err, "reload match")
		}
		return writeAudit(tx, &m, models.ActionApproved, performedBy, nil)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Reject deletes a pending match, releasing both records.
func (r *MatchRepository) Reject(ctx context.Context, id uuid.UUID, performedBy string) (*models.Match, error) {
	var m models.Match
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&m, "id = ? AND state = ?", id, models.StatePending).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMatchNotPending
		}
		if err != nil {
			return errors.Wrap(err, "load match")
		}
		res := tx.Where("id = ? AND state = ?", id, models.StatePending).Delete(&models.Match{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "reject match")
		}
		if res.RowsAffected == 0 {
			return ErrMatchNotPending
		}
		return writeAudit(tx, &m, models.ActionRejected, performedBy, m)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ApproveAll confirms every pending match with a single statement.
func (r *MatchRepository) ApproveAll(ctx context.Context, performedBy string) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Match{}).
			Where("state = ?", models.StatePending).
			Updates(map[string]interface{}{
				"state":        models.StateConfirmed,
				"confirmed_at": r.now(),
			})
		if res.Error != nil {
			return errors.Wrap(res.Error, "approve pending matches")
		}
		affected = res.RowsAffected
		if affected == 0 {
			return nil
		}
		return writeAudit(tx, nil, models.ActionApproveAll, performedBy, map[string]int64{"approved": affected})
	})
	return affected, err
}

func (r *MatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	var m models.Match
	err := r.db.WithContext(ctx).Preload("Bank").Preload("Sale").First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load match")
	}
	return &m, nil
}

// List returns matches in the given state with both records loaded.
// Pending matches come oldest first, confirmed ones most recently confirmed first.
func (r *MatchRepository) List(ctx context.Context, state models.MatchState, p Page) ([]models.Match, error) {
	q := r.db.WithContext(ctx).
		Preload("Bank").
		Preload("Sale").
		Where("state = ?", state).
		Scopes(paginate(p))
	if state == models.StateConfirmed {
		q = q.Order("confirmed_at DESC").Order("id")
	} else {
		q = q.Order("created_at").Order("id")
	}
	var matches []models.Match
	err := q.Find(&matches).Error
	return matches, errors.Wrapf(err, "list %s matches", state)
}

// CountByState counts matches in a state. With a date range only matches
// whose bank or sale date falls inside it are counted.
func (r *MatchRepository) CountByState(ctx context.Context, state models.MatchState, dates *DateRange) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Match{}).Where("matches.state = ?", state)
	if dates != nil {
		q = q.Joins("JOIN bank_records b ON b.id = matches.bank_record_id").
			Joins("JOIN sale_records s ON s.id = matches.sale_record_id").
			Where("(s.date BETWEEN ? AND ?) OR (b.date BETWEEN ? AND ?)",
				dates.From, dates.To, dates.From, dates.To)
	}
	var n int64
	err := q.Count(&n).Error
	return n, errors.Wrapf(err, "count %s matches", state)
}

// AuditTrail returns the audit entries of one match, oldest first.
func (r *MatchRepository) AuditTrail(ctx context.Context, matchID uuid.UUID) ([]models.MatchAuditLog, error) {
	var logs []models.MatchAuditLog
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at").
		Find(&logs).Error
	return logs, errors.Wrap(err, "load audit trail")
}

func writeAudit(tx *gorm.DB, m *models.Match, action, performedBy string, details interface{}) error {
	entry := models.MatchAuditLog{
		Action:      action,
		PerformedBy: performedBy,
	}
	if m != nil {
		id, bankID, saleID := m.ID, m.BankRecordID, m.SaleRecordID
		entry.MatchID = &id
		entry.MatchCode = m.MatchCode
		entry.BankRecordID = &bankID
		entry.SaleRecordID = &saleID
	}
	if details != nil {
		payload, err := json.Marshal(details)
		if err != nil {
			return errors.Wrap(err, "encode audit details")
		}
		entry.Details = datatypes.JSON(payload)
	}
	return errors.Wrap(tx.Create(&entry).Error, "write audit log")
}
