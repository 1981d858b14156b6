package reconciliation

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"match-reconciliation-backend/internal/models"
	"match-reconciliation-backend/internal/repository"
	"match-reconciliation-backend/internal/services/matching"
)

const (
	progressEvery = 100
	importActor   = "import"
)

// RowError reports a row that was skipped during import.
type RowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

type ImportResult struct {
	Batch  *models.ImportBatch `json:"batch"`
	Errors []RowError          `json:"errors"`
}

type rowOutcome struct {
	newBank bool
	newSale bool
	state   models.MatchState
	noMatch bool
}

// Import stores the bank and sale sides of every row and creates the
// matches their labels call for. Each row runs in its own transaction; a
// failing row is logged and skipped so the rest of the file still loads.
func (s *ReconciliationService) Import(ctx context.Context, filename string, rows []models.MergedRow) (*ImportResult, error) {
	batch, err := s.repos.Batches.Create(ctx, filename, len(rows))
	if err != nil {
		return nil, err
	}
	log := s.log.WithFields(logrus.Fields{"batch_id": batch.ID, "file": filename})
	log.WithField("rows", len(rows)).Info("import started")

	result := &ImportResult{Batch: batch, Errors: []RowError{}}
	defer s.invalidate()

	for i := range rows {
		if err := ctx.Err(); err != nil {
			if ferr := s.repos.Batches.Finish(context.WithoutCancel(ctx), batch, models.BatchFailed); ferr != nil {
				log.WithError(ferr).Warn("could not mark batch failed")
			}
			log.WithField("processed", batch.ProcessedCount).Warn("import cancelled")
			return result, errors.Wrap(err, "import cancelled")
		}
		row := &rows[i]
		line := row.Line
		if line == 0 {
			line = i + 1
		}

		outcome, err := s.importRow(ctx, row)
		batch.ProcessedCount++
		if err != nil {
			batch.SkippedCount++
			result.Errors = append(result.Errors, RowError{Line: line, Error: err.Error()})
			entry := log.WithField("row", line).WithError(err)
			if errors.Is(err, repository.ErrCodeCollision) {
				entry.Error("match code collision, row not imported")
			} else {
				entry.Error("row skipped")
			}
		} else {
			outcome.apply(batch)
		}

		if batch.ProcessedCount%progressEvery == 0 {
			if err := s.repos.Batches.UpdateProgress(ctx, batch.ID, batch.ProcessedCount); err != nil {
				log.WithError(err).Warn("could not record progress")
			}
		}
	}

	if len(result.Errors) > 0 {
		summary, err := json.Marshal(map[string]interface{}{"errors": result.Errors})
		if err == nil {
			batch.Summary = datatypes.JSON(summary)
		}
	}
	if err := s.repos.Batches.Finish(ctx, batch, models.BatchCompleted); err != nil {
		return result, err
	}

	log.WithFields(logrus.Fields{
		"new_bank":  batch.NewBankCount,
		"new_sales": batch.NewSalesCount,
		"confirmed": batch.ConfirmedCount,
		"pending":   batch.PendingCount,
		"no_match":  batch.NoMatchCount,
		"skipped":   batch.SkippedCount,
	}).Info("import completed")
	return result, nil
}

func (s *ReconciliationService) importRow(ctx context.Context, row *models.MergedRow) (rowOutcome, error) {
	var out rowOutcome
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		out = rowOutcome{}

		var bank *models.BankRecord
		if row.HasBank() {
			bank = &models.BankRecord{
				SourceRow: row.BankRow,
				Date:      row.BankDate,
				BankCode:  strings.TrimSpace(row.BankCode),
				Name:      strings.TrimSpace(row.BankName),
				Amount:    *row.BankAmount,
			}
			created, err := tx.Bank.Upsert(ctx, bank)
			if err != nil {
				return err
			}
			out.newBank = created
		}

		var sale *models.SaleRecord
		if row.HasSale() {
			sale = &models.SaleRecord{
				SourceRow:     row.SaleRow,
				InvoiceNumber: strings.TrimSpace(row.InvoiceNumber),
				SaleCode:      strings.TrimSpace(row.SaleCode),
				Date:          row.SaleDate,
				Name:          strings.TrimSpace(row.SaleName),
				Amount:        *row.SaleAmount,
			}
			created, err := tx.Sales.Upsert(ctx, sale)
			if err != nil {
				return err
			}
			out.newSale = created
		}

		if bank == nil || sale == nil {
			return nil
		}

		code := strings.TrimSpace(row.MatchCode)
		state, overridden := matching.Decide(row.MatchType, row.Confidence, code)
		if state == models.StateNone {
			out.noMatch = true
			return nil
		}

		p := repository.NewMatch{
			BankID:      bank.ID,
			SaleID:      sale.ID,
			MatchType:   row.MatchType,
			Confidence:  row.Confidence,
			State:       state,
			PerformedBy: importActor,
		}

		var (
			m   *models.Match
			err error
		)
		if code != "" {
			if overridden {
				s.log.WithFields(logrus.Fields{
					"match_code": code,
					"match_type": row.MatchType,
					"confidence": row.Confidence,
				}).Warn("external match code confirms a pairing its labels would not")
			}
			m, err = tx.Matches.CreateWithCode(ctx, p, code)
		} else {
			m, err = tx.Matches.CreateAuto(ctx, p)
		}
		if err != nil {
			return err
		}
		if m != nil {
			out.state = m.State
		}
		return nil
	})
	return out, err
}

func (o rowOutcome) apply(b *models.ImportBatch) {
	if o.newBank {
		b.NewBankCount++
	}
	if o.newSale {
		b.NewSalesCount++
	}
	switch {
	case o.noMatch:
		b.NoMatchCount++
	case o.state == models.StateConfirmed:
		b.ConfirmedCount++
	case o.state == models.StatePending:
		b.PendingCount++
	}
}
