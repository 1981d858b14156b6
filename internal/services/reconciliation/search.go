package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"match-reconciliation-backend/internal/models"
	"match-reconciliation-backend/internal/services/matching"
)

// CandidatesForBank searches the sales ledger for counterparts of a bank record.
func (s *ReconciliationService) CandidatesForBank(ctx context.Context, bankID uuid.UUID, c matching.Criteria, limit int) ([]matching.Candidate, error) {
	source, err := s.repos.Bank.GetByID(ctx, bankID)
	if err != nil {
		return nil, err
	}
	return s.search(ctx, source, c, limit, func(q matching.CandidateQuery) ([]models.LedgerRecord, error) {
		rows, err := s.repos.Sales.Candidates(ctx, q)
		return asLedger(rows), err
	})
}

// CandidatesForSale searches the bank ledger for counterparts of a sale record.
func (s *ReconciliationService) CandidatesForSale(ctx context.Context, saleID uuid.UUID, c matching.Criteria, limit int) ([]matching.Candidate, error) {
	source, err := s.repos.Sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return s.search(ctx, source, c, limit, func(q matching.CandidateQuery) ([]models.LedgerRecord, error) {
		rows, err := s.repos.Bank.Candidates(ctx, q)
		return asLedger(rows), err
	})
}

func (s *ReconciliationService) search(
	ctx context.Context,
	source models.LedgerRecord,
	c matching.Criteria,
	limit int,
	find func(matching.CandidateQuery) ([]models.LedgerRecord, error),
) ([]matching.Candidate, error) {
	q, ok := matching.BuildQuery(source, c)
	if !ok {
		return []matching.Candidate{}, nil
	}
	rows, err := find(q)
	if err != nil {
		return nil, err
	}
	rows = matching.Filter(q, rows)
	if limit <= 0 {
		limit = s.searchLimit
	}
	s.log.WithFields(logrus.Fields{
		"source":    source.Ledger(),
		"source_id": source.LedgerID(),
		"searched":  source.Ledger().Opposite(),
		"matches":   len(rows),
	}).Debug("candidate search")
	return matching.Rank(source, rows, limit), nil
}

func asLedger[T any, P interface {
	*T
	models.LedgerRecord
}](rows []T) []models.LedgerRecord {
	out := make([]models.LedgerRecord, len(rows))
	for i := range rows {
		out[i] = P(&rows[i])
	}
	return out
}
