package reconciliation

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"match-reconciliation-backend/internal/models"
	"match-reconciliation-backend/internal/repository"
)

// Export rebuilds the merged file: confirmed pairs, pending pairs without a
// code, bank-only rows, then sale-only rows.
func (s *ReconciliationService) Export(ctx context.Context) ([]models.MergedRow, error) {
	confirmed, err := s.repos.Matches.List(ctx, models.StateConfirmed, repository.Page{})
	if err != nil {
		return nil, err
	}
	pending, err := s.repos.Matches.List(ctx, models.StatePending, repository.Page{})
	if err != nil {
		return nil, err
	}
	bankOnly, err := s.repos.Bank.Unmatched(ctx, nil, repository.Page{})
	if err != nil {
		return nil, err
	}
	salesOnly, err := s.repos.Sales.Unmatched(ctx, nil, repository.Page{})
	if err != nil {
		return nil, err
	}

	rows := make([]models.MergedRow, 0, len(confirmed)+len(pending)+len(bankOnly)+len(salesOnly))
	for i := range confirmed {
		row := pairRow(&confirmed[i])
		row.MatchCode = confirmed[i].MatchCode
		rows = append(rows, row)
	}
	for i := range pending {
		rows = append(rows, pairRow(&pending[i]))
	}
	for i := range bankOnly {
		row := models.MergedRow{MatchType: models.NoneMatched}
		fillBank(&row, &bankOnly[i])
		rows = append(rows, row)
	}
	for i := range salesOnly {
		row := models.MergedRow{MatchType: models.NoneMatched}
		fillSale(&row, &salesOnly[i])
		rows = append(rows, row)
	}

	OrderExport(rows)
	return rows, nil
}

// OrderExport sorts rows with a match code first, pending pairs second and
// single-sided rows last, keeping the order within each group.
func OrderExport(rows []models.MergedRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return exportPriority(&rows[i]) < exportPriority(&rows[j])
	})
}

func exportPriority(r *models.MergedRow) int {
	switch {
	case r.MatchCode != "":
		return 0
	case r.MatchType != models.NoneMatched:
		return 1
	default:
		return 2
	}
}

func pairRow(m *models.Match) models.MergedRow {
	row := models.MergedRow{MatchType: m.MatchType, Confidence: m.Confidence}
	if m.Bank != nil {
		fillBank(&row, m.Bank)
	}
	if m.Sale != nil {
		fillSale(&row, m.Sale)
	}
	return row
}

func fillBank(row *models.MergedRow, b *models.BankRecord) {
	row.BankRow = b.SourceRow
	row.BankDate = b.Date
	row.BankCode = b.BankCode
	row.BankName = b.Name
	row.BankAmount = decimalPtr(b.Amount)
}

func fillSale(row *models.MergedRow, s *models.SaleRecord) {
	row.SaleRow = s.SourceRow
	row.InvoiceNumber = s.InvoiceNumber
	row.SaleCode = s.SaleCode
	row.SaleDate = s.Date
	row.SaleName = s.Name
	row.SaleAmount = decimalPtr(s.Amount)
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
