package matching

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"match-reconciliation-backend/internal/models"
)

// Candidate is an unmatched record proposed as the counterpart of a source
// record. It is a shortlist entry for an operator, never a match.
type Candidate struct {
	Ledger     models.Ledger       `json:"ledger"`
	Record     models.LedgerRecord `json:"record"`
	AmountDiff decimal.Decimal     `json:"amount_diff"`
	DayDiff    *int                `json:"day_diff"`
}

// Rank orders rows by absolute amount difference to source, then by
// absolute day difference, and keeps at most limit of them. Rows without a
// date sort after dated rows with the same amount difference.
func Rank(source models.LedgerRecord, rows []models.LedgerRecord, limit int) []Candidate {
	if limit <= 0 {
		limit = DefaultLimit
	}

	candidates := make([]Candidate, 0, len(rows))
	for _, r := range rows {
		candidates = append(candidates, Candidate{
			Ledger:     r.Ledger(),
			Record:     r,
			AmountDiff: r.LedgerAmount().Sub(source.LedgerAmount()).Abs(),
			DayDiff:    DayDiff(source.LedgerDate(), r.LedgerDate()),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if cmp := a.AmountDiff.Cmp(b.AmountDiff); cmp != 0 {
			return cmp < 0
		}
		switch {
		case a.DayDiff == nil:
			return false
		case b.DayDiff == nil:
			return true
		}
		return *a.DayDiff < *b.DayDiff
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// DayDiff is the absolute number of calendar days between a and b, or nil
// when either date is missing.
func DayDiff(a, b *time.Time) *int {
	if a == nil || b == nil {
		return nil
	}
	days := int(civil(*a).Sub(civil(*b)).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return &days
}
