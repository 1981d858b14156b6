package repository

import (
	"context"
	"time"

	"match-reconciliation-backend/internal/models"
)

// Stats summarises both ledgers and the match table. Totals and date
// bounds are always global; the remaining counters honour the date range.
type Stats struct {
	TotalBank      int64      `json:"total_bank"`
	TotalSales     int64      `json:"total_sales"`
	Confirmed      int64      `json:"confirmed"`
	Pending        int64      `json:"pending"`
	UnmatchedBank  int64      `json:"unmatched_bank"`
	UnmatchedSales int64      `json:"unmatched_sales"`
	BankDateMin    *time.Time `json:"bank_date_min"`
	BankDateMax    *time.Time `json:"bank_date_max"`
	SalesDateMin   *time.Time `json:"sales_date_min"`
	SalesDateMax   *time.Time `json:"sales_date_max"`
	FilterFrom     *time.Time `json:"filter_from"`
	FilterTo       *time.Time `json:"filter_to"`
}

func (r *Repositories) Stats(ctx context.Context, dates *DateRange) (Stats, error) {
	var (
		s   Stats
		err error
	)
	if s.TotalBank, err = r.Bank.Count(ctx); err != nil {
		return s, err
	}
	if s.TotalSales, err = r.Sales.Count(ctx); err != nil {
		return s, err
	}
	if s.Confirmed, err = r.Matches.CountByState(ctx, models.StateConfirmed, dates); err != nil {
		return s, err
	}
	if s.Pending, err = r.Matches.CountByState(ctx, models.StatePending, dates); err != nil {
		return s, err
	}
	if s.UnmatchedBank, err = r.Bank.CountUnmatched(ctx, dates); err != nil {
		return s, err
	}
	if s.UnmatchedSales, err = r.Sales.CountUnmatched(ctx, dates); err != nil {
		return s, err
	}

	firstBank, lastBank, err := r.Bank.DateBounds(ctx)
	if err != nil {
		return s, err
	}
	if firstBank != nil {
		s.BankDateMin, s.BankDateMax = firstBank.Date, lastBank.Date
	}
	firstSale, lastSale, err := r.Sales.DateBounds(ctx)
	if err != nil {
		return s, err
	}
	if firstSale != nil {
		s.SalesDateMin, s.SalesDateMax = firstSale.Date, lastSale.Date
	}

	if dates != nil {
		from, to := dates.From, dates.To
		s.FilterFrom, s.FilterTo = &from, &to
	}
	return s, nil
}
