package matching

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"match-reconciliation-backend/internal/models"
)

// DefaultLimit caps a candidate list when the caller gives no limit.
const DefaultLimit = 10

// DefaultDayWindow is the date window used when criteria are not given.
const DefaultDayWindow = 7

type AmountKind int

const (
	AmountExact AmountKind = iota
	AmountPercent
	AmountAny
)

// AmountMode selects how a candidate's amount must relate to the source's.
type AmountMode struct {
	Kind    AmountKind
	Percent int64
}

func ExactAmount() AmountMode        { return AmountMode{Kind: AmountExact} }
func AnyAmount() AmountMode          { return AmountMode{Kind: AmountAny} }
func PercentBand(p int64) AmountMode { return AmountMode{Kind: AmountPercent, Percent: p} }

var allowedBands = map[int64]bool{1: true, 5: true, 10: true}

// ParseAmountMode reads "exact", "1%", "5%", "10%" or "any". Anything it
// does not recognise disables the amount filter rather than failing.
func ParseAmountMode(token string) AmountMode {
	t := strings.ToLower(strings.TrimSpace(token))
	switch t {
	case "exact", "":
		return ExactAmount()
	case "any":
		return AnyAmount()
	}
	t = strings.TrimPrefix(t, "±")
	t = strings.TrimSuffix(t, "%")
	p, err := strconv.ParseInt(t, 10, 64)
	if err != nil || !allowedBands[p] {
		return AnyAmount()
	}
	return PercentBand(p)
}

func (m AmountMode) String() string {
	switch m.Kind {
	case AmountExact:
		return "exact"
	case AmountPercent:
		return fmt.Sprintf("%d%%", m.Percent)
	default:
		return "any"
	}
}

// Criteria toggles the filters of a candidate search. A nil or
// non-positive DayWindow disables the date filter.
type Criteria struct {
	Amount    AmountMode
	DayWindow *int
	Name      bool
	Code      bool
}

func DefaultCriteria() Criteria {
	days := DefaultDayWindow
	return Criteria{Amount: ExactAmount(), DayWindow: &days}
}

// CandidateQuery is the storage-facing form of Criteria resolved against
// one source record. Nil bounds mean "no filter".
type CandidateQuery struct {
	AmountMin    *decimal.Decimal
	AmountMax    *decimal.Decimal
	DateFrom     *time.Time
	DateTo       *time.Time
	NameTokens   []string
	CodeFragment string
}

// BuildQuery resolves criteria against source. ok is false when no record
// can satisfy the criteria, which happens when a date window is requested
// for a source without a date.
func BuildQuery(source models.LedgerRecord, c Criteria) (q CandidateQuery, ok bool) {
	amount := source.LedgerAmount()
	switch c.Amount.Kind {
	case AmountExact:
		q.AmountMin, q.AmountMax = &amount, &amount
	case AmountPercent:
		low, high := band(amount, c.Amount.Percent)
		q.AmountMin, q.AmountMax = &low, &high
	}

	if c.DayWindow != nil && *c.DayWindow > 0 {
		date := source.LedgerDate()
		if date == nil {
			return q, false
		}
		from := civil(*date).AddDate(0, 0, -*c.DayWindow)
		to := civil(*date).AddDate(0, 0, *c.DayWindow)
		q.DateFrom, q.DateTo = &from, &to
	}

	if c.Name {
		q.NameTokens = NameTokens(source.LedgerName())
	}
	if c.Code {
		q.CodeFragment = CodeFragment(source.LedgerCode())
	}
	return q, true
}

func band(amount decimal.Decimal, percent int64) (decimal.Decimal, decimal.Decimal) {
	hundred := decimal.NewFromInt(100)
	low := amount.Mul(hundred.Sub(decimal.NewFromInt(percent))).Div(hundred)
	high := amount.Mul(hundred.Add(decimal.NewFromInt(percent))).Div(hundred)
	if low.GreaterThan(high) {
		low, high = high, low
	}
	return low, high
}

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
