package reconciliation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"match-reconciliation-backend/internal/logger"
	"match-reconciliation-backend/internal/models"
	"match-reconciliation-backend/internal/repository"
	"match-reconciliation-backend/internal/services/matching"
)

const defaultStatsTTL = 30 * time.Second

type Options struct {
	StatsTTL    time.Duration
	SearchLimit int
}

type ReconciliationService struct {
	repos       *repository.Repositories
	statsCache  *cache.Cache
	searchLimit int
	log         *logrus.Entry
}

func NewReconciliationService(repos *repository.Repositories, opts Options) *ReconciliationService {
	ttl := opts.StatsTTL
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	limit := opts.SearchLimit
	if limit <= 0 {
		limit = matching.DefaultLimit
	}
	return &ReconciliationService{
		repos:       repos,
		statsCache:  cache.New(ttl, 2*ttl),
		searchLimit: limit,
		log:         logger.WithComponent("reconciliation"),
	}
}

// ApproveMatch confirms a pending match.
func (s *ReconciliationService) ApproveMatch(ctx context.Context, id uuid.UUID, by string) (*models.Match, error) {
	m, err := s.repos.Matches.Approve(ctx, id, by)
	if err != nil {
		return nil, err
	}
	s.invalidate()
	s.log.WithFields(logrus.Fields{"match_id": id, "match_code": m.MatchCode}).Info("match approved")
	return m, nil
}

// RejectMatch deletes a pending match so both records can be matched again.
func (s *ReconciliationService) RejectMatch(ctx context.Context, id uuid.UUID, by string) (*models.Match, error) {
	m, err := s.repos.Matches.Reject(ctx, id, by)
	if err != nil {
		return nil, err
	}
	s.invalidate()
	s.log.WithFields(logrus.Fields{"match_id": id, "match_code": m.MatchCode}).Info("match rejected")
	return m, nil
}

// ApproveAll confirms every pending match at once.
func (s *ReconciliationService) ApproveAll(ctx context.Context, by string) (int64, error) {
	n, err := s.repos.Matches.ApproveAll(ctx, by)
	if err != nil {
		return 0, err
	}
	s.invalidate()
	s.log.WithField("approved", n).Info("bulk approve completed")
	return n, nil
}

// ManualMatch pairs a bank record with a sale record chosen by an operator.
func (s *ReconciliationService) ManualMatch(ctx context.Context, bankID, saleID uuid.UUID, by string) (*models.Match, error) {
	m, err := s.repos.Matches.CreateManual(ctx, bankID, saleID, by)
	if err != nil {
		return nil, err
	}
	s.invalidate()
	s.log.WithFields(logrus.Fields{"match_id": m.ID, "bank_id": bankID, "sale_id": saleID}).Info("manual match created")
	return m, nil
}

func (s *ReconciliationService) GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	return s.repos.Matches.GetByID(ctx, id)
}

func (s *ReconciliationService) MatchAuditTrail(ctx context.Context, id uuid.UUID) ([]models.MatchAuditLog, error) {
	return s.repos.Matches.AuditTrail(ctx, id)
}

func (s *ReconciliationService) ListMatches(ctx context.Context, state models.MatchState, p repository.Page) ([]models.Match, error) {
	return s.repos.Matches.List(ctx, state, p)
}

func (s *ReconciliationService) ListUnmatchedBank(ctx context.Context, dates *repository.DateRange, p repository.Page) ([]models.BankRecord, error) {
	return s.repos.Bank.Unmatched(ctx, dates, p)
}

func (s *ReconciliationService) ListUnmatchedSales(ctx context.Context, dates *repository.DateRange, p repository.Page) ([]models.SaleRecord, error) {
	return s.repos.Sales.Unmatched(ctx, dates, p)
}

// Stats returns ledger and match counters, cached until the next mutation
// or the cache TTL.
func (s *ReconciliationService) Stats(ctx context.Context, dates *repository.DateRange) (repository.Stats, error) {
	key := "all"
	if dates != nil {
		key = fmt.Sprintf("%s..%s", dates.From.Format("2006-01-02"), dates.To.Format("2006-01-02"))
	}
	if v, ok := s.statsCache.Get(key); ok {
		return v.(repository.Stats), nil
	}

	stats, err := s.repos.Stats(ctx, dates)
	if err != nil {
		return stats, err
	}
	s.statsCache.SetDefault(key, stats)
	return stats, nil
}

// Reset deletes every match and ledger record.
func (s *ReconciliationService) Reset(ctx context.Context) error {
	if err := s.repos.Reset(ctx); err != nil {
		return err
	}
	s.invalidate()
	s.log.Warn("database reset")
	return nil
}

func (s *ReconciliationService) GetBatch(ctx context.Context, id uuid.UUID) (*models.ImportBatch, error) {
	return s.repos.Batches.Get(ctx, id)
}

func (s *ReconciliationService) invalidate() {
	s.statsCache.Flush()
}
