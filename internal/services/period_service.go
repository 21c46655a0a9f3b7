package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mindful/internal/cache"
	"mindful/internal/core"
	"mindful/internal/log"
)

// PeriodService runs the period lifecycle against the repository.
type PeriodService struct {
	repo      Repository
	summaries cache.Cache[core.PeriodSummary]
	now       func() time.Time
}

// NewPeriodService creates a period service. summaries may be nil to disable caching.
func NewPeriodService(repo Repository, summaries cache.Cache[core.PeriodSummary]) *PeriodService {
	return &PeriodService{
		repo:      repo,
		summaries: summaries,
		now:       time.Now,
	}
}

// Create validates a new period and stores it together with its materialized wallets.
func (s *PeriodService) Create(ctx context.Context, in core.PeriodInput) (core.Period, []core.Wallet, error) {
	now := s.now()
	p := core.NewPeriod(in, now)

	var problems []string
	if strings.TrimSpace(p.AccountID) == "" {
		problems = append(problems, "Account is required")
	}
	problems = append(problems, core.ValidatePeriod(p)...)
	if err := core.Validation(problems); err != nil {
		return core.Period{}, nil, err
	}

	wallets := core.MaterializeWallets(p, now)
	if err := s.repo.CreatePeriod(ctx, p, wallets); err != nil {
		return core.Period{}, nil, fmt.Errorf("create period: %w", err)
	}

	slog.InfoContext(ctx, "Period created",
		log.FieldComponent, log.ComponentPeriod,
		log.FieldOperation, log.OpCreate,
		log.FieldPeriodID, p.ID,
		log.FieldAccountID, p.AccountID,
		"wallets", len(wallets))

	return p, wallets, nil
}

func (s *PeriodService) Get(ctx context.Context, id string) (core.Period, error) {
	return s.repo.GetPeriod(ctx, id)
}

func (s *PeriodService) List(ctx context.Context, accountID string) ([]core.Period, error) {
	return s.repo.ListPeriods(ctx, accountID)
}

// Update applies the provided fields and revalidates the result. Wallets already
// materialized are kept as they are when the wallet setup changes.
func (s *PeriodService) Update(ctx context.Context, id string, u core.PeriodUpdate) (core.Period, error) {
	p, err := s.repo.GetPeriod(ctx, id)
	if err != nil {
		return core.Period{}, err
	}

	next := core.UpdatePeriod(p, u, s.now())
	if err := core.Validation(core.ValidatePeriod(next)); err != nil {
		return core.Period{}, err
	}

	if err := s.repo.UpdatePeriod(ctx, next); err != nil {
		return core.Period{}, fmt.Errorf("update period: %w", err)
	}
	s.InvalidateSummary(id)

	slog.InfoContext(ctx, "Period updated",
		log.FieldComponent, log.ComponentPeriod,
		log.FieldOperation, log.OpUpdate,
		log.FieldPeriodID, id)

	return next, nil
}

// Close marks the period closed. Closing a closed period is a no-op.
func (s *PeriodService) Close(ctx context.Context, id string) (core.Period, error) {
	p, err := s.repo.GetPeriod(ctx, id)
	if err != nil {
		return core.Period{}, err
	}
	if p.IsClosed() {
		return p, nil
	}

	closed := core.ClosePeriod(p, s.now())
	if err := s.repo.UpdatePeriod(ctx, closed); err != nil {
		return core.Period{}, fmt.Errorf("close period: %w", err)
	}
	s.InvalidateSummary(id)

	slog.InfoContext(ctx, "Period closed",
		log.FieldComponent, log.ComponentPeriod,
		log.FieldOperation, log.OpClose,
		log.FieldPeriodID, id)

	return closed, nil
}

// Wallets lists the wallets of an existing period.
func (s *PeriodService) Wallets(ctx context.Context, id string) ([]core.Wallet, error) {
	if _, err := s.repo.GetPeriod(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListWallets(ctx, id)
}

// Summary aggregates the budget facts of a period, cached per period and day.
func (s *PeriodService) Summary(ctx context.Context, id string) (core.PeriodSummary, error) {
	now := s.now()
	key := summaryKey(id, now)
	if s.summaries != nil {
		if summary, ok := s.summaries.Get(key); ok {
			return summary, nil
		}
	}

	p, err := s.repo.GetPeriod(ctx, id)
	if err != nil {
		return core.PeriodSummary{}, err
	}
	wallets, err := s.repo.ListWallets(ctx, id)
	if err != nil {
		return core.PeriodSummary{}, fmt.Errorf("list wallets: %w", err)
	}

	summary := core.SummarizePeriod(p, wallets, now)
	if s.summaries != nil {
		s.summaries.Set(key, summary)
	}
	return summary, nil
}

// InvalidateSummary drops every cached summary of a period.
func (s *PeriodService) InvalidateSummary(periodID string) {
	if s.summaries == nil {
		return
	}
	s.summaries.DeletePrefix(periodID + "|")
}

func summaryKey(periodID string, now time.Time) string {
	return periodID + "|" + now.Format("2006-01-02")
}
