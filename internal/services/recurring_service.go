package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mindful/internal/core"
	"mindful/internal/log"
)

// RecurringService manages recurring spend definitions.
type RecurringService struct {
	repo Repository
	now  func() time.Time
}

func NewRecurringService(repo Repository) *RecurringService {
	return &RecurringService{repo: repo, now: time.Now}
}

// Create validates and stores a definition. New definitions are active.
func (s *RecurringService) Create(ctx context.Context, in core.RecurringSpend) (core.RecurringSpend, error) {
	in.IsActive = true
	rs := core.NewRecurringSpend(in, s.now())
	if err := core.Validation(rs.Validate()); err != nil {
		return core.RecurringSpend{}, err
	}

	if err := s.repo.CreateRecurringSpend(ctx, rs); err != nil {
		return core.RecurringSpend{}, fmt.Errorf("create recurring spend: %w", err)
	}

	slog.InfoContext(ctx, "Recurring spend created",
		log.FieldComponent, log.ComponentRecurring,
		log.FieldOperation, log.OpCreate,
		log.FieldRecurringID, rs.ID,
		log.FieldAccountID, rs.AccountID,
		log.FieldFrequency, rs.ScheduleFrequency)

	return rs, nil
}

func (s *RecurringService) Get(ctx context.Context, id string) (core.RecurringSpend, error) {
	return s.repo.GetRecurringSpend(ctx, id)
}

func (s *RecurringService) List(ctx context.Context, accountID string) ([]core.RecurringSpend, error) {
	return s.repo.ListRecurringSpends(ctx, accountID)
}

// SetActive pauses or resumes a definition and returns its new state.
func (s *RecurringService) SetActive(ctx context.Context, id string, active bool) (core.RecurringSpend, error) {
	if err := s.repo.SetRecurringSpendActive(ctx, id, active, s.now()); err != nil {
		return core.RecurringSpend{}, err
	}
	return s.repo.GetRecurringSpend(ctx, id)
}

// Occurrences previews the dates a definition falls on within a stored period.
func (s *RecurringService) Occurrences(ctx context.Context, recurringID, periodID string) ([]time.Time, error) {
	rs, err := s.repo.GetRecurringSpend(ctx, recurringID)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	return core.OccurrencesInPeriod(rs, p.StartAt, p.EndAt), nil
}
