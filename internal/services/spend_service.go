package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mindful/internal/core"
	"mindful/internal/log"
)

// SpendService records spends against period wallets and announces them.
type SpendService struct {
	repo      Repository
	publisher SpendPublisher
	periods   *PeriodService
	now       func() time.Time
}

// NewSpendService creates a spend service. publisher and periods may be nil.
func NewSpendService(repo Repository, publisher SpendPublisher, periods *PeriodService) *SpendService {
	return &SpendService{
		repo:      repo,
		publisher: publisher,
		periods:   periods,
		now:       time.Now,
	}
}

// Record validates and stores a spend, adding its amount to the wallet balance.
// Closed periods refuse new spends and the wallet must belong to the period.
func (s *SpendService) Record(ctx context.Context, in core.Spend) (core.Spend, error) {
	sp := core.NewSpend(in, s.now())
	if err := core.Validation(sp.Validate()); err != nil {
		return core.Spend{}, err
	}

	p, err := s.repo.GetPeriod(ctx, sp.PeriodID)
	if err != nil {
		return core.Spend{}, err
	}
	if p.IsClosed() {
		return core.Spend{}, fmt.Errorf("record spend in %s: %w", p.ID, core.ErrPeriodClosed)
	}

	w, err := s.repo.GetWallet(ctx, sp.WalletID)
	if errors.Is(err, core.ErrNotFound) || (err == nil && w.PeriodID != p.ID) {
		return core.Spend{}, fmt.Errorf("wallet %s: %w", sp.WalletID, core.ErrWalletNotInPeriod)
	}
	if err != nil {
		return core.Spend{}, err
	}

	sp.AccountID = p.AccountID
	if err := s.repo.CreateSpend(ctx, sp); err != nil {
		return core.Spend{}, err
	}
	if s.periods != nil {
		s.periods.InvalidateSummary(p.ID)
	}

	slog.InfoContext(ctx, "Spend recorded",
		log.NewFields().
			WithComponent(log.ComponentSpend).
			WithOperation(log.OpCreate).
			WithSpend(sp.ID, sp.PeriodID, sp.WalletID, sp.Amount.String()).
			ToSlice()...)

	s.publish(ctx, sp)
	return sp, nil
}

// publish is best effort: the spend is already stored.
func (s *SpendService) publish(ctx context.Context, sp core.Spend) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping spend event", log.FieldSpendID, sp.ID)
		return
	}
	if err := s.publisher.PublishSpendRecorded(ctx, sp.ID, sp.WalletID, sp.PeriodID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish spend event",
			log.FieldComponent, log.ComponentSpend,
			log.FieldSpendID, sp.ID,
			log.FieldError, err)
	}
}

func (s *SpendService) Get(ctx context.Context, id string) (core.Spend, error) {
	return s.repo.GetSpend(ctx, id)
}

// List returns the spends of an existing period.
func (s *SpendService) List(ctx context.Context, periodID string) ([]core.Spend, error) {
	if _, err := s.repo.GetPeriod(ctx, periodID); err != nil {
		return nil, err
	}
	return s.repo.ListSpends(ctx, periodID)
}
