package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"mindful/internal/core"
	"mindful/internal/log"
)

// RecurringProcessor materializes due occurrences of recurring spends as ordinary spends
type RecurringProcessor struct {
	repo        Repository
	spends      *SpendService
	concurrency int
}

// NewRecurringProcessor creates a processor handling up to concurrency periods at once.
func NewRecurringProcessor(repo Repository, spends *SpendService, concurrency int) *RecurringProcessor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &RecurringProcessor{
		repo:        repo,
		spends:      spends,
		concurrency: concurrency,
	}
}

// ProcessDue records every occurrence between each open period's start and today that
// has not been recorded yet. It returns the number of spends created.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.repo == nil || p.spends == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	periods, err := p.repo.ListOpenPeriods(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list open periods: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring spends",
		log.FieldComponent, log.ComponentRecurring,
		"open_periods", len(periods),
		"processing_date", now.Format("2006-01-02"))

	var created atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for _, period := range periods {
		period := period
		g.Go(func() error {
			n, err := p.processPeriod(gctx, period, now)
			created.Add(int64(n))
			if err != nil {
				return fmt.Errorf("period %s: %w", period.ID, err)
			}
			return nil
		})
	}

	err = g.Wait()
	total := int(created.Load())

	slog.InfoContext(ctx, "Recurring spend processing complete",
		log.FieldComponent, log.ComponentRecurring,
		"created", total,
		"periods", len(periods))

	return total, err
}

func (p *RecurringProcessor) processPeriod(ctx context.Context, period core.Period, now time.Time) (int, error) {
	defs, err := p.repo.ListActiveRecurringSpends(ctx, period.AccountID)
	if err != nil {
		return 0, fmt.Errorf("list recurring spends: %w", err)
	}
	if len(defs) == 0 {
		return 0, nil
	}

	wallets, err := p.repo.ListWallets(ctx, period.ID)
	if err != nil {
		return 0, fmt.Errorf("list wallets: %w", err)
	}

	until := period.EndAt
	if today := core.Midnight(now.In(period.StartAt.Location())); today.Before(until) {
		until = today
	}

	created := 0
	for _, def := range defs {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		wallet, ok := p.resolveWallet(ctx, def, wallets)
		if !ok {
			slog.WarnContext(ctx, "No wallet for recurring spend in period",
				log.FieldRecurringID, def.ID,
				log.FieldPeriodID, period.ID)
			continue
		}

		for _, date := range core.OccurrencesInPeriod(def, period.StartAt, until) {
			n, stop := p.recordOccurrence(ctx, def, period, wallet, date)
			created += n
			if stop {
				return created, nil
			}
		}
	}

	return created, nil
}

// recordOccurrence creates one spend. stop reports that the period no longer accepts spends.
func (p *RecurringProcessor) recordOccurrence(ctx context.Context, def core.RecurringSpend, period core.Period, wallet core.Wallet, date time.Time) (created int, stop bool) {
	recurringID := def.ID
	sp, err := p.spends.Record(ctx, core.Spend{
		PeriodID:         period.ID,
		WalletID:         wallet.ID,
		RecurringSpendID: &recurringID,
		Date:             date,
		Description:      def.Description,
		Amount:           def.Amount,
		Category:         def.Category,
		Tags:             def.Tags,
	})
	switch {
	case err == nil:
		slog.InfoContext(ctx, "Created spend from recurring definition",
			log.FieldRecurringID, def.ID,
			log.FieldSpendID, sp.ID,
			log.FieldAmount, def.Amount.String(),
			log.FieldFrequency, def.ScheduleFrequency,
			"date", date.Format("2006-01-02"))
		return 1, false
	case errors.Is(err, core.ErrDuplicateSpend):
		return 0, false
	case errors.Is(err, core.ErrPeriodClosed):
		return 0, true
	default:
		slog.ErrorContext(ctx, "Failed to create spend from recurring definition",
			log.FieldRecurringID, def.ID,
			log.FieldPeriodID, period.ID,
			log.FieldError, err)
		return 0, false
	}
}

// resolveWallet maps a definition's wallet onto the period: same id, then same name, then default.
func (p *RecurringProcessor) resolveWallet(ctx context.Context, def core.RecurringSpend, wallets []core.Wallet) (core.Wallet, bool) {
	for _, w := range wallets {
		if w.ID == def.WalletID {
			return w, true
		}
	}

	if origin, err := p.repo.GetWallet(ctx, def.WalletID); err == nil {
		for _, w := range wallets {
			if strings.EqualFold(strings.TrimSpace(w.Name), strings.TrimSpace(origin.Name)) {
				return w, true
			}
		}
	}

	return core.DefaultWallet(wallets)
}
