package worker

import (
	"context"
	"fmt"
	"log/slog"

	"mindful/internal/amqp"
	"mindful/internal/core"
	"mindful/internal/log"
	"mindful/internal/sheets"
)

// SpendStore is the read side the worker needs from storage.
type SpendStore interface {
	GetSpend(ctx context.Context, id string) (core.Spend, error)
	GetWallet(ctx context.Context, id string) (core.Wallet, error)
}

// SyncWorker exports recorded spends and raises budget alerts for their wallets
type SyncWorker struct {
	store    SpendStore
	exporter sheets.SpendExporter
}

func NewSyncWorker(store SpendStore, exporter sheets.SpendExporter) *SyncWorker {
	return &SyncWorker{
		store:    store,
		exporter: exporter,
	}
}

// HandleSpendRecorded processes a single spend recorded message from AMQP
func (w *SyncWorker) HandleSpendRecorded(ctx context.Context, msg *amqp.SpendRecordedMessage) error {
	slog.InfoContext(ctx, "Processing spend recorded message",
		log.FieldComponent, log.ComponentWorker,
		log.FieldSpendID, msg.SpendID,
		log.FieldPeriodID, msg.PeriodID)

	spend, err := w.store.GetSpend(ctx, msg.SpendID)
	if err != nil {
		return fmt.Errorf("get spend from storage: %w", err)
	}

	walletID := spend.WalletID
	if walletID == "" {
		walletID = msg.WalletID
	}
	wallet, err := w.store.GetWallet(ctx, walletID)
	if err != nil {
		return fmt.Errorf("get wallet from storage: %w", err)
	}

	if w.exporter != nil {
		ref, err := w.exporter.ExportSpend(ctx, spendRow(spend, wallet))
		if err != nil {
			return fmt.Errorf("export spend: %w", err)
		}
		slog.InfoContext(ctx, "Spend exported",
			log.FieldComponent, log.ComponentWorker,
			log.FieldSpendID, spend.ID,
			"ref", ref)
	}

	checkBudget(ctx, wallet)
	return nil
}

func spendRow(s core.Spend, w core.Wallet) sheets.SpendRow {
	return sheets.SpendRow{
		SpendID:     s.ID,
		Date:        s.Date,
		Wallet:      w.Name,
		Description: s.Description,
		Category:    s.Category,
		Amount:      s.Amount,
		Tags:        s.Tags,
	}
}

// checkBudget logs a warning when the wallet is over its limit or close to it.
// It reports whether an alert was raised.
func checkBudget(ctx context.Context, w core.Wallet) bool {
	usage := core.WalletUsagePercentage(w)
	over := core.IsWalletOverLimit(w)
	if !over && usage < core.AlertUsagePercentage {
		return false
	}

	msg := "Wallet close to its spending limit"
	if over {
		msg = "Wallet over its spending limit"
	}
	slog.WarnContext(ctx, msg,
		log.FieldComponent, log.ComponentWorker,
		log.FieldWalletID, w.ID,
		log.FieldPeriodID, w.PeriodID,
		"wallet", w.Name,
		"spent", w.CurrentBalance.String(),
		"limit", w.SpendingLimit.String(),
		log.FieldUsage, usage)
	return true
}
