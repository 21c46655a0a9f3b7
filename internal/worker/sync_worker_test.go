package worker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindful/internal/amqp"
	"mindful/internal/core"
	"mindful/internal/sheets"
	"mindful/internal/sheets/memory"
	"mindful/internal/storage"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type failingExporter struct{}

func (failingExporter) ExportSpend(context.Context, sheets.SpendRow) (string, error) {
	return "", errors.New("quota exceeded")
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func seed(t *testing.T) (*storage.SQLiteRepository, []core.Wallet) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	p := core.NewPeriod(core.PeriodInput{
		AccountID:   "acc",
		Name:        "March",
		Goals:       "Cook at home",
		TargetSpend: decimal.NewFromInt(300),
		StartAt:     &start,
		EndAt:       &end,
		WalletSetup: []core.WalletSetup{
			{Name: "Food", SpendingLimit: decimal.NewFromInt(200), IsDefault: true},
			{Name: "Fun", SpendingLimit: decimal.NewFromInt(100)},
		},
	}, now)
	wallets := core.MaterializeWallets(p, now)
	require.NoError(t, repo.CreatePeriod(context.Background(), p, wallets))
	return repo, wallets
}

func record(t *testing.T, repo *storage.SQLiteRepository, w core.Wallet, amount int64) core.Spend {
	t.Helper()
	sp := core.NewSpend(core.Spend{
		AccountID:   w.AccountID,
		PeriodID:    w.PeriodID,
		WalletID:    w.ID,
		Date:        now,
		Description: "Groceries",
		Category:    "Food",
		Amount:      decimal.NewFromInt(amount),
		Tags:        []string{"weekly"},
	}, now)
	require.NoError(t, repo.CreateSpend(context.Background(), sp))
	return sp
}

func TestHandleSpendRecorded_Exports(t *testing.T) {
	repo, wallets := seed(t)
	logs := captureLogs(t)
	sp := record(t, repo, wallets[0], 50)

	exporter := memory.New()
	w := NewSyncWorker(repo, exporter)

	msg := amqp.NewSpendRecordedMessage(sp.ID, sp.WalletID, sp.PeriodID)
	require.NoError(t, w.HandleSpendRecorded(context.Background(), msg))

	rows := exporter.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, sp.ID, rows[0].SpendID)
	assert.Equal(t, "Food", rows[0].Wallet)
	assert.Equal(t, []string{"weekly"}, rows[0].Tags)
	assert.True(t, decimal.NewFromInt(50).Equal(rows[0].Amount))

	assert.NotContains(t, logs.String(), "spending limit")
}

func TestHandleSpendRecorded_Alerts(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		want   string
	}{
		{"below threshold", 80, ""},
		{"close to limit", 95, "Wallet close to its spending limit"},
		{"over limit", 130, "Wallet over its spending limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, wallets := seed(t)
			logs := captureLogs(t)
			sp := record(t, repo, wallets[1], tt.amount)

			w := NewSyncWorker(repo, nil)
			msg := amqp.NewSpendRecordedMessage(sp.ID, sp.WalletID, sp.PeriodID)
			require.NoError(t, w.HandleSpendRecorded(context.Background(), msg))

			if tt.want == "" {
				assert.NotContains(t, logs.String(), "level=WARN")
				return
			}
			assert.Contains(t, logs.String(), "level=WARN")
			assert.Contains(t, logs.String(), tt.want)
		})
	}
}

func TestHandleSpendRecorded_Errors(t *testing.T) {
	repo, wallets := seed(t)
	sp := record(t, repo, wallets[0], 10)

	err := NewSyncWorker(repo, memory.New()).HandleSpendRecorded(context.Background(),
		amqp.NewSpendRecordedMessage("missing", wallets[0].ID, wallets[0].PeriodID))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = NewSyncWorker(repo, failingExporter{}).HandleSpendRecorded(context.Background(),
		amqp.NewSpendRecordedMessage(sp.ID, sp.WalletID, sp.PeriodID))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
