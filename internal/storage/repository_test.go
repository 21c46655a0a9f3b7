package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindful/internal/core"
)

var now = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func seedPeriod(t *testing.T, repo *SQLiteRepository) (core.Period, []core.Wallet) {
	t.Helper()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	p := core.NewPeriod(core.PeriodInput{
		AccountID:   "acc-1",
		Name:        "March",
		Goals:       "Spend less on takeaway",
		TargetSpend: decimal.NewFromInt(1000),
		StartAt:     &start,
		EndAt:       &end,
		WalletSetup: []core.WalletSetup{
			{Name: "Essentials", SpendingLimit: decimal.NewFromInt(800), IsDefault: true},
			{Name: "Fun", SpendingLimit: decimal.NewFromInt(200)},
		},
	}, now)
	wallets := core.MaterializeWallets(p, now)
	require.NoError(t, repo.CreatePeriod(context.Background(), p, wallets))
	return p, wallets
}

func TestMigrationsApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	version, dirty, err := SchemaVersion(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// Running again is a no-op.
	require.NoError(t, RunMigrations(path))
}

func TestPeriodRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p, wallets := seedPeriod(t, repo)

	got, err := repo.GetPeriod(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.True(t, p.TargetSpend.Equal(got.TargetSpend))
	assert.True(t, p.StartAt.Equal(got.StartAt))
	assert.True(t, p.EndAt.Equal(got.EndAt))
	assert.Nil(t, got.ClosedAt)
	assert.Len(t, got.WalletSetup, 2)

	stored, err := repo.ListWallets(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for i := range wallets {
		assert.Equal(t, wallets[i].ID, stored[i].ID)
		assert.Equal(t, wallets[i].Name, stored[i].Name)
		assert.Equal(t, wallets[i].IsDefault, stored[i].IsDefault)
		assert.True(t, stored[i].CurrentBalance.IsZero())
	}

	_, err = repo.GetPeriod(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdatePeriodAndListOpen(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p, _ := seedPeriod(t, repo)

	open, err := repo.ListOpenPeriods(ctx, now)
	require.NoError(t, err)
	require.Len(t, open, 1)

	closed := core.ClosePeriod(p, now)
	closed.Reflection = "ok month"
	require.NoError(t, repo.UpdatePeriod(ctx, closed))

	got, err := repo.GetPeriod(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ClosedAt)
	assert.True(t, now.Equal(*got.ClosedAt))
	assert.Equal(t, "ok month", got.Reflection)

	open, err = repo.ListOpenPeriods(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, open)

	missing := p
	missing.ID = "nope"
	assert.ErrorIs(t, repo.UpdatePeriod(ctx, missing), core.ErrNotFound)

	periods, err := repo.ListPeriods(ctx, "acc-1")
	require.NoError(t, err)
	assert.Len(t, periods, 1)
}

func TestRecurringSpendRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	dom := 31
	rs := core.NewRecurringSpend(core.RecurringSpend{
		AccountID:         "acc-1",
		WalletID:          "w-1",
		StartDate:         time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		Description:       "Rent",
		Amount:            decimal.RequireFromString("950.50"),
		Tags:              []string{"home"},
		ScheduleFrequency: core.Monthly,
		DayOfMonth:        &dom,
		IsActive:          true,
	}, now)
	require.NoError(t, repo.CreateRecurringSpend(ctx, rs))

	got, err := repo.GetRecurringSpend(ctx, rs.ID)
	require.NoError(t, err)
	assert.Equal(t, core.Monthly, got.ScheduleFrequency)
	require.NotNil(t, got.DayOfMonth)
	assert.Equal(t, 31, *got.DayOfMonth)
	assert.Nil(t, got.DayOfWeek)
	assert.Equal(t, []string{"home"}, got.Tags)
	assert.True(t, rs.Amount.Equal(got.Amount))

	active, err := repo.ListActiveRecurringSpends(ctx, "acc-1")
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, repo.SetRecurringSpendActive(ctx, rs.ID, false, now))
	active, err = repo.ListActiveRecurringSpends(ctx, "acc-1")
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := repo.ListRecurringSpends(ctx, "acc-1")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	assert.ErrorIs(t, repo.SetRecurringSpendActive(ctx, "missing", true, now), core.ErrNotFound)
}

func TestCreateSpendUpdatesBalance(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p, wallets := seedPeriod(t, repo)

	for _, amount := range []string{"12.30", "7.70"} {
		s := core.NewSpend(core.Spend{
			AccountID:   p.AccountID,
			PeriodID:    p.ID,
			WalletID:    wallets[1].ID,
			Date:        now,
			Description: "Cinema",
			Amount:      decimal.RequireFromString(amount),
		}, now)
		require.NoError(t, repo.CreateSpend(ctx, s))
	}

	w, err := repo.GetWallet(ctx, wallets[1].ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(w.CurrentBalance), w.CurrentBalance.String())

	spends, err := repo.ListSpends(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, spends, 2)
	assert.Nil(t, spends[0].RecurringSpendID)
}

func TestCreateSpendRejectsDuplicateOccurrence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p, wallets := seedPeriod(t, repo)

	recurringID := "rs-1"
	occurrence := func() core.Spend {
		return core.NewSpend(core.Spend{
			AccountID:        p.AccountID,
			PeriodID:         p.ID,
			WalletID:         wallets[0].ID,
			RecurringSpendID: &recurringID,
			Date:             time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
			Description:      "Gym",
			Amount:           decimal.NewFromInt(30),
		}, now)
	}

	first := occurrence()
	require.NoError(t, repo.CreateSpend(ctx, first))
	assert.ErrorIs(t, repo.CreateSpend(ctx, occurrence()), core.ErrDuplicateSpend)

	w, err := repo.GetWallet(ctx, wallets[0].ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(30).Equal(w.CurrentBalance))

	got, err := repo.GetSpend(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RecurringSpendID)
	assert.Equal(t, recurringID, *got.RecurringSpendID)
}

func TestCreateSpendRequiresWalletInPeriod(t *testing.T) {
	repo := newTestRepo(t)
	p, _ := seedPeriod(t, repo)

	s := core.NewSpend(core.Spend{
		AccountID:   p.AccountID,
		PeriodID:    p.ID,
		WalletID:    "foreign",
		Date:        now,
		Description: "Coffee",
		Amount:      decimal.NewFromInt(3),
	}, now)
	assert.ErrorIs(t, repo.CreateSpend(context.Background(), s), core.ErrWalletNotInPeriod)
}
