package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindful/internal/cache"
	"mindful/internal/core"
	"mindful/internal/storage"
)

var _ Repository = (*storage.SQLiteRepository)(nil)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu       sync.Mutex
	spendIDs []string
	err      error
}

func (p *recordingPublisher) PublishSpendRecorded(_ context.Context, spendID, _, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spendIDs = append(p.spendIDs, spendID)
	return p.err
}

type fixture struct {
	repo      *storage.SQLiteRepository
	periods   *PeriodService
	spends    *SpendService
	recurring *RecurringService
	publisher *recordingPublisher
	summaries *cache.LRUCache[core.PeriodSummary]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	clock := func() time.Time { return testNow }
	summaries := cache.NewLRUCache[core.PeriodSummary](16, time.Hour)
	publisher := &recordingPublisher{}

	periods := NewPeriodService(repo, summaries)
	periods.now = clock
	spends := NewSpendService(repo, publisher, periods)
	spends.now = clock
	recurring := NewRecurringService(repo)
	recurring.now = clock

	return &fixture{
		repo:      repo,
		periods:   periods,
		spends:    spends,
		recurring: recurring,
		publisher: publisher,
		summaries: summaries,
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func marchInput(account string) core.PeriodInput {
	start, end := date(2026, 3, 1), date(2026, 3, 31)
	return core.PeriodInput{
		AccountID:   account,
		Name:        "March",
		Goals:       "Fewer takeaways",
		TargetSpend: decimal.NewFromInt(1000),
		StartAt:     &start,
		EndAt:       &end,
		WalletSetup: []core.WalletSetup{
			{Name: "Essentials", SpendingLimit: decimal.NewFromInt(800), IsDefault: true},
			{Name: "Fun", SpendingLimit: decimal.NewFromInt(200)},
		},
	}
}

func (f *fixture) createPeriod(t *testing.T, in core.PeriodInput) (core.Period, []core.Wallet) {
	t.Helper()
	p, wallets, err := f.periods.Create(context.Background(), in)
	require.NoError(t, err)
	return p, wallets
}

func TestPeriodService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, wallets := f.createPeriod(t, marchInput("acc"))
	require.Len(t, wallets, 2)

	stored, err := f.periods.Wallets(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	assert.Equal(t, "Essentials", stored[0].Name)

	list, err := f.periods.List(ctx, "acc")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPeriodService_CreateRejectsInvalid(t *testing.T) {
	f := newFixture(t)

	in := marchInput("")
	in.Name = ""
	in.WalletSetup = append(in.WalletSetup, core.WalletSetup{Name: "fun", SpendingLimit: decimal.NewFromInt(5)})

	_, _, err := f.periods.Create(context.Background(), in)

	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{
		"Account is required",
		"Period name is required",
		"Wallet names must be unique. Duplicates: Fun",
	}, verr.Problems)
}

func TestPeriodService_UpdateAndClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _ := f.createPeriod(t, marchInput("acc"))

	updated, err := f.periods.Update(ctx, p.ID, core.PeriodUpdate{TargetSpend: core.Some(decimal.Zero)})
	require.NoError(t, err)
	assert.True(t, updated.TargetSpend.IsZero())

	_, err = f.periods.Update(ctx, p.ID, core.PeriodUpdate{Goals: core.Some("")})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems, "Goals are required")

	closed, err := f.periods.Close(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.ClosedAt)

	again, err := f.periods.Close(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, closed.ClosedAt.Equal(*again.ClosedAt))

	// Reflection can still be written after closing.
	reflected, err := f.periods.Update(ctx, p.ID, core.PeriodUpdate{Reflection: core.Some("Good month")})
	require.NoError(t, err)
	assert.Equal(t, "Good month", reflected.Reflection)
	assert.True(t, reflected.IsClosed())

	_, err = f.periods.Close(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSpendService_Record(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, wallets := f.createPeriod(t, marchInput("acc"))

	sp, err := f.spends.Record(ctx, core.Spend{
		PeriodID:    p.ID,
		WalletID:    wallets[1].ID,
		Date:        testNow,
		Description: "Concert",
		Amount:      decimal.NewFromInt(180),
	})
	require.NoError(t, err)
	assert.Equal(t, "acc", sp.AccountID)
	assert.Equal(t, date(2026, 3, 10), sp.Date)
	assert.Equal(t, []string{sp.ID}, f.publisher.spendIDs)

	summary, err := f.periods.Summary(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(180).Equal(summary.TotalSpent))
	assert.InDelta(t, 90, summary.Wallets[1].UsagePercentage, 1e-9)

	// A second spend invalidates the cached summary.
	_, err = f.spends.Record(ctx, core.Spend{
		PeriodID:    p.ID,
		WalletID:    wallets[1].ID,
		Date:        testNow,
		Description: "Drinks",
		Amount:      decimal.NewFromInt(40),
	})
	require.NoError(t, err)

	summary, err = f.periods.Summary(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.OverLimitCount)
	assert.True(t, summary.Wallets[1].OverLimit)

	spends, err := f.spends.List(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, spends, 2)
}

func TestSpendService_RecordFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, wallets := f.createPeriod(t, marchInput("acc"))
	other, otherWallets := f.createPeriod(t, marchInput("acc"))

	valid := core.Spend{
		PeriodID:    p.ID,
		WalletID:    wallets[0].ID,
		Date:        testNow,
		Description: "Bread",
		Amount:      decimal.NewFromInt(3),
	}

	invalid := valid
	invalid.Amount = decimal.Zero
	_, err := f.spends.Record(ctx, invalid)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"Amount must be greater than 0"}, verr.Problems)

	foreign := valid
	foreign.WalletID = otherWallets[0].ID
	_, err = f.spends.Record(ctx, foreign)
	assert.ErrorIs(t, err, core.ErrWalletNotInPeriod)

	missing := valid
	missing.PeriodID = "nope"
	_, err = f.spends.Record(ctx, missing)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.periods.Close(ctx, other.ID)
	require.NoError(t, err)
	closed := valid
	closed.PeriodID = other.ID
	closed.WalletID = otherWallets[0].ID
	_, err = f.spends.Record(ctx, closed)
	assert.ErrorIs(t, err, core.ErrPeriodClosed)

	// Publishing failures do not fail the request.
	f.publisher.err = errors.New("broker down")
	_, err = f.spends.Record(ctx, valid)
	assert.NoError(t, err)
}

func TestRecurringService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, wallets := f.createPeriod(t, marchInput("acc"))

	dow := int(time.Monday)
	rs, err := f.recurring.Create(ctx, core.RecurringSpend{
		AccountID:         "acc",
		WalletID:          wallets[0].ID,
		StartDate:         date(2026, 1, 1),
		Description:       "Yoga class",
		Amount:            decimal.NewFromInt(15),
		ScheduleFrequency: core.Weekly,
		DayOfWeek:         &dow,
	})
	require.NoError(t, err)
	assert.True(t, rs.IsActive)

	dates, err := f.recurring.Occurrences(ctx, rs.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		date(2026, 3, 2), date(2026, 3, 9), date(2026, 3, 16), date(2026, 3, 23), date(2026, 3, 30),
	}, dates)

	paused, err := f.recurring.SetActive(ctx, rs.ID, false)
	require.NoError(t, err)
	assert.False(t, paused.IsActive)

	list, err := f.recurring.List(ctx, "acc")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.recurring.Create(ctx, core.RecurringSpend{AccountID: "acc", ScheduleFrequency: "daily"})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems, "Schedule frequency must be weekly, fortnightly or monthly")

	_, err = f.recurring.Occurrences(ctx, rs.ID, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
