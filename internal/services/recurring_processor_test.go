package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindful/internal/core"
)

func intPtr(v int) *int { return &v }

func TestRecurringProcessor_ProcessDue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	febInput := marchInput("acc")
	febStart, febEnd := date(2026, 2, 1), date(2026, 2, 28)
	febInput.StartAt, febInput.EndAt = &febStart, &febEnd
	febInput.WalletSetup = []core.WalletSetup{
		{Name: "Essentials", SpendingLimit: decimal.NewFromInt(800), IsDefault: true},
		{Name: "fun", SpendingLimit: decimal.NewFromInt(200)},
	}
	_, febWallets := f.createPeriod(t, febInput)

	march, marchWallets := f.createPeriod(t, marchInput("acc"))
	otherMarch, _ := f.createPeriod(t, marchInput("other"))

	create := func(rs core.RecurringSpend) core.RecurringSpend {
		created, err := f.recurring.Create(ctx, rs)
		require.NoError(t, err)
		return created
	}

	// Same wallet id: Mondays 2 and 9 are due by the 10th.
	create(core.RecurringSpend{
		AccountID: "acc", WalletID: marchWallets[0].ID, StartDate: date(2026, 1, 5),
		Description: "Yoga", Amount: decimal.NewFromInt(15),
		ScheduleFrequency: core.Weekly, DayOfWeek: intPtr(int(time.Monday)),
	})
	// Wallet from February resolves by name to "Fun".
	create(core.RecurringSpend{
		AccountID: "acc", WalletID: febWallets[1].ID, StartDate: date(2026, 1, 5),
		Description: "Streaming", Amount: decimal.RequireFromString("9.99"),
		ScheduleFrequency: core.Monthly, DayOfMonth: intPtr(5),
	})
	// Unknown wallet falls back to the default wallet.
	create(core.RecurringSpend{
		AccountID: "acc", WalletID: "gone", StartDate: date(2026, 1, 3),
		Description: "Phone", Amount: decimal.NewFromInt(20),
		ScheduleFrequency: core.Monthly,
	})
	// Paused definitions are skipped.
	paused := create(core.RecurringSpend{
		AccountID: "acc", WalletID: marchWallets[0].ID, StartDate: date(2026, 1, 1),
		Description: "Gym", Amount: decimal.NewFromInt(30),
		ScheduleFrequency: core.Monthly, DayOfMonth: intPtr(1),
	})
	_, err := f.recurring.SetActive(ctx, paused.ID, false)
	require.NoError(t, err)
	// Definitions that start after today produce nothing yet.
	create(core.RecurringSpend{
		AccountID: "acc", WalletID: marchWallets[0].ID, StartDate: date(2026, 3, 20),
		Description: "Later", Amount: decimal.NewFromInt(1),
		ScheduleFrequency: core.Weekly,
	})

	processor := NewRecurringProcessor(f.repo, f.spends, 2)

	created, err := processor.ProcessDue(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 4, created)

	spends, err := f.spends.List(ctx, march.ID)
	require.NoError(t, err)
	require.Len(t, spends, 4)

	byDescription := map[string][]core.Spend{}
	for _, s := range spends {
		require.NotNil(t, s.RecurringSpendID)
		byDescription[s.Description] = append(byDescription[s.Description], s)
	}
	require.Len(t, byDescription["Yoga"], 2)
	assert.Equal(t, date(2026, 3, 2), byDescription["Yoga"][0].Date)
	assert.Equal(t, date(2026, 3, 9), byDescription["Yoga"][1].Date)
	require.Len(t, byDescription["Streaming"], 1)
	assert.Equal(t, marchWallets[1].ID, byDescription["Streaming"][0].WalletID)
	require.Len(t, byDescription["Phone"], 1)
	assert.Equal(t, marchWallets[0].ID, byDescription["Phone"][0].WalletID)
	assert.Equal(t, date(2026, 3, 3), byDescription["Phone"][0].Date)

	otherSpends, err := f.spends.List(ctx, otherMarch.ID)
	require.NoError(t, err)
	assert.Empty(t, otherSpends)

	// A second run finds everything recorded already.
	created, err = processor.ProcessDue(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	// The next week adds exactly one more Monday.
	created, err = processor.ProcessDue(ctx, testNow.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	wallet, err := f.repo.GetWallet(ctx, marchWallets[0].ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(65).Equal(wallet.CurrentBalance), wallet.CurrentBalance.String())
}

func TestRecurringProcessor_SkipsClosedPeriods(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, wallets := f.createPeriod(t, marchInput("acc"))
	_, err := f.recurring.Create(ctx, core.RecurringSpend{
		AccountID: "acc", WalletID: wallets[0].ID, StartDate: date(2026, 1, 1),
		Description: "Rent", Amount: decimal.NewFromInt(700),
		ScheduleFrequency: core.Monthly, DayOfMonth: intPtr(1),
	})
	require.NoError(t, err)
	_, err = f.periods.Close(ctx, p.ID)
	require.NoError(t, err)

	created, err := NewRecurringProcessor(f.repo, f.spends, 0).ProcessDue(ctx, testNow)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestRecurringProcessor_RecordsOccurrenceOnLastDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	march, wallets := f.createPeriod(t, marchInput("acc"))
	def, err := f.recurring.Create(ctx, core.RecurringSpend{
		AccountID: "acc", WalletID: wallets[0].ID, StartDate: date(2026, 1, 1),
		Description: "Savings transfer", Amount: decimal.NewFromInt(100),
		ScheduleFrequency: core.Monthly, DayOfMonth: intPtr(31),
	})
	require.NoError(t, err)

	preview, err := f.recurring.Occurrences(ctx, def.ID, march.ID)
	require.NoError(t, err)
	require.Equal(t, []time.Time{date(2026, 3, 31)}, preview)

	processor := NewRecurringProcessor(f.repo, f.spends, 1)
	total := 0
	for d := date(2026, 3, 1); !d.After(date(2026, 4, 1)); d = d.AddDate(0, 0, 1) {
		n, err := processor.ProcessDue(ctx, d.Add(12*time.Hour))
		require.NoError(t, err)
		total += n
	}
	assert.Equal(t, 1, total)

	spends, err := f.spends.List(ctx, march.ID)
	require.NoError(t, err)
	require.Len(t, spends, 1)
	assert.Equal(t, date(2026, 3, 31), spends[0].Date)
}

func TestRecurringProcessor_NotInitialized(t *testing.T) {
	_, err := (&RecurringProcessor{}).ProcessDue(context.Background(), testNow)
	assert.EqualError(t, err, "processor not properly initialized")
}
