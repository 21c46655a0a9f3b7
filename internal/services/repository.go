// Package services orchestrates the core rules over persistence and messaging.
package services

import (
	"context"
	"time"

	"mindful/internal/core"
)

// Repository is the persistence surface the services rely on.
type Repository interface {
	CreatePeriod(ctx context.Context, p core.Period, wallets []core.Wallet) error
	GetPeriod(ctx context.Context, id string) (core.Period, error)
	ListPeriods(ctx context.Context, accountID string) ([]core.Period, error)
	ListOpenPeriods(ctx context.Context, now time.Time) ([]core.Period, error)
	UpdatePeriod(ctx context.Context, p core.Period) error

	ListWallets(ctx context.Context, periodID string) ([]core.Wallet, error)
	GetWallet(ctx context.Context, id string) (core.Wallet, error)

	CreateRecurringSpend(ctx context.Context, rs core.RecurringSpend) error
	GetRecurringSpend(ctx context.Context, id string) (core.RecurringSpend, error)
	ListRecurringSpends(ctx context.Context, accountID string) ([]core.RecurringSpend, error)
	ListActiveRecurringSpends(ctx context.Context, accountID string) ([]core.RecurringSpend, error)
	SetRecurringSpendActive(ctx context.Context, id string, active bool, now time.Time) error

	CreateSpend(ctx context.Context, s core.Spend) error
	GetSpend(ctx context.Context, id string) (core.Spend, error)
	ListSpends(ctx context.Context, periodID string) ([]core.Spend, error)
}

// SpendPublisher announces recorded spends to asynchronous consumers.
type SpendPublisher interface {
	PublishSpendRecorded(ctx context.Context, spendID, walletID, periodID string) error
}
