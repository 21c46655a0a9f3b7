package core

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// AlertUsagePercentage is the usage at which a wallet is considered close to its limit.
const AlertUsagePercentage = 90.0

// TotalWalletLimits sums the wallet setup limits, or falls back to the target spend
// when the period has no setup.
func TotalWalletLimits(p Period) decimal.Decimal {
	if len(p.WalletSetup) == 0 {
		return p.TargetSpend
	}
	total := decimal.Zero
	for _, w := range p.WalletSetup {
		total = total.Add(w.SpendingLimit)
	}
	return total
}

// WalletAvailable is the remaining limit, floored at zero.
func WalletAvailable(w Wallet) decimal.Decimal {
	return decimal.Max(decimal.Zero, w.SpendingLimit.Sub(w.CurrentBalance))
}

// WalletUsagePercentage is the spent share of the limit, capped at 100. A zero limit
// reports 0.
func WalletUsagePercentage(w Wallet) float64 {
	return usage(w.CurrentBalance, w.SpendingLimit)
}

// IsWalletOverLimit reports whether the balance strictly exceeds the limit.
func IsWalletOverLimit(w Wallet) bool {
	return w.CurrentBalance.GreaterThan(w.SpendingLimit)
}

func usage(spent, limit decimal.Decimal) float64 {
	if limit.IsZero() {
		return 0
	}
	pct := spent.Div(limit).Mul(hundred).InexactFloat64()
	if pct > 100 {
		return 100
	}
	return pct
}

// WalletSummary is the derived budget state of a single wallet.
type WalletSummary struct {
	Wallet          Wallet          `json:"wallet"`
	Available       decimal.Decimal `json:"available"`
	UsagePercentage float64         `json:"usagePercentage"`
	OverLimit       bool            `json:"overLimit"`
}

// PeriodSummary aggregates the wallets of a period.
type PeriodSummary struct {
	PeriodID        string          `json:"periodId"`
	Status          PeriodStatus    `json:"status"`
	TotalAllocated  decimal.Decimal `json:"totalAllocated"`
	TotalSpent      decimal.Decimal `json:"totalSpent"`
	TotalAvailable  decimal.Decimal `json:"totalAvailable"`
	UsagePercentage float64         `json:"usagePercentage"`
	OverLimitCount  int             `json:"overLimitCount"`
	DaysRemaining   int             `json:"daysRemaining"`
	Wallets         []WalletSummary `json:"wallets"`
}

// SummarizeWallet derives the budget facts of one wallet.
func SummarizeWallet(w Wallet) WalletSummary {
	return WalletSummary{
		Wallet:          w,
		Available:       WalletAvailable(w),
		UsagePercentage: WalletUsagePercentage(w),
		OverLimit:       IsWalletOverLimit(w),
	}
}

// SummarizePeriod derives period-level facts from its materialized wallets.
func SummarizePeriod(p Period, wallets []Wallet, now time.Time) PeriodSummary {
	s := PeriodSummary{
		PeriodID:       p.ID,
		Status:         p.Status(now),
		TotalAllocated: TotalWalletLimits(p),
		TotalSpent:     decimal.Zero,
		TotalAvailable: decimal.Zero,
		Wallets:        make([]WalletSummary, 0, len(wallets)),
	}

	for _, w := range wallets {
		ws := SummarizeWallet(w)
		s.Wallets = append(s.Wallets, ws)
		s.TotalSpent = s.TotalSpent.Add(w.CurrentBalance)
		s.TotalAvailable = s.TotalAvailable.Add(ws.Available)
		if ws.OverLimit {
			s.OverLimitCount++
		}
	}

	s.UsagePercentage = usage(s.TotalSpent, s.TotalAllocated)
	s.DaysRemaining = daysRemaining(p, now)
	return s
}

// daysRemaining counts the days left in the period including today.
func daysRemaining(p Period, now time.Time) int {
	if p.IsClosed() {
		return 0
	}
	today := Midnight(now)
	end := Midnight(p.EndAt)
	if today.After(end) {
		return 0
	}
	from := maxTime(today, Midnight(p.StartAt))
	days := 0
	for d := from; !d.After(end); d = d.AddDate(0, 0, 1) {
		days++
	}
	return days
}
