package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultWalletName names the wallet created for periods without a wallet setup.
const DefaultWalletName = "Main"

const (
	StatusDraft  PeriodStatus = "draft"
	StatusActive PeriodStatus = "active"
	StatusEnded  PeriodStatus = "ended"
	StatusClosed PeriodStatus = "closed"
)

// PeriodStatus is derived from ClosedAt and the period window; it is never stored.
type PeriodStatus string

// PeriodInput carries the caller-supplied fields of a new period.
type PeriodInput struct {
	AccountID     string          `json:"-"`
	Name          string          `json:"name"`
	Goals         string          `json:"goals"`
	TargetSpend   decimal.Decimal `json:"targetSpend"`
	TargetSavings decimal.Decimal `json:"targetSavings"`
	StartAt       *time.Time      `json:"startAt"`
	EndAt         *time.Time      `json:"endAt"`
	Reflection    string          `json:"reflection"`
	WalletSetup   []WalletSetup   `json:"walletSetup"`
}

// PeriodUpdate lists the updatable fields of a period. Only fields marked as set apply.
type PeriodUpdate struct {
	Name          Optional[string]          `json:"name"`
	Goals         Optional[string]          `json:"goals"`
	TargetSpend   Optional[decimal.Decimal] `json:"targetSpend"`
	TargetSavings Optional[decimal.Decimal] `json:"targetSavings"`
	StartAt       Optional[time.Time]       `json:"startAt"`
	EndAt         Optional[time.Time]       `json:"endAt"`
	Reflection    Optional[string]          `json:"reflection"`
	WalletSetup   Optional[[]WalletSetup]   `json:"walletSetup"`
}

// NewPeriod builds a period from input. StartAt and EndAt default to now, and a
// period without a wallet setup gets a single default wallet sized to TargetSpend.
func NewPeriod(in PeriodInput, now time.Time) Period {
	p := Period{
		ID:            NewID(),
		AccountID:     in.AccountID,
		Name:          strings.TrimSpace(in.Name),
		Goals:         strings.TrimSpace(in.Goals),
		TargetSpend:   in.TargetSpend,
		TargetSavings: in.TargetSavings,
		StartAt:       now,
		EndAt:         now,
		Reflection:    in.Reflection,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.StartAt != nil {
		p.StartAt = *in.StartAt
	}
	if in.EndAt != nil {
		p.EndAt = *in.EndAt
	}

	if len(in.WalletSetup) > 0 {
		p.WalletSetup = normalizeSetup(in.WalletSetup)
	} else {
		p.WalletSetup = []WalletSetup{{
			Name:          DefaultWalletName,
			SpendingLimit: in.TargetSpend,
			IsDefault:     true,
		}}
	}

	return p
}

// UpdatePeriod returns a copy of p with every provided field of u applied and
// UpdatedAt refreshed.
func UpdatePeriod(p Period, u PeriodUpdate, now time.Time) Period {
	next := p

	if v, ok := u.Name.Get(); ok {
		next.Name = strings.TrimSpace(v)
	}
	if v, ok := u.Goals.Get(); ok {
		next.Goals = strings.TrimSpace(v)
	}
	if v, ok := u.TargetSpend.Get(); ok {
		next.TargetSpend = v
	}
	if v, ok := u.TargetSavings.Get(); ok {
		next.TargetSavings = v
	}
	if v, ok := u.StartAt.Get(); ok {
		next.StartAt = v
	}
	if v, ok := u.EndAt.Get(); ok {
		next.EndAt = v
	}
	if v, ok := u.Reflection.Get(); ok {
		next.Reflection = v
	}
	if v, ok := u.WalletSetup.Get(); ok {
		next.WalletSetup = normalizeSetup(v)
	}

	next.UpdatedAt = now
	return next
}

// ClosePeriod marks p closed at now. A closed period is returned unchanged.
func ClosePeriod(p Period, now time.Time) Period {
	if p.IsClosed() {
		return p
	}
	closed := now
	p.ClosedAt = &closed
	p.UpdatedAt = now
	return p
}

// ValidatePeriod checks the period fields and, when present, its wallet setup.
func ValidatePeriod(p Period) []string {
	var errs []string

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, "Period name is required")
	}
	if strings.TrimSpace(p.Goals) == "" {
		errs = append(errs, "Goals are required")
	}
	if p.TargetSpend.IsNegative() {
		errs = append(errs, "Target spend cannot be negative")
	}
	if !p.StartAt.Before(p.EndAt) {
		errs = append(errs, "Start date must be before end date")
	}
	if len(p.WalletSetup) > 0 {
		errs = append(errs, ValidateCompleteWalletSetup(p.WalletSetup)...)
	}

	return errs
}

// IsClosed reports whether the period was explicitly closed.
func (p Period) IsClosed() bool {
	return p.ClosedAt != nil
}

// IsActive reports whether the period is open and now lies within its window.
func (p Period) IsActive(now time.Time) bool {
	return p.Status(now) == StatusActive
}

// Status derives the lifecycle state of p at now. The end day counts as part of the period.
func (p Period) Status(now time.Time) PeriodStatus {
	switch {
	case p.IsClosed():
		return StatusClosed
	case now.Before(p.StartAt):
		return StatusDraft
	case Midnight(now.In(p.EndAt.Location())).After(Midnight(p.EndAt)):
		return StatusEnded
	default:
		return StatusActive
	}
}

// MaterializeWallets creates one zero-balance wallet per wallet setup entry.
func MaterializeWallets(p Period, now time.Time) []Wallet {
	wallets := make([]Wallet, 0, len(p.WalletSetup))
	for _, ws := range p.WalletSetup {
		wallets = append(wallets, Wallet{
			ID:             NewID(),
			AccountID:      p.AccountID,
			PeriodID:       p.ID,
			Name:           ws.Name,
			SpendingLimit:  ws.SpendingLimit,
			CurrentBalance: decimal.Zero,
			IsDefault:      ws.IsDefault,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return wallets
}

// DefaultWallet returns the default wallet of a set, if any.
func DefaultWallet(wallets []Wallet) (Wallet, bool) {
	for _, w := range wallets {
		if w.IsDefault {
			return w, true
		}
	}
	return Wallet{}, false
}

func normalizeSetup(setup []WalletSetup) []WalletSetup {
	out := make([]WalletSetup, len(setup))
	for i, ws := range setup {
		ws.Name = strings.TrimSpace(ws.Name)
		out[i] = ws
	}
	return out
}
