package core

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Weekly      Frequency = "weekly"
	Fortnightly Frequency = "fortnightly"
	Monthly     Frequency = "monthly"
)

type (
	// Frequency is the cadence of a recurring spend.
	Frequency string

	// Period is a time-boxed budget window owned by an account.
	Period struct {
		ID            string          `json:"id"`
		AccountID     string          `json:"accountId"`
		Name          string          `json:"name"`
		Goals         string          `json:"goals"`
		TargetSpend   decimal.Decimal `json:"targetSpend"`
		TargetSavings decimal.Decimal `json:"targetSavings"`
		StartAt       time.Time       `json:"startAt"`
		EndAt         time.Time       `json:"endAt"`
		ClosedAt      *time.Time      `json:"closedAt,omitempty"`
		Reflection    string          `json:"reflection"`
		WalletSetup   []WalletSetup   `json:"walletSetup,omitempty"`
		CreatedAt     time.Time       `json:"createdAt"`
		UpdatedAt     time.Time       `json:"updatedAt"`
	}

	// WalletSetup is the design-time allocation of a wallet inside a period.
	WalletSetup struct {
		Name          string          `json:"name"`
		SpendingLimit decimal.Decimal `json:"spendingLimit"`
		IsDefault     bool            `json:"isDefault"`
	}

	// Wallet is a materialized WalletSetup. CurrentBalance is the amount spent so far.
	Wallet struct {
		ID             string          `json:"id"`
		AccountID      string          `json:"accountId"`
		PeriodID       string          `json:"periodId"`
		Name           string          `json:"name"`
		SpendingLimit  decimal.Decimal `json:"spendingLimit"`
		CurrentBalance decimal.Decimal `json:"currentBalance"`
		IsDefault      bool            `json:"isDefault"`
		CreatedAt      time.Time       `json:"createdAt"`
		UpdatedAt      time.Time       `json:"updatedAt"`
	}

	RecurringSpend struct {
		ID                string          `json:"id"`
		AccountID         string          `json:"accountId"`
		WalletID          string          `json:"walletId"`
		StartDate         time.Time       `json:"startDate"`
		Description       string          `json:"description"`
		Amount            decimal.Decimal `json:"amount"`
		Category          string          `json:"category"`
		Tags              []string        `json:"tags,omitempty"`
		ScheduleFrequency Frequency       `json:"scheduleFrequency"`
		DayOfWeek         *int            `json:"dayOfWeek,omitempty"`  // 0=Sunday..6=Saturday
		DayOfMonth        *int            `json:"dayOfMonth,omitempty"` // 1-31
		IsActive          bool            `json:"isActive"`
		CreatedAt         time.Time       `json:"createdAt"`
		UpdatedAt         time.Time       `json:"updatedAt"`
	}

	// Spend is an ordinary transaction recorded against a wallet. RecurringSpendID is set
	// when the spend was materialized from a recurring definition.
	Spend struct {
		ID               string          `json:"id"`
		AccountID        string          `json:"accountId"`
		PeriodID         string          `json:"periodId"`
		WalletID         string          `json:"walletId"`
		RecurringSpendID *string         `json:"recurringSpendId,omitempty"`
		Date             time.Time       `json:"date"`
		Description      string          `json:"description"`
		Amount           decimal.Decimal `json:"amount"`
		Category         string          `json:"category"`
		Tags             []string        `json:"tags,omitempty"`
		CreatedAt        time.Time       `json:"createdAt"`
	}
)

const maxDescriptionLength = 200

// IsValid reports whether f is one of the supported frequencies.
func (f Frequency) IsValid() bool {
	switch f {
	case Weekly, Fortnightly, Monthly:
		return true
	default:
		return false
	}
}

// NewID returns a fresh entity identifier.
func NewID() string {
	return uuid.NewString()
}

// NewRecurringSpend fills identity and timestamps for a new definition.
func NewRecurringSpend(rs RecurringSpend, now time.Time) RecurringSpend {
	if rs.ID == "" {
		rs.ID = NewID()
	}
	rs.Description = strings.TrimSpace(rs.Description)
	rs.Category = strings.TrimSpace(rs.Category)
	rs.StartDate = Midnight(rs.StartDate)
	rs.CreatedAt = now
	rs.UpdatedAt = now
	return rs
}

// Validate returns the problems with a recurring spend definition.
func (rs RecurringSpend) Validate() []string {
	var errs []string

	if strings.TrimSpace(rs.AccountID) == "" {
		errs = append(errs, "Account is required")
	}
	if strings.TrimSpace(rs.WalletID) == "" {
		errs = append(errs, "Wallet is required")
	}
	if rs.StartDate.IsZero() {
		errs = append(errs, "Start date is required")
	}
	errs = append(errs, validateDescription(rs.Description)...)
	if !rs.Amount.IsPositive() {
		errs = append(errs, "Amount must be greater than 0")
	}
	if !rs.ScheduleFrequency.IsValid() {
		errs = append(errs, "Schedule frequency must be weekly, fortnightly or monthly")
	}
	if rs.DayOfWeek != nil && (*rs.DayOfWeek < 0 || *rs.DayOfWeek > 6) {
		errs = append(errs, "Day of week must be between 0 (Sunday) and 6 (Saturday)")
	}
	if rs.DayOfMonth != nil && (*rs.DayOfMonth < 1 || *rs.DayOfMonth > 31) {
		errs = append(errs, "Day of month must be between 1 and 31")
	}

	return errs
}

// NewSpend fills identity, timestamps and normalizes the date to midnight.
func NewSpend(s Spend, now time.Time) Spend {
	if s.ID == "" {
		s.ID = NewID()
	}
	s.Description = strings.TrimSpace(s.Description)
	s.Category = strings.TrimSpace(s.Category)
	s.Date = Midnight(s.Date)
	s.CreatedAt = now
	return s
}

// Validate returns the problems with a spend.
func (s Spend) Validate() []string {
	var errs []string

	if strings.TrimSpace(s.PeriodID) == "" {
		errs = append(errs, "Period is required")
	}
	if strings.TrimSpace(s.WalletID) == "" {
		errs = append(errs, "Wallet is required")
	}
	if s.Date.IsZero() {
		errs = append(errs, "Date is required")
	}
	errs = append(errs, validateDescription(s.Description)...)
	if !s.Amount.IsPositive() {
		errs = append(errs, "Amount must be greater than 0")
	}

	return errs
}

func validateDescription(description string) []string {
	d := strings.TrimSpace(description)
	if d == "" {
		return []string{"Description is required"}
	}
	if utf8.RuneCountInString(d) > maxDescriptionLength {
		return []string{"Description must be 200 characters or less"}
	}
	return nil
}
