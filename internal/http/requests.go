package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"mindful/internal/core"
)

const dateLayout = "2006-01-02"

// Day is a calendar date accepted as "2006-01-02" or RFC 3339 and written as "2006-01-02".
type Day struct {
	time.Time
}

func (d *Day) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := parseDay(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

func dayPtr(d *Day) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func days(ts []time.Time) []Day {
	out := make([]Day, len(ts))
	for i, t := range ts {
		out[i] = Day{t}
	}
	return out
}

type periodRequest struct {
	Name          string             `json:"name"`
	Goals         string             `json:"goals"`
	TargetSpend   decimal.Decimal    `json:"targetSpend"`
	TargetSavings decimal.Decimal    `json:"targetSavings"`
	StartAt       *Day               `json:"startAt"`
	EndAt         *Day               `json:"endAt"`
	Reflection    string             `json:"reflection"`
	WalletSetup   []core.WalletSetup `json:"walletSetup"`
}

func (r periodRequest) input(accountID string) core.PeriodInput {
	return core.PeriodInput{
		AccountID:     accountID,
		Name:          r.Name,
		Goals:         r.Goals,
		TargetSpend:   r.TargetSpend,
		TargetSavings: r.TargetSavings,
		StartAt:       dayPtr(r.StartAt),
		EndAt:         dayPtr(r.EndAt),
		Reflection:    r.Reflection,
		WalletSetup:   r.WalletSetup,
	}
}

type periodUpdateRequest struct {
	Name          core.Optional[string]             `json:"name"`
	Goals         core.Optional[string]             `json:"goals"`
	TargetSpend   core.Optional[decimal.Decimal]    `json:"targetSpend"`
	TargetSavings core.Optional[decimal.Decimal]    `json:"targetSavings"`
	StartAt       core.Optional[Day]                `json:"startAt"`
	EndAt         core.Optional[Day]                `json:"endAt"`
	Reflection    core.Optional[string]             `json:"reflection"`
	WalletSetup   core.Optional[[]core.WalletSetup] `json:"walletSetup"`
}

func (r periodUpdateRequest) update() core.PeriodUpdate {
	u := core.PeriodUpdate{
		Name:          r.Name,
		Goals:         r.Goals,
		TargetSpend:   r.TargetSpend,
		TargetSavings: r.TargetSavings,
		Reflection:    r.Reflection,
		WalletSetup:   r.WalletSetup,
	}
	if d, ok := r.StartAt.Get(); ok {
		u.StartAt = core.Some(d.Time)
	}
	if d, ok := r.EndAt.Get(); ok {
		u.EndAt = core.Some(d.Time)
	}
	return u
}

type spendRequest struct {
	WalletID    string          `json:"walletId"`
	Date        *Day            `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Tags        []string        `json:"tags"`
}

type recurringSpendRequest struct {
	WalletID          string          `json:"walletId"`
	StartDate         *Day            `json:"startDate"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	Category          string          `json:"category"`
	Tags              []string        `json:"tags"`
	ScheduleFrequency core.Frequency  `json:"scheduleFrequency"`
	DayOfWeek         *int            `json:"dayOfWeek"`
	DayOfMonth        *int            `json:"dayOfMonth"`
}

func (r recurringSpendRequest) recurringSpend(accountID string) core.RecurringSpend {
	rs := core.RecurringSpend{
		AccountID:         accountID,
		WalletID:          r.WalletID,
		Description:       r.Description,
		Amount:            r.Amount,
		Category:          r.Category,
		Tags:              r.Tags,
		ScheduleFrequency: r.ScheduleFrequency,
		DayOfWeek:         r.DayOfWeek,
		DayOfMonth:        r.DayOfMonth,
	}
	if r.StartDate != nil {
		rs.StartDate = r.StartDate.Time
	}
	return rs
}

type activeRequest struct {
	IsActive *bool `json:"isActive"`
}

type walletSetupRequest struct {
	WalletSetup []core.WalletSetup `json:"walletSetup"`
}

type periodResponse struct {
	core.Period
	Status core.PeriodStatus `json:"status"`
}

type createPeriodResponse struct {
	Period  periodResponse `json:"period"`
	Wallets []core.Wallet  `json:"wallets"`
}

type walletSetupResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

type occurrencesResponse struct {
	RecurringSpendID string `json:"recurringSpendId"`
	PeriodID         string `json:"periodId"`
	Dates            []Day  `json:"dates"`
}
