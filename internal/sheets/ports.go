package sheets

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SpendRow is the flattened form of a spend written to an export sheet.
type SpendRow struct {
	SpendID     string
	Date        time.Time
	Wallet      string
	Description string
	Category    string
	Amount      decimal.Decimal
	Tags        []string
}

// Validate rejects rows that cannot be written.
func (r SpendRow) Validate() error {
	var errs []error
	if strings.TrimSpace(r.SpendID) == "" {
		errs = append(errs, errors.New("spend id is required"))
	}
	if r.Date.IsZero() {
		errs = append(errs, errors.New("date is required"))
	}
	if strings.TrimSpace(r.Description) == "" {
		errs = append(errs, errors.New("description is required"))
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, errors.New("amount must be positive"))
	}
	return errors.Join(errs...)
}

// Ports for outbound adapters.
type (
	SpendExporter interface {
		ExportSpend(ctx context.Context, row SpendRow) (rowRef string, err error)
	}
)
