package core

import (
	"errors"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrPeriodClosed      = errors.New("period is closed")
	ErrDuplicateSpend    = errors.New("spend already recorded for this occurrence")
	ErrWalletNotInPeriod = errors.New("wallet does not belong to period")
)

// ValidationError carries the human-readable problems found while validating input.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// Validation returns a *ValidationError for problems, or nil when there are none.
func Validation(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}
