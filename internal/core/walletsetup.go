package core

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	MinWalletNameLength = 1
	MaxWalletNameLength = 50
	MinWallets          = 1
	MaxWallets          = 10
)

var (
	MinSpendingLimit = decimal.RequireFromString("0.01")
	MaxSpendingLimit = decimal.NewFromInt(1_000_000)
)

// ValidateWalletName checks that a trimmed wallet name is present and short enough.
func ValidateWalletName(name string) []string {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < MinWalletNameLength {
		return []string{"Wallet name is required"}
	}
	if n > MaxWalletNameLength {
		return []string{fmt.Sprintf("Wallet name must be %d characters or less", MaxWalletNameLength)}
	}
	return nil
}

// ValidateSpendingLimit checks that limit lies within [MinSpendingLimit, MaxSpendingLimit].
func ValidateSpendingLimit(limit decimal.Decimal) []string {
	if limit.LessThan(MinSpendingLimit) {
		return []string{"Spending limit must be at least " + MinSpendingLimit.StringFixed(2)}
	}
	if limit.GreaterThan(MaxSpendingLimit) {
		return []string{"Spending limit cannot exceed 1,000,000"}
	}
	return nil
}

// ValidateWalletSetupUniqueness reports every duplicated wallet name once, spelled as
// it first appears. Names are compared trimmed and case-insensitively.
func ValidateWalletSetupUniqueness(wallets []WalletSetup) []string {
	first := make(map[string]string, len(wallets))
	counted := make(map[string]bool)
	var dups []string

	for _, w := range wallets {
		name := strings.TrimSpace(w.Name)
		key := strings.ToLower(name)
		if key == "" {
			continue
		}
		original, seen := first[key]
		if !seen {
			first[key] = name
			continue
		}
		if !counted[key] {
			counted[key] = true
			dups = append(dups, original)
		}
	}

	if len(dups) == 0 {
		return nil
	}
	return []string{"Wallet names must be unique. Duplicates: " + strings.Join(dups, ", ")}
}

// ValidateDefaultWalletCount requires exactly one default wallet.
func ValidateDefaultWalletCount(wallets []WalletSetup) []string {
	defaults := 0
	for _, w := range wallets {
		if w.IsDefault {
			defaults++
		}
	}

	switch {
	case defaults == 0:
		return []string{"One wallet must be marked as default"}
	case defaults > 1:
		return []string{"Only one wallet can be marked as default"}
	default:
		return nil
	}
}

// ValidateWalletCount bounds the size of a wallet collection.
func ValidateWalletCount(wallets []WalletSetup) []string {
	if len(wallets) < MinWallets {
		return []string{fmt.Sprintf("You must have at least %d wallet", MinWallets)}
	}
	if len(wallets) > MaxWallets {
		return []string{fmt.Sprintf("You can have at most %d wallets", MaxWallets)}
	}
	return nil
}

// ValidateSingleWalletSetup validates one allocation's name and limit.
func ValidateSingleWalletSetup(w WalletSetup) []string {
	errs := ValidateWalletName(w.Name)
	return append(errs, ValidateSpendingLimit(w.SpendingLimit)...)
}

// ValidateCompleteWalletSetup runs count, uniqueness, default-count and per-wallet checks
// in that order. An empty collection stops after the count check.
func ValidateCompleteWalletSetup(wallets []WalletSetup) []string {
	errs := ValidateWalletCount(wallets)
	if len(wallets) == 0 {
		return errs
	}

	errs = append(errs, ValidateWalletSetupUniqueness(wallets)...)
	errs = append(errs, ValidateDefaultWalletCount(wallets)...)

	for i, w := range wallets {
		for _, e := range ValidateSingleWalletSetup(w) {
			errs = append(errs, fmt.Sprintf("Wallet %d: %s", i+1, e))
		}
	}

	return errs
}
