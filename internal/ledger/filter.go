package ledger

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"sari-backend/internal/models"
)

// StatusFilter selects ledgers by computed status
type StatusFilter string

const (
	FilterAll     StatusFilter = "all"
	FilterUnpaid  StatusFilter = "unpaid"
	FilterPartial StatusFilter = "partial"
	FilterPaid    StatusFilter = "paid"
)

// SortKey orders the ledger list
type SortKey string

const (
	SortByAmount SortKey = "amount" // remaining balance, highest first
	SortByDate   SortKey = "date"   // latest activity, newest first
	SortByName   SortKey = "name"   // customer name, A-Z
)

// ParseStatusFilter maps a query value to a filter. Empty means all.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterUnpaid, FilterPartial, FilterPaid:
		return f, nil
	default:
		return "", fmt.Errorf("%w: status %q", ErrInvalidFilter, s)
	}
}

// ParseSortKey maps a query value to a sort key. Empty means amount.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortByAmount, nil
	case SortByAmount, SortByDate, SortByName:
		return k, nil
	default:
		return "", fmt.Errorf("%w: sort %q", ErrInvalidFilter, s)
	}
}

// FilterAndSort returns a new slice holding the ledgers that pass the status
// filter and search term, in sortKey order. Equal keys keep input order.
func FilterAndSort(ledgers []CustomerLedger, status StatusFilter, searchTerm string, key SortKey) []CustomerLedger {
	term := strings.ToLower(strings.TrimSpace(searchTerm))
	var termDigits string
	if phoneLike(term) {
		termDigits = digitsOnly(term)
	}

	out := make([]CustomerLedger, 0, len(ledgers))
	for _, l := range ledgers {
		if status != "" && status != FilterAll && models.CreditStatus(status) != l.Status {
			continue
		}
		if term != "" && !matches(l, term, termDigits) {
			continue
		}
		out = append(out, l)
	}

	switch key {
	case SortByAmount:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].RemainingBalance.GreaterThan(out[j].RemainingBalance)
		})
	case SortByDate:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].LatestActivity.After(out[j].LatestActivity)
		})
	case SortByName:
		// Collator keeps internal buffers, so one per call.
		c := collate.New(language.Filipino, collate.IgnoreCase)
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].CustomerName, out[j].CustomerName) < 0
		})
	}

	return out
}

func matches(l CustomerLedger, term, termDigits string) bool {
	if strings.Contains(strings.ToLower(l.CustomerName), term) {
		return true
	}
	if termDigits == "" {
		return false
	}
	return strings.Contains(digitsOnly(l.CustomerPhone), termDigits)
}

// phoneLike reports whether the term is a phone number fragment: digits with
// optional spaces, dashes, dots, parentheses or a leading +.
func phoneLike(term string) bool {
	digits := 0
	for _, r := range term {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == ' ', r == '-', r == '.', r == '(', r == ')', r == '+':
		default:
			return false
		}
	}
	return digits > 0
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
