package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"sari-backend/internal/models"
)

// Allocation is the portion of an incoming payment applied to one record.
// The caller persists it as a Payment and re-consolidates.
type Allocation struct {
	CreditRecordID string          `json:"credit_record_id"`
	Amount         decimal.Decimal `json:"amount"`
	Note           string          `json:"note,omitempty"`
	Date           time.Time       `json:"date"`
	BalanceBefore  decimal.Decimal `json:"balance_before"`
	BalanceAfter   decimal.Decimal `json:"balance_after"`
}

// Payment converts the allocation into a payment row with the given id.
func (a Allocation) Payment(id string) models.Payment {
	return models.Payment{
		ID:             id,
		CreditRecordID: a.CreditRecordID,
		Amount:         a.Amount,
		Date:           a.Date,
		Note:           a.Note,
	}
}

// ValidateAmount accepts positive amounts with at most two decimal places,
// the precision payments are stored with.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, amount.String())
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: %s has more than two decimal places", ErrInvalidAmount, amount.String())
	}
	return nil
}

// AllocatePayment spreads amount across the customer's open records, oldest
// first, fully settling each before moving to the next. The allocations sum
// exactly to amount. Nothing is allocated when an error is returned.
func AllocatePayment(l *CustomerLedger, amount decimal.Decimal, note string, at time.Time) ([]Allocation, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	if l == nil || len(l.Records) == 0 || !l.RemainingBalance.IsPositive() {
		return nil, ErrUnknownCustomer
	}
	if amount.GreaterThan(l.RemainingBalance) {
		return nil, fmt.Errorf("%w: %s > %s", ErrOverpayment, amount.StringFixed(2), l.RemainingBalance.StringFixed(2))
	}

	ordered := make([]*models.CreditRecord, len(l.Records))
	for i := range l.Records {
		ordered[i] = &l.Records[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	remaining := amount
	var allocations []Allocation
	for _, rec := range ordered {
		if !remaining.IsPositive() {
			break
		}
		balance := rec.Balance()
		if !balance.IsPositive() {
			continue
		}
		applied := decimal.Min(remaining, balance)
		allocations = append(allocations, Allocation{
			CreditRecordID: rec.ID,
			Amount:         applied,
			Note:           note,
			Date:           at,
			BalanceBefore:  balance,
			BalanceAfter:   balance.Sub(applied),
		})
		remaining = remaining.Sub(applied)
	}

	// Only reachable when RemainingBalance disagrees with the records.
	if remaining.IsPositive() {
		return nil, fmt.Errorf("%w: %s left unallocated", ErrOverpayment, remaining.StringFixed(2))
	}

	return allocations, nil
}

// AllocateToRecord validates a payment made directly against one record.
func AllocateToRecord(rec *models.CreditRecord, amount decimal.Decimal, note string, at time.Time) (Allocation, error) {
	if err := ValidateAmount(amount); err != nil {
		return Allocation{}, err
	}
	balance := rec.Balance()
	if amount.GreaterThan(balance) {
		return Allocation{}, fmt.Errorf("%w: %s > %s", ErrOverpayment, amount.StringFixed(2), balance.StringFixed(2))
	}
	return Allocation{
		CreditRecordID: rec.ID,
		Amount:         amount,
		Note:           note,
		Date:           at,
		BalanceBefore:  balance,
		BalanceAfter:   balance.Sub(amount),
	}, nil
}

// Apply returns copies of records with payments appended to the record they
// belong to. The input is not modified.
func Apply(records []models.CreditRecord, payments []models.Payment) []models.CreditRecord {
	byRecord := make(map[string][]models.Payment, len(payments))
	for _, p := range payments {
		byRecord[p.CreditRecordID] = append(byRecord[p.CreditRecordID], p)
	}

	out := make([]models.CreditRecord, len(records))
	for i, rec := range records {
		out[i] = rec
		extra := byRecord[rec.ID]
		if len(extra) == 0 {
			continue
		}
		merged := make([]models.Payment, 0, len(rec.Payments)+len(extra))
		merged = append(merged, rec.Payments...)
		out[i].Payments = append(merged, extra...)
	}
	return out
}

// Payments turns allocations into payment rows, taking ids from newID
func Payments(allocations []Allocation, newID func() string) []models.Payment {
	payments := make([]models.Payment, len(allocations))
	for i, a := range allocations {
		payments[i] = a.Payment(newID())
	}
	return payments
}
