package ledger

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"sari-backend/internal/models"
)

// StatusOf classifies an amount owed against what has been paid toward it.
// The same rule applies to a single record and to a whole customer ledger.
func StatusOf(principal, paid decimal.Decimal) models.CreditStatus {
	switch {
	case !principal.Sub(paid).IsPositive():
		return models.CreditStatusPaid
	case paid.IsPositive():
		return models.CreditStatusPartial
	default:
		return models.CreditStatusUnpaid
	}
}

// RecordStatus returns the current status of one credit record.
func RecordStatus(r *models.CreditRecord) models.CreditStatus {
	return StatusOf(r.Principal, r.PaidToDate())
}

// IsOverdue reports whether something still owed was due strictly before now.
func IsOverdue(status models.CreditStatus, dueDate *time.Time, now time.Time) bool {
	if status == models.CreditStatusPaid || dueDate == nil {
		return false
	}
	return dueDate.Before(now)
}

// DaysOverdue counts started days past the due date, 0 when not overdue.
func DaysOverdue(status models.CreditStatus, dueDate *time.Time, now time.Time) int {
	if !IsOverdue(status, dueDate, now) {
		return 0
	}
	return int(math.Ceil(now.Sub(*dueDate).Hours() / 24))
}
