package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"sari-backend/internal/models"
)

// CustomerLedger is the per-customer view of every credit record and its
// payments. It is derived on demand and never persisted.
type CustomerLedger struct {
	CustomerID       string                `json:"customer_id"`
	CustomerName     string                `json:"customer_name"`
	CustomerPhone    string                `json:"customer_phone,omitempty"`
	CustomerAddress  string                `json:"customer_address,omitempty"`
	Records          []models.CreditRecord `json:"records"`
	TotalPrincipal   decimal.Decimal       `json:"total_principal"`
	TotalPaid        decimal.Decimal       `json:"total_paid"`
	RemainingBalance decimal.Decimal       `json:"remaining_balance"`
	Status           models.CreditStatus   `json:"status"`
	LatestActivity   time.Time             `json:"latest_activity"`
	EarliestDueDate  *time.Time            `json:"earliest_due_date,omitempty"`
	IsOverdue        bool                  `json:"is_overdue"`
	DaysOverdue      int                   `json:"days_overdue"`
}

// Consolidate groups credit records by customer and computes balances,
// status and overdue flags as of now. Customers appear in the order their
// first record appears in the input; customers without records are absent.
//
// directory is optional and only supplies display fields. When it has the
// customer, its current name wins over the name captured on the records.
func Consolidate(records []models.CreditRecord, directory map[string]models.Customer, now time.Time) []CustomerLedger {
	index := make(map[string]int)
	var ledgers []CustomerLedger
	// name captured on the most recent record, used when the directory has none
	latestName := make(map[string]time.Time)

	for _, rec := range records {
		i, ok := index[rec.CustomerID]
		if !ok {
			i = len(ledgers)
			index[rec.CustomerID] = i
			ledgers = append(ledgers, CustomerLedger{
				CustomerID:     rec.CustomerID,
				CustomerName:   rec.CustomerName,
				TotalPrincipal: decimal.Zero,
				TotalPaid:      decimal.Zero,
				LatestActivity: rec.CreatedAt,
			})
			latestName[rec.CustomerID] = rec.CreatedAt
		}

		l := &ledgers[i]
		l.Records = append(l.Records, rec)
		l.TotalPrincipal = l.TotalPrincipal.Add(rec.Principal)
		l.TotalPaid = l.TotalPaid.Add(rec.PaidToDate())

		if rec.CreatedAt.After(l.LatestActivity) {
			l.LatestActivity = rec.CreatedAt
		}
		if rec.CreatedAt.After(latestName[rec.CustomerID]) && rec.CustomerName != "" {
			l.CustomerName = rec.CustomerName
			latestName[rec.CustomerID] = rec.CreatedAt
		}
		if rec.DueDate != nil && (l.EarliestDueDate == nil || rec.DueDate.Before(*l.EarliestDueDate)) {
			due := *rec.DueDate
			l.EarliestDueDate = &due
		}
	}

	for i := range ledgers {
		l := &ledgers[i]
		if c, ok := directory[l.CustomerID]; ok {
			if c.Name != "" {
				l.CustomerName = c.Name
			}
			l.CustomerPhone = c.Phone
			l.CustomerAddress = c.Address
		}
		l.RemainingBalance = l.TotalPrincipal.Sub(l.TotalPaid)
		l.Status = StatusOf(l.TotalPrincipal, l.TotalPaid)
		l.IsOverdue = l.RemainingBalance.IsPositive() && IsOverdue(l.Status, l.EarliestDueDate, now)
		if l.IsOverdue {
			l.DaysOverdue = DaysOverdue(l.Status, l.EarliestDueDate, now)
		}
	}

	return ledgers
}

// Find returns the ledger of one customer, if present.
func Find(ledgers []CustomerLedger, customerID string) (*CustomerLedger, bool) {
	for i := range ledgers {
		if ledgers[i].CustomerID == customerID {
			return &ledgers[i], true
		}
	}
	return nil, false
}

// Summary aggregates a set of ledgers for list headers and the dashboard.
type Summary struct {
	Customers        int             `json:"customers"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	Unpaid           int             `json:"unpaid"`
	Partial          int             `json:"partial"`
	Paid             int             `json:"paid"`
	Overdue          int             `json:"overdue"`
}

func Summarize(ledgers []CustomerLedger) Summary {
	s := Summary{TotalOutstanding: decimal.Zero}
	for _, l := range ledgers {
		s.Customers++
		if l.RemainingBalance.IsPositive() {
			s.TotalOutstanding = s.TotalOutstanding.Add(l.RemainingBalance)
		}
		switch l.Status {
		case models.CreditStatusUnpaid:
			s.Unpaid++
		case models.CreditStatusPartial:
			s.Partial++
		case models.CreditStatusPaid:
			s.Paid++
		}
		if l.IsOverdue {
			s.Overdue++
		}
	}
	return s
}
