package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditStatus is the derived settlement state of a credit record or a
// customer's whole ledger. It is never stored.
type CreditStatus string

const (
	CreditStatusUnpaid  CreditStatus = "unpaid"
	CreditStatusPartial CreditStatus = "partial"
	CreditStatusPaid    CreditStatus = "paid"
)

// CreditRecord is one utang entry, created for every sale that was not paid
// in full. Principal, CustomerID and Description never change after insert.
type CreditRecord struct {
	ID           string          `json:"id"`
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name"` // name at the time of the sale
	SourceSaleID *string         `json:"source_sale_id,omitempty"`
	Principal    decimal.Decimal `json:"principal"`
	Description  string          `json:"description"`
	DueDate      *time.Time      `json:"due_date,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	Payments     []Payment       `json:"payments"`
}

// PaidToDate sums every payment made against the record
func (r *CreditRecord) PaidToDate() decimal.Decimal {
	paid := decimal.Zero
	for _, p := range r.Payments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

// Balance is what is still owed on the record
func (r *CreditRecord) Balance() decimal.Decimal {
	return r.Principal.Sub(r.PaidToDate())
}

// Payment is a single payment event against one credit record
type Payment struct {
	ID             string          `json:"id"`
	CreditRecordID string          `json:"credit_record_id"`
	Amount         decimal.Decimal `json:"amount"`
	Date           time.Time       `json:"date"`
	Note           string          `json:"note,omitempty"`
}

// CreateCreditRecordRequest is used for manually recorded utang (no sale)
type CreateCreditRecordRequest struct {
	CustomerID  string          `json:"customer_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
}

// PaymentRequest is the body of both payment endpoints
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}
