package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod describes how a sale was settled at the counter
type PaymentMethod string

const (
	PaymentMethodCash    PaymentMethod = "cash"    // paid in full
	PaymentMethodUtang   PaymentMethod = "utang"   // nothing paid, everything on credit
	PaymentMethodPartial PaymentMethod = "partial" // part cash, rest on credit
)

// Sale is one checkout at the POS
type Sale struct {
	ID            string          `json:"id"`
	CustomerID    *string         `json:"customer_id,omitempty"`
	CustomerName  string          `json:"customer_name,omitempty"`
	Items         []SaleItem      `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Change        decimal.Decimal `json:"change"`
	UtangAmount   decimal.Decimal `json:"utang_amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	CashierID     string          `json:"cashier_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type SaleItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
}

// CheckoutRequest represents the request body for POST /api/sales
type CheckoutRequest struct {
	CustomerID string          `json:"customer_id"`
	Items      []CheckoutItem  `json:"items"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	DueDate    *time.Time      `json:"due_date,omitempty"`
}

type CheckoutItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CheckoutResult is returned after a successful checkout
type CheckoutResult struct {
	Sale         *Sale         `json:"sale"`
	CreditRecord *CreditRecord `json:"credit_record,omitempty"`
}
