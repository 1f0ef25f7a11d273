package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	MinStock  int             `json:"min_stock"`
	Barcode   string          `json:"barcode,omitempty"`
	Supplier  string          `json:"supplier,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// IsLowStock reports whether the product has dropped to its reorder level.
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}

// ProductRequest is the body for both create and update.
type ProductRequest struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	MinStock int             `json:"min_stock"`
	Barcode  string          `json:"barcode"`
	Supplier string          `json:"supplier"`
}
