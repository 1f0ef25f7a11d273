package models

import "github.com/shopspring/decimal"

// DashboardStats backs the store owner's home screen
type DashboardStats struct {
	TotalSales       decimal.Decimal `json:"total_sales"`
	DailySales       decimal.Decimal `json:"daily_sales"`
	TotalUtang       decimal.Decimal `json:"total_utang"`   // outstanding across all customers
	MonthlyUtang     decimal.Decimal `json:"monthly_utang"` // credit extended this month
	LowStockItems    int             `json:"low_stock_items"`
	TotalCustomers   int             `json:"total_customers"`
	OverdueCustomers int             `json:"overdue_customers"`
}
