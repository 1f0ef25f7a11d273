package services

import (
	"context"
	"time"

	"sari-backend/internal/ledger"
	"sari-backend/internal/models"
	"sari-backend/internal/timeutil"
)

type DashboardService struct {
	Sales     SaleStore
	Products  ProductStore
	Customers CustomerStore
	Credits   CreditStore
	Utang     *UtangService
	now       func() time.Time
}

func NewDashboardService(sales SaleStore, products ProductStore, customers CustomerStore,
	credits CreditStore, utang *UtangService) *DashboardService {
	return &DashboardService{
		Sales:     sales,
		Products:  products,
		Customers: customers,
		Credits:   credits,
		Utang:     utang,
		now:       timeutil.Now,
	}
}

// Stats collects the home screen numbers. Day and month boundaries follow
// the store timezone.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	now := s.now()
	stats := &models.DashboardStats{}

	var err error
	if stats.TotalSales, err = s.Sales.TotalSince(ctx, time.Time{}); err != nil {
		return nil, err
	}
	if stats.DailySales, err = s.Sales.TotalSince(ctx, timeutil.StartOfDay(now)); err != nil {
		return nil, err
	}
	if stats.MonthlyUtang, err = s.Credits.PrincipalSince(ctx, timeutil.StartOfMonth(now)); err != nil {
		return nil, err
	}
	if stats.LowStockItems, err = s.Products.CountLowStock(ctx); err != nil {
		return nil, err
	}
	if stats.TotalCustomers, err = s.Customers.Count(ctx); err != nil {
		return nil, err
	}

	ledgers, err := s.Utang.AllLedgers(ctx)
	if err != nil {
		return nil, err
	}
	summary := ledger.Summarize(ledgers)
	stats.TotalUtang = summary.TotalOutstanding
	stats.OverdueCustomers = summary.Overdue
	return stats, nil
}
