package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sari-backend/internal/models"
)

func TestDashboardStats(t *testing.T) {
	products := newMemProducts(
		models.Product{ID: sardinasID, Name: "Sardinas", Price: d("25"), Stock: 10, MinStock: 2},
		models.Product{ID: kapeID, Name: "Kape", Price: d("8"), Stock: 1, MinStock: 5},
	)
	customers := newMemCustomers(
		models.Customer{ID: juanID, Name: "Juan"},
		models.Customer{ID: mariaID, Name: "Maria"},
	)
	due := jan5
	credits := &memCredits{records: []models.CreditRecord{
		{ID: r1, CustomerID: juanID, Principal: d("90"), CreatedAt: jan1, DueDate: &due},
		{ID: r2, CustomerID: mariaID, Principal: d("40"), CreatedAt: testNow.Add(-time.Hour)},
	}}
	sales := &memSales{products: products, credits: credits}
	sales.sales = []*models.Sale{
		{ID: "s1", TotalAmount: d("100"), CreatedAt: jan1},
		{ID: "s2", TotalAmount: d("30"), CreatedAt: testNow.Add(-time.Hour)},
	}

	utang := NewUtangService(credits, customers, nil, nil, nil, nil, quietLogger())
	utang.now = func() time.Time { return testNow }
	svc := NewDashboardService(sales, products, customers, credits, utang)
	svc.now = func() time.Time { return testNow }

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.TotalSales.Equal(d("130")))
	assert.True(t, stats.DailySales.Equal(d("30")))
	assert.True(t, stats.TotalUtang.Equal(d("130")))
	assert.True(t, stats.MonthlyUtang.Equal(d("40")))
	assert.Equal(t, 1, stats.LowStockItems)
	assert.Equal(t, 2, stats.TotalCustomers)
	assert.Equal(t, 1, stats.OverdueCustomers)
}
