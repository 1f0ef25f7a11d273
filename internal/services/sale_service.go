package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"sari-backend/internal/cache"
	"sari-backend/internal/metrics"
	"sari-backend/internal/models"
	"sari-backend/internal/realtime"
)

const defaultSalesPageSize = 50

type SaleService struct {
	Repo      SaleStore
	Products  ProductStore
	Customers CustomerStore
	Cache     SnapshotCache
	Events    Broadcaster
	log       *logrus.Entry
}

func NewSaleService(repo SaleStore, products ProductStore, customers CustomerStore,
	snapshots SnapshotCache, events Broadcaster, logger *logrus.Logger) *SaleService {
	if snapshots == nil {
		snapshots = cache.NewLedgerCache(nil, 0)
	}
	if events == nil {
		events = noopBroadcaster{}
	}
	return &SaleService{
		Repo:      repo,
		Products:  products,
		Customers: customers,
		Cache:     snapshots,
		Events:    events,
		log:       componentLogger(logger, "sales"),
	}
}

// Checkout prices the cart from the catalog, settles it against the amount
// paid and records whatever is left as utang for the customer.
func (s *SaleService) Checkout(ctx context.Context, req *models.CheckoutRequest, cashierID string) (*models.CheckoutResult, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrInvalidSale)
	}
	if req.AmountPaid.IsNegative() {
		return nil, fmt.Errorf("%w: amount paid cannot be negative", ErrInvalidSale)
	}

	// merge repeated scans of the same product, keeping first-scan order
	qty := make(map[string]int)
	var order []string
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidSale)
		}
		if _, seen := qty[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		qty[item.ProductID] += item.Quantity
	}

	for _, id := range order {
		if err := checkID(id, "product "+id); err != nil {
			return nil, err
		}
	}
	products, err := s.Products.GetMany(ctx, order)
	if err != nil {
		return nil, err
	}

	sale := &models.Sale{
		ID:          uuid.NewString(),
		TotalAmount: decimal.Zero,
		AmountPaid:  req.AmountPaid.Round(2),
		CashierID:   cashierID,
	}
	names := make([]string, 0, len(order))
	for _, id := range order {
		p, ok := products[id]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		if p.Stock < qty[id] {
			return nil, fmt.Errorf("%w: %s has %d left", ErrInsufficientStock, p.Name, p.Stock)
		}
		line := p.Price.Mul(decimal.NewFromInt(int64(qty[id])))
		sale.Items = append(sale.Items, models.SaleItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    qty[id],
			Price:       p.Price,
			Total:       line,
		})
		sale.TotalAmount = sale.TotalAmount.Add(line)
		names = append(names, p.Name)
	}

	settle(sale)

	var customer *models.Customer
	if req.CustomerID != "" {
		if err := checkID(req.CustomerID, "customer"); err != nil {
			return nil, err
		}
		customer, err = s.Customers.Get(ctx, req.CustomerID)
		if err != nil {
			return nil, notFound(err, "customer")
		}
		sale.CustomerID = &customer.ID
		sale.CustomerName = customer.Name
	}

	var credit *models.CreditRecord
	if sale.UtangAmount.IsPositive() {
		if customer == nil {
			return nil, ErrCustomerRequired
		}
		saleID := sale.ID
		credit = &models.CreditRecord{
			ID:           uuid.NewString(),
			CustomerID:   customer.ID,
			CustomerName: customer.Name,
			SourceSaleID: &saleID,
			Principal:    sale.UtangAmount,
			Description:  "Purchase - " + strings.Join(names, ", "),
			DueDate:      req.DueDate,
		}
	}

	if err := s.Repo.Checkout(ctx, sale, credit); err != nil {
		if !errors.Is(err, ErrInsufficientStock) {
			s.log.WithError(err).Error("Checkout failed")
		}
		return nil, err
	}

	metrics.SalesTotal.WithLabelValues(string(sale.PaymentMethod)).Inc()
	if credit != nil {
		credit.Payments = []models.Payment{}
		invalidateSnapshot(ctx, s.Cache, s.log)
	}
	s.Events.Broadcast(realtime.EventSaleCreated, sale)

	s.log.WithFields(logrus.Fields{
		"sale_id": sale.ID,
		"total":   sale.TotalAmount.StringFixed(2),
		"method":  sale.PaymentMethod,
		"utang":   sale.UtangAmount.StringFixed(2),
	}).Info("Sale recorded")

	return &models.CheckoutResult{Sale: sale, CreditRecord: credit}, nil
}

// settle derives change, utang and the payment method from total and paid
func settle(sale *models.Sale) {
	total, paid := sale.TotalAmount, sale.AmountPaid
	sale.Change = decimal.Max(paid.Sub(total), decimal.Zero)
	sale.UtangAmount = decimal.Max(total.Sub(paid), decimal.Zero)

	switch {
	case paid.GreaterThanOrEqual(total):
		sale.PaymentMethod = models.PaymentMethodCash
	case paid.IsZero():
		sale.PaymentMethod = models.PaymentMethodUtang
	default:
		sale.PaymentMethod = models.PaymentMethodPartial
	}
}

func (s *SaleService) GetSale(ctx context.Context, id string) (*models.Sale, error) {
	if err := checkID(id, "sale"); err != nil {
		return nil, err
	}
	sale, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "sale")
	}
	return sale, nil
}

func (s *SaleService) ListSales(ctx context.Context, limit, offset int) ([]*models.Sale, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultSalesPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.List(ctx, limit, offset)
}
