package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"sari-backend/internal/cache"
	"sari-backend/internal/ledger"
	"sari-backend/internal/models"
	"sari-backend/internal/timeutil"
)

type CustomerService struct {
	Repo    CustomerStore
	Credits CreditStore
	Cache   SnapshotCache
	log     *logrus.Entry
}

func NewCustomerService(repo CustomerStore, credits CreditStore, snapshots SnapshotCache, logger *logrus.Logger) *CustomerService {
	if snapshots == nil {
		snapshots = cache.NewLedgerCache(nil, 0)
	}
	return &CustomerService{
		Repo:    repo,
		Credits: credits,
		Cache:   snapshots,
		log:     componentLogger(logger, "customers"),
	}
}

func (s *CustomerService) CreateCustomer(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name is required")
	}

	customer := &models.Customer{
		ID:      uuid.NewString(),
		Name:    name,
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	}

	if err := s.Repo.Create(ctx, customer); err != nil {
		return nil, err
	}

	return customer, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, id string) (*models.CustomerWithUtang, error) {
	if err := checkID(id, "customer"); err != nil {
		return nil, err
	}
	c, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "customer")
	}
	records, err := s.Credits.ListByCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.CustomerWithUtang{Customer: *c, TotalUtang: outstanding(records, id)}, nil
}

// ListCustomers returns every customer (or those matching search) with
// their outstanding utang
func (s *CustomerService) ListCustomers(ctx context.Context, search string) ([]*models.CustomerWithUtang, error) {
	var (
		customers []*models.Customer
		err       error
	)
	if term := strings.TrimSpace(search); term != "" {
		customers, err = s.Repo.Search(ctx, term)
	} else {
		customers, err = s.Repo.List(ctx)
	}
	if err != nil {
		return nil, err
	}

	records, err := s.Credits.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	ledgers := ledger.Consolidate(records, nil, timeutil.Now())

	out := make([]*models.CustomerWithUtang, 0, len(customers))
	for _, c := range customers {
		cw := &models.CustomerWithUtang{Customer: *c}
		if l, ok := ledger.Find(ledgers, c.ID); ok {
			cw.TotalUtang = l.RemainingBalance
		}
		out = append(out, cw)
	}
	return out, nil
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, id string, req *models.UpdateCustomerRequest) (*models.Customer, error) {
	if err := checkID(id, "customer"); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name is required")
	}

	customer, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "customer")
	}
	customer.Name = name
	customer.Phone = strings.TrimSpace(req.Phone)
	customer.Address = strings.TrimSpace(req.Address)

	if err := s.Repo.Update(ctx, customer); err != nil {
		return nil, notFound(err, "customer")
	}
	invalidateSnapshot(ctx, s.Cache, s.log)

	return customer, nil
}

// DeleteCustomer refuses while the customer still owes anything. Settled
// records keep the customer row referenced, so only customers without any
// credit history can actually be removed.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id string) error {
	if err := checkID(id, "customer"); err != nil {
		return err
	}
	if _, err := s.Repo.Get(ctx, id); err != nil {
		return notFound(err, "customer")
	}
	records, err := s.Credits.ListByCustomer(ctx, id)
	if err != nil {
		return err
	}
	if outstanding(records, id).IsPositive() {
		return ErrCustomerHasUtang
	}
	if len(records) > 0 {
		return invalid("customer has credit history")
	}
	return s.Repo.Delete(ctx, id)
}

func outstanding(records []models.CreditRecord, customerID string) decimal.Decimal {
	l, ok := ledger.Find(ledger.Consolidate(records, nil, timeutil.Now()), customerID)
	if !ok {
		return decimal.Zero
	}
	return l.RemainingBalance
}
