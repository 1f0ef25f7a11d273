package services

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"sari-backend/internal/models"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type memCustomers struct {
	mu   sync.Mutex
	rows map[string]*models.Customer
}

func newMemCustomers(cs ...models.Customer) *memCustomers {
	m := &memCustomers{rows: map[string]*models.Customer{}}
	for i := range cs {
		c := cs[i]
		m.rows[c.ID] = &c
	}
	return m
}

func (m *memCustomers) Create(_ context.Context, c *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.CreatedAt = time.Now()
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func (m *memCustomers) Get(_ context.Context, id string) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (m *memCustomers) List(ctx context.Context) ([]*models.Customer, error) {
	return m.Search(ctx, "")
}

func (m *memCustomers) Search(_ context.Context, term string) ([]*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Customer
	for _, c := range m.rows {
		if term == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(term)) || strings.Contains(c.Phone, term) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memCustomers) Update(_ context.Context, c *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func (m *memCustomers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *memCustomers) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

type memProducts struct {
	mu   sync.Mutex
	rows map[string]*models.Product
}

func newMemProducts(ps ...models.Product) *memProducts {
	m := &memProducts{rows: map[string]*models.Product{}}
	for i := range ps {
		p := ps[i]
		m.rows[p.ID] = &p
	}
	return m
}

func (m *memProducts) Create(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memProducts) Get(_ context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) GetByBarcode(_ context.Context, barcode string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.Barcode == barcode {
			cp := *p
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memProducts) GetMany(_ context.Context, ids []string) (map[string]*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]*models.Product{}
	for _, id := range ids {
		if p, ok := m.rows[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (m *memProducts) list(keep func(*models.Product) bool) []*models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Product
	for _, p := range m.rows {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *memProducts) List(_ context.Context) ([]*models.Product, error) {
	return m.list(func(*models.Product) bool { return true }), nil
}

func (m *memProducts) ListLowStock(_ context.Context) ([]*models.Product, error) {
	return m.list(func(p *models.Product) bool { return p.IsLowStock() }), nil
}

func (m *memProducts) Update(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memProducts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *memProducts) CountLowStock(ctx context.Context) (int, error) {
	low, _ := m.ListLowStock(ctx)
	return len(low), nil
}

// memSales shares the product and credit fakes so Checkout behaves like the
// single pgx transaction: all or nothing.
type memSales struct {
	mu       sync.Mutex
	products *memProducts
	credits  *memCredits
	sales    []*models.Sale
	now      time.Time
}

func (m *memSales) Checkout(_ context.Context, sale *models.Sale, credit *models.CreditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products.mu.Lock()
	for _, item := range sale.Items {
		if m.products.rows[item.ProductID].Stock < item.Quantity {
			m.products.mu.Unlock()
			return ErrInsufficientStock
		}
	}
	for _, item := range sale.Items {
		m.products.rows[item.ProductID].Stock -= item.Quantity
	}
	m.products.mu.Unlock()

	sale.CreatedAt = m.now
	cp := *sale
	m.sales = append(m.sales, &cp)
	if credit != nil {
		credit.CreatedAt = m.now
		return m.credits.Create(context.Background(), credit)
	}
	return nil
}

func (m *memSales) Get(_ context.Context, id string) (*models.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sales {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memSales) List(_ context.Context, limit, offset int) ([]*models.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset >= len(m.sales) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.sales) {
		end = len(m.sales)
	}
	return m.sales[offset:end], nil
}

func (m *memSales) TotalSince(_ context.Context, since time.Time) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, s := range m.sales {
		if !s.CreatedAt.Before(since) {
			total = total.Add(s.TotalAmount)
		}
	}
	return total, nil
}

// memCredits serializes payments with one mutex, standing in for the
// per-customer row locks.
type memCredits struct {
	mu      sync.Mutex
	records []models.CreditRecord
}

func (m *memCredits) snapshot(keep func(models.CreditRecord) bool) []models.CreditRecord {
	var out []models.CreditRecord
	for _, r := range m.records {
		if keep(r) {
			r.Payments = append([]models.Payment(nil), r.Payments...)
			out = append(out, r)
		}
	}
	return out
}

func (m *memCredits) ListAll(_ context.Context) ([]models.CreditRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(func(models.CreditRecord) bool { return true }), nil
}

func (m *memCredits) ListByCustomer(_ context.Context, customerID string) ([]models.CreditRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(func(r models.CreditRecord) bool { return r.CustomerID == customerID }), nil
}

func (m *memCredits) Get(_ context.Context, id string) (*models.CreditRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.snapshot(func(r models.CreditRecord) bool { return r.ID == id })
	if len(recs) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &recs[0], nil
}

func (m *memCredits) Create(_ context.Context, rec *models.CreditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m.records = append(m.records, *rec)
	return nil
}

func (m *memCredits) PrincipalSince(_ context.Context, since time.Time) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, r := range m.records {
		if !r.CreatedAt.Before(since) {
			total = total.Add(r.Principal)
		}
	}
	return total, nil
}

func (m *memCredits) pay(keep func(models.CreditRecord) bool, allocate func([]models.CreditRecord) ([]models.Payment, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payments, err := allocate(m.snapshot(keep))
	if err != nil {
		return err
	}
	for _, p := range payments {
		for i := range m.records {
			if m.records[i].ID == p.CreditRecordID {
				m.records[i].Payments = append(m.records[i].Payments, p)
			}
		}
	}
	return nil
}

func (m *memCredits) PayCustomer(_ context.Context, customerID, _ string, allocate func([]models.CreditRecord) ([]models.Payment, error)) error {
	return m.pay(func(r models.CreditRecord) bool { return r.CustomerID == customerID }, allocate)
}

func (m *memCredits) PayRecord(_ context.Context, recordID, _ string, allocate func([]models.CreditRecord) ([]models.Payment, error)) error {
	return m.pay(func(r models.CreditRecord) bool { return r.ID == recordID }, allocate)
}

type memUsers struct {
	mu   sync.Mutex
	rows map[string]*models.User
}

func newMemUsers() *memUsers { return &memUsers{rows: map[string]*models.User{}} }

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.rows[u.ID] = &cp
	return nil
}

func (m *memUsers) Get(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) List(_ context.Context) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.User
	for _, u := range m.rows {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memUsers) Update(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.rows[u.ID] = &cp
	return nil
}

func (m *memUsers) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

type recordedEvent struct {
	Type string
	Data interface{}
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEvents) Broadcast(eventType string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{eventType, data})
}

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeArchive struct {
	keys []string
	err  error
}

func (f *fakeArchive) PutStatement(_ context.Context, customerID string, at time.Time, pdf []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	key := "statements/" + customerID + "/" + at.UTC().Format("20060102-150405") + ".pdf"
	f.keys = append(f.keys, key)
	return key, nil
}
