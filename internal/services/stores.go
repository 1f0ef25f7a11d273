package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"sari-backend/internal/cache"
	"sari-backend/internal/models"
)

// The stores below are implemented by the pgx repositories. Missing rows are
// reported as pgx.ErrNoRows.

type CustomerStore interface {
	Create(ctx context.Context, c *models.Customer) error
	Get(ctx context.Context, id string) (*models.Customer, error)
	List(ctx context.Context) ([]*models.Customer, error)
	Search(ctx context.Context, term string) ([]*models.Customer, error)
	Update(ctx context.Context, c *models.Customer) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	Get(ctx context.Context, id string) (*models.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	GetMany(ctx context.Context, ids []string) (map[string]*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	ListLowStock(ctx context.Context) ([]*models.Product, error)
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id string) error
	CountLowStock(ctx context.Context) (int, error)
}

type SaleStore interface {
	Checkout(ctx context.Context, sale *models.Sale, credit *models.CreditRecord) error
	Get(ctx context.Context, id string) (*models.Sale, error)
	List(ctx context.Context, limit, offset int) ([]*models.Sale, error)
	TotalSince(ctx context.Context, since time.Time) (decimal.Decimal, error)
}

// CreditStore runs the allocate callback inside the transaction that holds
// the row locks; returning an error from it aborts the payment.
type CreditStore interface {
	ListAll(ctx context.Context) ([]models.CreditRecord, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.CreditRecord, error)
	Get(ctx context.Context, id string) (*models.CreditRecord, error)
	Create(ctx context.Context, rec *models.CreditRecord) error
	PrincipalSince(ctx context.Context, since time.Time) (decimal.Decimal, error)
	PayCustomer(ctx context.Context, customerID, recordedBy string, allocate func([]models.CreditRecord) ([]models.Payment, error)) error
	PayRecord(ctx context.Context, recordID, recordedBy string, allocate func([]models.CreditRecord) ([]models.Payment, error)) error
}

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, u *models.User) error
	Count(ctx context.Context) (int, error)
}

// SnapshotCache holds the raw inputs of the utang list
type SnapshotCache interface {
	Get(ctx context.Context) (*cache.Snapshot, bool)
	Set(ctx context.Context, snap *cache.Snapshot) error
	Invalidate(ctx context.Context) error
}

// Broadcaster pushes events to connected POS screens
type Broadcaster interface {
	Broadcast(eventType string, data interface{})
}

// StatementArchiver stores generated statement PDFs
type StatementArchiver interface {
	PutStatement(ctx context.Context, customerID string, at time.Time, pdf []byte) (string, error)
}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(string, interface{}) {}
