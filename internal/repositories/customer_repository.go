package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"sari-backend/internal/models"
)

type CustomerRepository struct {
	DB *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{DB: db}
}

const customerColumns = `id, name, phone, address, last_transaction, created_at, updated_at`

func scanCustomer(row interface{ Scan(...any) error }) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.LastTransaction, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO customers(id, name, phone, address)
         VALUES($1, $2, $3, $4)
         RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Phone, c.Address,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *CustomerRepository) Get(ctx context.Context, id string) (*models.Customer, error) {
	return scanCustomer(r.DB.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id=$1`, id))
}

func (r *CustomerRepository) List(ctx context.Context) ([]*models.Customer, error) {
	return r.query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY name`)
}

// Search matches name or phone, case-insensitively
func (r *CustomerRepository) Search(ctx context.Context, term string) ([]*models.Customer, error) {
	return r.query(ctx,
		`SELECT `+customerColumns+` FROM customers
         WHERE name ILIKE '%' || $1 || '%' OR phone ILIKE '%' || $1 || '%'
         ORDER BY name`, term)
}

func (r *CustomerRepository) query(ctx context.Context, sql string, args ...any) ([]*models.Customer, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *CustomerRepository) Update(ctx context.Context, c *models.Customer) error {
	return r.DB.QueryRow(ctx,
		`UPDATE customers SET name=$1, phone=$2, address=$3, updated_at=CURRENT_TIMESTAMP
         WHERE id=$4
         RETURNING updated_at`,
		c.Name, c.Phone, c.Address, c.ID).Scan(&c.UpdatedAt)
}

func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM customers WHERE id=$1`, id)
	return err
}

func (r *CustomerRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&n)
	return n, err
}
