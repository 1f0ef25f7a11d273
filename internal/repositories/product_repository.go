package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"sari-backend/internal/models"
)

type ProductRepository struct {
	DB *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{DB: db}
}

const productColumns = `id, name, category, price, stock, min_stock,
	COALESCE(barcode, ''), COALESCE(supplier, ''), created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.MinStock,
		&p.Barcode, &p.Supplier, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO products(id, name, category, price, stock, min_stock, barcode, supplier)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8)
         RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Category, p.Price, p.Stock, p.MinStock, nullIfEmpty(p.Barcode), nullIfEmpty(p.Supplier),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*models.Product, error) {
	return scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
}

func (r *ProductRepository) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	return scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE barcode=$1`, barcode))
}

// GetMany returns the products with the given ids, keyed by id
func (r *ProductRepository) GetMany(ctx context.Context, ids []string) (map[string]*models.Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*models.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *ProductRepository) List(ctx context.Context) ([]*models.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY category, name`)
}

// ListLowStock returns products at or below their minimum stock level
func (r *ProductRepository) ListLowStock(ctx context.Context) ([]*models.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products WHERE stock <= min_stock ORDER BY stock, name`)
}

func (r *ProductRepository) query(ctx context.Context, sql string, args ...any) ([]*models.Product, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	return r.DB.QueryRow(ctx,
		`UPDATE products SET name=$1, category=$2, price=$3, stock=$4, min_stock=$5,
             barcode=$6, supplier=$7, updated_at=CURRENT_TIMESTAMP
         WHERE id=$8
         RETURNING created_at, updated_at`,
		p.Name, p.Category, p.Price, p.Stock, p.MinStock, nullIfEmpty(p.Barcode), nullIfEmpty(p.Supplier), p.ID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	return err
}

func (r *ProductRepository) CountLowStock(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE stock <= min_stock`).Scan(&n)
	return n, err
}
