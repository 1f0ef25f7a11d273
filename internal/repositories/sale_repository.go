package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"sari-backend/internal/models"
)

// ErrOutOfStock is returned when a sale item asks for more than is on the shelf
var ErrOutOfStock = errors.New("insufficient stock")

type SaleRepository struct {
	DB *pgxpool.Pool
}

func NewSaleRepository(db *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{DB: db}
}

// Checkout persists a sale, its items and the utang it created in one
// transaction. Stock is decremented only if every item is available.
// credit may be nil for sales paid in full.
func (r *SaleRepository) Checkout(ctx context.Context, sale *models.Sale, credit *models.CreditRecord) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin checkout: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO sales(id, customer_id, customer_name, total_amount, amount_paid, change, utang_amount, payment_method, cashier_id)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
         RETURNING created_at`,
		sale.ID, sale.CustomerID, sale.CustomerName, sale.TotalAmount, sale.AmountPaid, sale.Change,
		sale.UtangAmount, string(sale.PaymentMethod), nullIfEmpty(sale.CashierID),
	).Scan(&sale.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	for _, item := range sale.Items {
		tag, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock - $1, updated_at = CURRENT_TIMESTAMP
             WHERE id = $2 AND stock >= $1`,
			item.Quantity, item.ProductID)
		if err != nil {
			return fmt.Errorf("update stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", ErrOutOfStock, item.ProductName)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO sale_items(sale_id, product_id, product_name, quantity, price, total)
             VALUES($1, $2, $3, $4, $5, $6)`,
			sale.ID, item.ProductID, item.ProductName, item.Quantity, item.Price, item.Total)
		if err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}
	}

	if credit != nil {
		if err := insertCreditRecord(ctx, tx, credit); err != nil {
			return fmt.Errorf("insert credit record: %w", err)
		}
	}

	if sale.CustomerID != nil {
		_, err = tx.Exec(ctx,
			`UPDATE customers SET last_transaction = $1 WHERE id = $2`,
			sale.CreatedAt, *sale.CustomerID)
		if err != nil {
			return fmt.Errorf("touch customer: %w", err)
		}
	}

	return tx.Commit(ctx)
}

const saleColumns = `id, customer_id, customer_name, total_amount, amount_paid, change, utang_amount,
	payment_method, COALESCE(cashier_id::text, ''), created_at`

func (r *SaleRepository) Get(ctx context.Context, id string) (*models.Sale, error) {
	var s models.Sale
	err := r.DB.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id=$1`, id).Scan(
		&s.ID, &s.CustomerID, &s.CustomerName, &s.TotalAmount, &s.AmountPaid, &s.Change,
		&s.UtangAmount, &s.PaymentMethod, &s.CashierID, &s.CreatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx,
		`SELECT COALESCE(product_id::text, ''), product_name, quantity, price, total
         FROM sale_items WHERE sale_id=$1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.SaleItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &item.Price, &item.Total); err != nil {
			return nil, err
		}
		s.Items = append(s.Items, item)
	}
	return &s, rows.Err()
}

// List returns sales newest first, without items
func (r *SaleRepository) List(ctx context.Context, limit, offset int) ([]*models.Sale, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+saleColumns+` FROM sales ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []*models.Sale
	for rows.Next() {
		var s models.Sale
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.CustomerName, &s.TotalAmount, &s.AmountPaid, &s.Change,
			&s.UtangAmount, &s.PaymentMethod, &s.CashierID, &s.CreatedAt); err != nil {
			return nil, err
		}
		sales = append(sales, &s)
	}
	return sales, rows.Err()
}

// TotalSince sums sale totals from since onwards. A zero since covers all sales.
func (r *SaleRepository) TotalSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_amount), 0) FROM sales WHERE created_at >= $1`, since).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	return total, err
}
