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

// ErrNoPayments is returned by a payment callback that produced nothing to insert
var ErrNoPayments = errors.New("no payments to record")

// CreditRepository stores utang records and the payments made against them.
// Balances are never stored; they are derived from the two tables.
type CreditRepository struct {
	DB *pgxpool.Pool
}

func NewCreditRepository(db *pgxpool.Pool) *CreditRepository {
	return &CreditRepository{DB: db}
}

const creditColumns = `id, customer_id, customer_name, source_sale_id, principal, description, due_date, created_at`

func insertCreditRecord(ctx context.Context, q querier, rec *models.CreditRecord) error {
	return q.QueryRow(ctx,
		`INSERT INTO credit_records(id, customer_id, customer_name, source_sale_id, principal, description, due_date)
         VALUES($1, $2, $3, $4, $5, $6, $7)
         RETURNING created_at`,
		rec.ID, rec.CustomerID, rec.CustomerName, rec.SourceSaleID, rec.Principal, rec.Description, rec.DueDate,
	).Scan(&rec.CreatedAt)
}

// loadRecords runs a credit_records query and attaches the payments of every
// returned record, oldest payment first.
func loadRecords(ctx context.Context, q querier, sql string, args ...any) ([]models.CreditRecord, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	var records []models.CreditRecord
	for rows.Next() {
		var rec models.CreditRecord
		if err := rows.Scan(&rec.ID, &rec.CustomerID, &rec.CustomerName, &rec.SourceSaleID,
			&rec.Principal, &rec.Description, &rec.DueDate, &rec.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		records = append(records, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return records, nil
	}

	ids := make([]string, len(records))
	index := make(map[string]int, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
		index[rec.ID] = i
	}

	prows, err := q.Query(ctx,
		`SELECT id, credit_record_id, amount, paid_at, note
         FROM credit_payments
         WHERE credit_record_id = ANY($1)
         ORDER BY paid_at, id`, ids)
	if err != nil {
		return nil, err
	}
	defer prows.Close()

	for prows.Next() {
		var p models.Payment
		if err := prows.Scan(&p.ID, &p.CreditRecordID, &p.Amount, &p.Date, &p.Note); err != nil {
			return nil, err
		}
		i := index[p.CreditRecordID]
		records[i].Payments = append(records[i].Payments, p)
	}
	return records, prows.Err()
}

// ListAll returns every credit record with its payments, oldest first
func (r *CreditRepository) ListAll(ctx context.Context) ([]models.CreditRecord, error) {
	return loadRecords(ctx, r.DB, `SELECT `+creditColumns+` FROM credit_records ORDER BY created_at, id`)
}

func (r *CreditRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.CreditRecord, error) {
	return loadRecords(ctx, r.DB,
		`SELECT `+creditColumns+` FROM credit_records WHERE customer_id=$1 ORDER BY created_at, id`, customerID)
}

func (r *CreditRepository) Get(ctx context.Context, id string) (*models.CreditRecord, error) {
	records, err := loadRecords(ctx, r.DB, `SELECT `+creditColumns+` FROM credit_records WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &records[0], nil
}

func (r *CreditRepository) Create(ctx context.Context, rec *models.CreditRecord) error {
	return insertCreditRecord(ctx, r.DB, rec)
}

// PrincipalSince sums the principal of records created at or after since
func (r *CreditRepository) PrincipalSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(principal), 0) FROM credit_records WHERE created_at >= $1`, since).Scan(&total)
	return total, err
}

// PayCustomer locks every credit record of the customer, hands the current
// state to allocate and inserts the payments it returns, all in one
// transaction. Concurrent payments for the same customer queue on the row
// locks, so allocate always sees the balances left by the previous one.
func (r *CreditRepository) PayCustomer(ctx context.Context, customerID, recordedBy string,
	allocate func(records []models.CreditRecord) ([]models.Payment, error)) error {
	return r.pay(ctx, recordedBy, allocate,
		`SELECT `+creditColumns+` FROM credit_records WHERE customer_id=$1 ORDER BY created_at, id FOR UPDATE`, customerID)
}

// PayRecord is PayCustomer for a single record
func (r *CreditRepository) PayRecord(ctx context.Context, recordID, recordedBy string,
	allocate func(records []models.CreditRecord) ([]models.Payment, error)) error {
	return r.pay(ctx, recordedBy, allocate,
		`SELECT `+creditColumns+` FROM credit_records WHERE id=$1 FOR UPDATE`, recordID)
}

func (r *CreditRepository) pay(ctx context.Context, recordedBy string,
	allocate func(records []models.CreditRecord) ([]models.Payment, error), sql string, args ...any) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin payment: %w", err)
	}
	defer tx.Rollback(ctx)

	records, err := loadRecords(ctx, tx, sql, args...)
	if err != nil {
		return fmt.Errorf("lock credit records: %w", err)
	}

	payments, err := allocate(records)
	if err != nil {
		return err
	}
	if len(payments) == 0 {
		return ErrNoPayments
	}

	batch := &pgx.Batch{}
	for _, p := range payments {
		batch.Queue(
			`INSERT INTO credit_payments(id, credit_record_id, amount, paid_at, note, recorded_by)
             VALUES($1, $2, $3, $4, $5, $6)`,
			p.ID, p.CreditRecordID, p.Amount, p.Date, p.Note, nullIfEmpty(recordedBy))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert payments: %w", err)
	}

	return tx.Commit(ctx)
}
