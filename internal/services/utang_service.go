package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"sari-backend/internal/cache"
	"sari-backend/internal/ledger"
	"sari-backend/internal/metrics"
	"sari-backend/internal/models"
	"sari-backend/internal/realtime"
	"sari-backend/internal/timeutil"
)

// UtangService is the persistence side of the ledger engine: it loads
// records, runs consolidation and allocation, and writes payments back.
type UtangService struct {
	Credits    CreditStore
	Customers  CustomerStore
	Cache      SnapshotCache
	Events     Broadcaster
	Statements *StatementService
	Archive    StatementArchiver // nil when storage is disabled
	log        *logrus.Entry
	now        func() time.Time
	newID      func() string
}

func NewUtangService(credits CreditStore, customers CustomerStore, snapshots SnapshotCache,
	events Broadcaster, statements *StatementService, archive StatementArchiver, logger *logrus.Logger) *UtangService {
	if snapshots == nil {
		snapshots = cache.NewLedgerCache(nil, 0)
	}
	if events == nil {
		events = noopBroadcaster{}
	}
	return &UtangService{
		Credits:    credits,
		Customers:  customers,
		Cache:      snapshots,
		Events:     events,
		Statements: statements,
		Archive:    archive,
		log:        componentLogger(logger, "utang"),
		now:        timeutil.Now,
		newID:      uuid.NewString,
	}
}

type LedgerQuery struct {
	Status ledger.StatusFilter
	Search string
	Sort   ledger.SortKey
}

type LedgerList struct {
	Ledgers []ledger.CustomerLedger `json:"ledgers"`
	Summary ledger.Summary          `json:"summary"` // over all customers, before filtering
	AsOf    time.Time               `json:"as_of"`
}

type PaymentResult struct {
	Allocations []ledger.Allocation    `json:"allocations"`
	Ledger      *ledger.CustomerLedger `json:"ledger"`
}

func (s *UtangService) snapshot(ctx context.Context) (*cache.Snapshot, error) {
	if snap, ok := s.Cache.Get(ctx); ok {
		metrics.LedgerCacheTotal.WithLabelValues("hit").Inc()
		return snap, nil
	}
	metrics.LedgerCacheTotal.WithLabelValues("miss").Inc()

	records, err := s.Credits.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := s.Customers.List(ctx)
	if err != nil {
		return nil, err
	}

	snap := &cache.Snapshot{Records: records, TakenAt: s.now()}
	for _, c := range customers {
		snap.Customers = append(snap.Customers, *c)
	}
	if err := s.Cache.Set(ctx, snap); err != nil {
		s.log.WithError(err).Warn("Failed to cache utang snapshot")
	}
	return snap, nil
}

func directory(customers []models.Customer) map[string]models.Customer {
	dir := make(map[string]models.Customer, len(customers))
	for _, c := range customers {
		dir[c.ID] = c
	}
	return dir
}

// AllLedgers consolidates every customer as of now
func (s *UtangService) AllLedgers(ctx context.Context) ([]ledger.CustomerLedger, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.Consolidate(snap.Records, directory(snap.Customers), s.now()), nil
}

// ListLedgers is the utang list screen: consolidated, filtered and sorted
func (s *UtangService) ListLedgers(ctx context.Context, q LedgerQuery) (*LedgerList, error) {
	all, err := s.AllLedgers(ctx)
	if err != nil {
		return nil, err
	}
	return &LedgerList{
		Ledgers: ledger.FilterAndSort(all, q.Status, q.Search, q.Sort),
		Summary: ledger.Summarize(all),
		AsOf:    s.now(),
	}, nil
}

// GetLedger reads one customer's ledger straight from the database
func (s *UtangService) GetLedger(ctx context.Context, customerID string) (*ledger.CustomerLedger, error) {
	if _, err := uuid.Parse(customerID); err != nil {
		return nil, fmt.Errorf("%w: %s", ledger.ErrUnknownCustomer, customerID)
	}
	records, err := s.Credits.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.customerLedger(ctx, customerID, records)
}

func (s *UtangService) customerLedger(ctx context.Context, customerID string, records []models.CreditRecord) (*ledger.CustomerLedger, error) {
	var dir map[string]models.Customer
	if c, err := s.Customers.Get(ctx, customerID); err == nil {
		dir = map[string]models.Customer{c.ID: *c}
	}
	l, ok := ledger.Find(ledger.Consolidate(records, dir, s.now()), customerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledger.ErrUnknownCustomer, customerID)
	}
	return l, nil
}

// RecordPayment applies a lump-sum payment to the customer's oldest records
// first. Allocation and insert happen under the customer's row locks, so two
// cashiers paying for the same customer cannot both spend the same balance.
func (s *UtangService) RecordPayment(ctx context.Context, customerID string, req *models.PaymentRequest, recordedBy string) (*PaymentResult, error) {
	result, err := s.recordPayment(ctx, customerID, req, recordedBy)
	metrics.UtangPaymentsTotal.WithLabelValues(paymentOutcome(err)).Inc()
	return result, err
}

func (s *UtangService) recordPayment(ctx context.Context, customerID string, req *models.PaymentRequest, recordedBy string) (*PaymentResult, error) {
	if err := ledger.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(customerID); err != nil {
		return nil, fmt.Errorf("%w: %s", ledger.ErrUnknownCustomer, customerID)
	}

	at := s.now()
	note := strings.TrimSpace(req.Note)
	var (
		allocations []ledger.Allocation
		updated     []models.CreditRecord
	)
	err := s.Credits.PayCustomer(ctx, customerID, recordedBy, func(records []models.CreditRecord) ([]models.Payment, error) {
		l, ok := ledger.Find(ledger.Consolidate(records, nil, at), customerID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ledger.ErrUnknownCustomer, customerID)
		}
		allocs, err := ledger.AllocatePayment(l, req.Amount, note, at)
		if err != nil {
			return nil, err
		}
		payments := ledger.Payments(allocs, s.newID)
		allocations = allocs
		updated = ledger.Apply(records, payments)
		return payments, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterPayment(ctx, customerID, req.Amount, allocations)

	l, err := s.customerLedger(ctx, customerID, updated)
	if err != nil {
		return nil, err
	}
	return &PaymentResult{Allocations: allocations, Ledger: l}, nil
}

// PayRecord applies a payment to one specific record instead of oldest-first
func (s *UtangService) PayRecord(ctx context.Context, recordID string, req *models.PaymentRequest, recordedBy string) (*PaymentResult, error) {
	result, err := s.payRecord(ctx, recordID, req, recordedBy)
	metrics.UtangPaymentsTotal.WithLabelValues(paymentOutcome(err)).Inc()
	return result, err
}

func (s *UtangService) payRecord(ctx context.Context, recordID string, req *models.PaymentRequest, recordedBy string) (*PaymentResult, error) {
	if err := ledger.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(recordID); err != nil {
		return nil, fmt.Errorf("credit record: %w", ErrNotFound)
	}

	at := s.now()
	var (
		allocation ledger.Allocation
		customerID string
	)
	err := s.Credits.PayRecord(ctx, recordID, recordedBy, func(records []models.CreditRecord) ([]models.Payment, error) {
		if len(records) == 0 {
			return nil, fmt.Errorf("credit record: %w", ErrNotFound)
		}
		a, err := ledger.AllocateToRecord(&records[0], req.Amount, strings.TrimSpace(req.Note), at)
		if err != nil {
			return nil, err
		}
		allocation = a
		customerID = records[0].CustomerID
		return []models.Payment{a.Payment(s.newID())}, nil
	})
	if err != nil {
		return nil, err
	}

	allocations := []ledger.Allocation{allocation}
	s.afterPayment(ctx, customerID, req.Amount, allocations)

	l, err := s.GetLedger(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &PaymentResult{Allocations: allocations, Ledger: l}, nil
}

func (s *UtangService) afterPayment(ctx context.Context, customerID string, amount decimal.Decimal, allocations []ledger.Allocation) {
	metrics.UtangAllocationsPerPayment.Observe(float64(len(allocations)))
	invalidateSnapshot(ctx, s.Cache, s.log)
	s.Events.Broadcast(realtime.EventUtangPayment, map[string]interface{}{
		"customer_id": customerID,
		"amount":      amount,
		"allocations": allocations,
	})
	s.log.WithFields(logrus.Fields{
		"customer_id": customerID,
		"amount":      amount.StringFixed(2),
		"records":     len(allocations),
	}).Info("Utang payment recorded")
}

func paymentOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ledger.ErrOverpayment):
		return "overpayment"
	case errors.Is(err, ledger.ErrUnknownCustomer), errors.Is(err, ErrNotFound):
		return "unknown_customer"
	default:
		return "error"
	}
}

// CreateRecord records utang that did not come from a POS sale
func (s *UtangService) CreateRecord(ctx context.Context, req *models.CreateCreditRecordRequest) (*models.CreditRecord, error) {
	if err := ledger.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(req.CustomerID); err != nil {
		return nil, fmt.Errorf("customer: %w", ErrNotFound)
	}
	customer, err := s.Customers.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, notFound(err, "customer")
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "Manual utang"
	}
	rec := &models.CreditRecord{
		ID:           s.newID(),
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		Principal:    req.Amount.Round(2),
		Description:  description,
		DueDate:      req.DueDate,
		Payments:     []models.Payment{},
	}
	if err := s.Credits.Create(ctx, rec); err != nil {
		return nil, err
	}

	invalidateSnapshot(ctx, s.Cache, s.log)
	s.Events.Broadcast(realtime.EventUtangRecord, rec)
	s.log.WithFields(logrus.Fields{
		"customer_id": rec.CustomerID,
		"principal":   rec.Principal.StringFixed(2),
	}).Info("Credit record created")

	return rec, nil
}

// Statement renders the customer's statement of account. When an archive is
// configured a copy is uploaded; upload failures are logged, not returned.
func (s *UtangService) Statement(ctx context.Context, customerID string) ([]byte, error) {
	l, err := s.GetLedger(ctx, customerID)
	if err != nil {
		return nil, err
	}

	at := s.now()
	pdf, err := s.Statements.Generate(l, at)
	if err != nil {
		return nil, err
	}

	if s.Archive != nil {
		key, err := s.Archive.PutStatement(ctx, customerID, at, pdf)
		if err != nil {
			s.log.WithError(err).WithField("customer_id", customerID).Warn("Failed to archive statement")
		} else {
			s.log.WithField("key", key).Debug("Statement archived")
		}
	}
	return pdf, nil
}
