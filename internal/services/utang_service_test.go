package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sari-backend/internal/cache"
	"sari-backend/internal/ledger"
	"sari-backend/internal/models"
	"sari-backend/internal/realtime"
)

const (
	juanID  = "11111111-1111-1111-1111-111111111111"
	mariaID = "22222222-2222-2222-2222-222222222222"
	pedroID = "33333333-3333-3333-3333-333333333333"

	r1 = "aaaaaaaa-0000-0000-0000-000000000001"
	r2 = "aaaaaaaa-0000-0000-0000-000000000002"
	r3 = "aaaaaaaa-0000-0000-0000-000000000003"
	r4 = "aaaaaaaa-0000-0000-0000-000000000004"
)

var (
	jan1    = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	jan5    = time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC)
	testNow = time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
)

type utangFixture struct {
	svc       *UtangService
	credits   *memCredits
	customers *memCustomers
	events    *fakeEvents
	mr        *miniredis.Miniredis
}

func newUtangFixture(t *testing.T) *utangFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	customers := newMemCustomers(
		models.Customer{ID: juanID, Name: "Juan dela Cruz", Phone: "0917-555-0101"},
		models.Customer{ID: mariaID, Name: "Maria Santos", Phone: "0918-555-0202"},
		models.Customer{ID: pedroID, Name: "Pedro Reyes"},
	)
	credits := &memCredits{}
	events := &fakeEvents{}

	svc := NewUtangService(credits, customers, cache.NewLedgerCache(client, time.Minute), events,
		NewStatementService("Tindahan ni Aling Nena", "Brgy. San Isidro"), nil, quietLogger())
	svc.now = func() time.Time { return testNow }
	n := 0
	var mu sync.Mutex
	svc.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("00000000-0000-0000-0000-%012d", n)
	}

	return &utangFixture{svc: svc, credits: credits, customers: customers, events: events, mr: mr}
}

func (f *utangFixture) addRecord(id, customerID, principal string, created time.Time, due *time.Time, paid ...string) {
	rec := models.CreditRecord{
		ID:           id,
		CustomerID:   customerID,
		CustomerName: "captured name",
		Principal:    d(principal),
		CreatedAt:    created,
		DueDate:      due,
	}
	for i, p := range paid {
		rec.Payments = append(rec.Payments, models.Payment{
			ID:             fmt.Sprintf("%s-p%d", id, i),
			CreditRecordID: id,
			Amount:         d(p),
			Date:           created.Add(time.Hour),
		})
	}
	f.credits.records = append(f.credits.records, rec)
}

// Juan owes R2 40 (15 paid) from Jan 5 and R1 90 from Jan 1: 115 outstanding.
func (f *utangFixture) seedSample() {
	f.addRecord(r2, juanID, "40", jan5, nil, "15")
	f.addRecord(r1, juanID, "90", jan1, nil)
}

func TestRecordPayment_OldestFirst(t *testing.T) {
	f := newUtangFixture(t)
	f.seedSample()

	res, err := f.svc.RecordPayment(context.Background(), juanID, &models.PaymentRequest{Amount: d("100"), Note: "cash"}, "")
	require.NoError(t, err)

	require.Len(t, res.Allocations, 2)
	assert.Equal(t, r1, res.Allocations[0].CreditRecordID)
	assert.True(t, res.Allocations[0].Amount.Equal(d("90")))
	assert.Equal(t, r2, res.Allocations[1].CreditRecordID)
	assert.True(t, res.Allocations[1].Amount.Equal(d("10")))

	assert.True(t, res.Ledger.RemainingBalance.Equal(d("15")))
	assert.Equal(t, models.CreditStatusPartial, res.Ledger.Status)
	assert.Equal(t, "Juan dela Cruz", res.Ledger.CustomerName)

	// persisted
	l, err := f.svc.GetLedger(context.Background(), juanID)
	require.NoError(t, err)
	assert.True(t, l.RemainingBalance.Equal(d("15")))

	assert.Equal(t, []string{realtime.EventUtangPayment}, f.events.types())
}

func TestRecordPayment_FullSettlement(t *testing.T) {
	f := newUtangFixture(t)
	f.addRecord(r2, juanID, "40", jan5, nil)
	f.addRecord(r1, juanID, "90", jan1, nil)

	res, err := f.svc.RecordPayment(context.Background(), juanID, &models.PaymentRequest{Amount: d("130")}, "")
	require.NoError(t, err)
	assert.True(t, res.Ledger.RemainingBalance.IsZero())
	assert.Equal(t, models.CreditStatusPaid, res.Ledger.Status)
}

func TestRecordPayment_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		customerID string
		amount     string
		want       error
	}{
		{"overpayment", juanID, "200", ledger.ErrOverpayment},
		{"zero", juanID, "0", ledger.ErrInvalidAmount},
		{"negative", juanID, "-5", ledger.ErrInvalidAmount},
		{"sub-centavo", juanID, "0.001", ledger.ErrInvalidAmount},
		{"three decimals", juanID, "90.005", ledger.ErrInvalidAmount},
		{"no records", pedroID, "10", ledger.ErrUnknownCustomer},
		{"not a uuid", "nobody", "10", ledger.ErrUnknownCustomer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUtangFixture(t)
			f.seedSample()

			_, err := f.svc.RecordPayment(context.Background(), tt.customerID, &models.PaymentRequest{Amount: d(tt.amount)}, "")
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			// nothing persisted
			l, err := f.svc.GetLedger(context.Background(), juanID)
			require.NoError(t, err)
			assert.True(t, l.RemainingBalance.Equal(d("115")))
			assert.Empty(t, f.events.types())
		})
	}
}

func TestRecordPayment_SettledCustomer(t *testing.T) {
	f := newUtangFixture(t)
	f.addRecord(r1, juanID, "50", jan1, nil, "50")

	_, err := f.svc.RecordPayment(context.Background(), juanID, &models.PaymentRequest{Amount: d("1")}, "")
	assert.ErrorIs(t, err, ledger.ErrUnknownCustomer)
}

func TestRecordPayment_ConcurrentNeverOverpays(t *testing.T) {
	f := newUtangFixture(t)
	f.addRecord(r1, juanID, "100", jan1, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.RecordPayment(context.Background(), juanID, &models.PaymentRequest{Amount: d("30")}, "")
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ledger.ErrOverpayment)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	l, err := f.svc.GetLedger(context.Background(), juanID)
	require.NoError(t, err)
	assert.True(t, l.RemainingBalance.Equal(d("10")))
}

func TestPayRecord(t *testing.T) {
	f := newUtangFixture(t)
	f.seedSample()

	// paying the newer record directly skips oldest-first
	res, err := f.svc.PayRecord(context.Background(), r2, &models.PaymentRequest{Amount: d("25")}, "")
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)
	assert.Equal(t, r2, res.Allocations[0].CreditRecordID)
	assert.True(t, res.Allocations[0].BalanceAfter.IsZero())
	assert.True(t, res.Ledger.RemainingBalance.Equal(d("90")))

	_, err = f.svc.PayRecord(context.Background(), r1, &models.PaymentRequest{Amount: d("91")}, "")
	assert.ErrorIs(t, err, ledger.ErrOverpayment)

	_, err = f.svc.PayRecord(context.Background(), r1, &models.PaymentRequest{Amount: d("0.001")}, "")
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	_, err = f.svc.PayRecord(context.Background(), r1, &models.PaymentRequest{Amount: d("10.125")}, "")
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	l, err := f.svc.GetLedger(context.Background(), juanID)
	require.NoError(t, err)
	assert.True(t, l.RemainingBalance.Equal(d("90")))
}

func TestListLedgers_FilterSortAndCache(t *testing.T) {
	f := newUtangFixture(t)
	due := jan5
	f.seedSample()
	f.addRecord(r3, mariaID, "500", jan5.Add(time.Hour), &due)
	f.addRecord(r4, pedroID, "20", jan1, nil, "20")
	ctx := context.Background()

	list, err := f.svc.ListLedgers(ctx, LedgerQuery{Status: ledger.FilterAll, Sort: ledger.SortByAmount})
	require.NoError(t, err)
	require.Len(t, list.Ledgers, 3)
	assert.Equal(t, mariaID, list.Ledgers[0].CustomerID)
	assert.True(t, list.Ledgers[0].IsOverdue)
	assert.Equal(t, juanID, list.Ledgers[1].CustomerID)
	assert.Equal(t, 3, list.Summary.Customers)
	assert.Equal(t, 1, list.Summary.Overdue)
	assert.True(t, list.Summary.TotalOutstanding.Equal(d("615")))
	assert.True(t, f.mr.Exists(cache.SnapshotKey))

	unpaid, err := f.svc.ListLedgers(ctx, LedgerQuery{Status: ledger.FilterUnpaid, Sort: ledger.SortByAmount})
	require.NoError(t, err)
	require.Len(t, unpaid.Ledgers, 1)
	assert.Equal(t, mariaID, unpaid.Ledgers[0].CustomerID)

	search, err := f.svc.ListLedgers(ctx, LedgerQuery{Status: ledger.FilterAll, Search: "0917", Sort: ledger.SortByName})
	require.NoError(t, err)
	require.Len(t, search.Ledgers, 1)
	assert.Equal(t, juanID, search.Ledgers[0].CustomerID)

	// a payment invalidates the cached snapshot
	_, err = f.svc.RecordPayment(ctx, mariaID, &models.PaymentRequest{Amount: d("500")}, "")
	require.NoError(t, err)
	assert.False(t, f.mr.Exists(cache.SnapshotKey))

	list, err = f.svc.ListLedgers(ctx, LedgerQuery{Status: ledger.FilterPaid, Sort: ledger.SortByName})
	require.NoError(t, err)
	require.Len(t, list.Ledgers, 2)
	assert.Equal(t, mariaID, list.Ledgers[0].CustomerID)
	assert.Equal(t, pedroID, list.Ledgers[1].CustomerID)
}

func TestCreateRecord(t *testing.T) {
	f := newUtangFixture(t)
	ctx := context.Background()

	rec, err := f.svc.CreateRecord(ctx, &models.CreateCreditRecordRequest{CustomerID: mariaID, Amount: d("75.50")})
	require.NoError(t, err)
	assert.Equal(t, "Maria Santos", rec.CustomerName)
	assert.Equal(t, "Manual utang", rec.Description)

	l, err := f.svc.GetLedger(ctx, mariaID)
	require.NoError(t, err)
	assert.True(t, l.RemainingBalance.Equal(d("75.50")))
	assert.Equal(t, models.CreditStatusUnpaid, l.Status)

	_, err = f.svc.CreateRecord(ctx, &models.CreateCreditRecordRequest{CustomerID: mariaID, Amount: d("0")})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	_, err = f.svc.CreateRecord(ctx, &models.CreateCreditRecordRequest{CustomerID: mariaID, Amount: d("12.345")})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = f.svc.CreateRecord(ctx, &models.CreateCreditRecordRequest{CustomerID: "44444444-4444-4444-4444-444444444444", Amount: d("1")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatement(t *testing.T) {
	f := newUtangFixture(t)
	f.seedSample()
	archive := &fakeArchive{}
	f.svc.Archive = archive

	pdf, err := f.svc.Statement(context.Background(), juanID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))
	require.Len(t, archive.keys, 1)
	assert.Contains(t, archive.keys[0], juanID)

	// archive failures do not fail the download
	f.svc.Archive = &fakeArchive{err: errors.New("bucket unreachable")}
	_, err = f.svc.Statement(context.Background(), juanID)
	assert.NoError(t, err)

	_, err = f.svc.Statement(context.Background(), pedroID)
	assert.ErrorIs(t, err, ledger.ErrUnknownCustomer)
}
