package services

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/shopspring/decimal"

	"sari-backend/internal/ledger"
	"sari-backend/internal/models"
	"sari-backend/internal/timeutil"
)

// StatementService renders a customer's utang as a printable statement of account
type StatementService struct {
	StoreName    string
	StoreAddress string
}

func NewStatementService(storeName, storeAddress string) *StatementService {
	if storeName == "" {
		storeName = "Sari-Sari Store"
	}
	return &StatementService{StoreName: storeName, StoreAddress: storeAddress}
}

func peso(d decimal.Decimal) string {
	return "PHP " + d.StringFixed(2)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// Generate builds the PDF for l as of at
func (s *StatementService) Generate(l *ledger.CustomerLedger, at time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, tr(s.StoreName), "", 1, "C", false, 0, "")
	if s.StoreAddress != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(190, 5, tr(s.StoreAddress), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Statement of Account", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("As of: %s", timeutil.ToLocal(at).Format(timeutil.StampLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Customer
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Customer", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, tr("Name: "+l.CustomerName), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Phone: "+l.CustomerPhone, "RB", 1, "L", false, 0, "")
	if l.CustomerAddress != "" {
		pdf.CellFormat(190, 7, tr("Address: "+truncate(l.CustomerAddress, 80)), "LRB", 1, "L", false, 0, "")
	}
	pdf.Ln(5)

	// Records
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Utang Records", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(25, 7, "Date", "1", 0, "C", true, 0, "")
	pdf.CellFormat(65, 7, "Description", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Due", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Amount", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Paid", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Balance", "1", 1, "C", true, 0, "")

	records := make([]models.CreditRecord, len(l.Records))
	copy(records, l.Records)
	sort.SliceStable(records, func(i, j int) bool { return records[i].CreatedAt.Before(records[j].CreatedAt) })

	pdf.SetFont("Arial", "", 9)
	var payments []models.Payment
	for _, rec := range records {
		due := "-"
		if rec.DueDate != nil {
			due = timeutil.ToLocal(*rec.DueDate).Format(timeutil.ShortDateLayout)
		}
		pdf.CellFormat(25, 6, timeutil.ToLocal(rec.CreatedAt).Format(timeutil.ShortDateLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(65, 6, tr(truncate(rec.Description, 40)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, due, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, rec.Principal.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, rec.PaidToDate().StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, rec.Balance().StringFixed(2), "1", 1, "R", false, 0, "")
		payments = append(payments, rec.Payments...)
	}
	pdf.Ln(5)

	// Totals
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 8, "Total Utang: "+peso(l.TotalPrincipal), "1", 0, "C", false, 0, "")
	pdf.CellFormat(95, 8, "Total Paid: "+peso(l.TotalPaid), "1", 1, "C", false, 0, "")

	if l.RemainingBalance.IsPositive() {
		pdf.SetFillColor(255, 200, 200)
	} else {
		pdf.SetFillColor(200, 255, 200)
	}
	pdf.SetFont("Arial", "B", 14)
	balanceText := "Balance Due: " + peso(l.RemainingBalance)
	if !l.RemainingBalance.IsPositive() {
		balanceText = "FULLY PAID"
	} else if l.IsOverdue {
		balanceText += fmt.Sprintf(" (OVERDUE %d days)", l.DaysOverdue)
	}
	pdf.CellFormat(190, 10, balanceText, "1", 1, "C", true, 0, "")

	if len(payments) > 0 {
		sort.SliceStable(payments, func(i, j int) bool { return payments[i].Date.Before(payments[j].Date) })

		pdf.Ln(5)
		pdf.SetFont("Arial", "B", 12)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(190, 8, "Payment History", "1", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(200, 200, 200)
		pdf.CellFormat(50, 7, "Date", "1", 0, "C", true, 0, "")
		pdf.CellFormat(50, 7, "Amount", "1", 0, "C", true, 0, "")
		pdf.CellFormat(90, 7, "Note", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		for _, p := range payments {
			pdf.CellFormat(50, 6, timeutil.ToLocal(p.Date).Format(timeutil.DateLayout), "1", 0, "C", false, 0, "")
			pdf.CellFormat(50, 6, peso(p.Amount), "1", 0, "R", false, 0, "")
			pdf.CellFormat(90, 6, tr(truncate(p.Note, 50)), "1", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
