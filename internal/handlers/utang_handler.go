package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"sari-backend/internal/ledger"
	"sari-backend/internal/middleware"
	"sari-backend/internal/models"
	"sari-backend/internal/services"
	"sari-backend/pkg/utils"
)

// UtangAPI is the part of *services.UtangService the handler uses
type UtangAPI interface {
	ListLedgers(ctx context.Context, q services.LedgerQuery) (*services.LedgerList, error)
	GetLedger(ctx context.Context, customerID string) (*ledger.CustomerLedger, error)
	RecordPayment(ctx context.Context, customerID string, req *models.PaymentRequest, recordedBy string) (*services.PaymentResult, error)
	PayRecord(ctx context.Context, recordID string, req *models.PaymentRequest, recordedBy string) (*services.PaymentResult, error)
	CreateRecord(ctx context.Context, req *models.CreateCreditRecordRequest) (*models.CreditRecord, error)
	Statement(ctx context.Context, customerID string) ([]byte, error)
}

type UtangHandler struct {
	Service UtangAPI
	log     *logrus.Entry
}

func NewUtangHandler(s UtangAPI, logger *logrus.Logger) *UtangHandler {
	return &UtangHandler{Service: s, log: logger.WithField("component", "utang")}
}

// ListLedgers handles GET /api/utang?status=&q=&sort=
func (h *UtangHandler) ListLedgers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	status, err := ledger.ParseStatusFilter(query.Get("status"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	sortKey, err := ledger.ParseSortKey(query.Get("sort"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	list, err := h.Service.ListLedgers(r.Context(), services.LedgerQuery{
		Status: status,
		Search: query.Get("q"),
		Sort:   sortKey,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if list.Ledgers == nil {
		list.Ledgers = []ledger.CustomerLedger{}
	}

	utils.JSON(w, http.StatusOK, list)
}

// GetLedger handles GET /api/utang/customers/{id}
func (h *UtangHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	l, err := h.Service.GetLedger(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	utils.JSON(w, http.StatusOK, l)
}

// RecordPayment handles POST /api/utang/customers/{id}/payments
func (h *UtangHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	result, err := h.Service.RecordPayment(r.Context(), mux.Vars(r)["id"], &req, userID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	utils.JSON(w, http.StatusCreated, result)
}

// PayRecord handles POST /api/utang/records/{id}/payments
func (h *UtangHandler) PayRecord(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	result, err := h.Service.PayRecord(r.Context(), mux.Vars(r)["id"], &req, userID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	utils.JSON(w, http.StatusCreated, result)
}

// CreateRecord handles POST /api/utang/records
func (h *UtangHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCreditRecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := h.Service.CreateRecord(r.Context(), &req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	utils.JSON(w, http.StatusCreated, rec)
}

// Statement handles GET /api/utang/customers/{id}/statement.pdf
func (h *UtangHandler) Statement(w http.ResponseWriter, r *http.Request) {
	customerID := mux.Vars(r)["id"]
	pdf, err := h.Service.Statement(r.Context(), customerID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="statement-%s.pdf"`, customerID))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
