package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"sari-backend/internal/middleware"
	"sari-backend/internal/models"
	"sari-backend/internal/services"
	"sari-backend/pkg/utils"
)

type SaleHandler struct {
	Service *services.SaleService
	log     *logrus.Entry
}

func NewSaleHandler(s *services.SaleService, logger *logrus.Logger) *SaleHandler {
	return &SaleHandler{Service: s, log: logger.WithField("component", "sales")}
}

// Checkout handles POST /api/sales
func (h *SaleHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cashierID, _ := middleware.GetUserIDFromContext(r.Context())
	result, err := h.Service.Checkout(r.Context(), &req, cashierID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	utils.JSON(w, http.StatusCreated, result)
}

func (h *SaleHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	sale, err := h.Service.GetSale(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	utils.JSON(w, http.StatusOK, sale)
}

// ListSales handles GET /api/sales?limit=&offset=
func (h *SaleHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	sales, err := h.Service.ListSales(r.Context(), limit, offset)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if sales == nil {
		sales = []*models.Sale{}
	}

	utils.JSON(w, http.StatusOK, sales)
}
