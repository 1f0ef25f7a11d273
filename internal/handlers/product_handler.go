package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"sari-backend/internal/models"
	"sari-backend/internal/services"
	"sari-backend/pkg/utils"
)

type ProductHandler struct {
	Service *services.ProductService
	log     *logrus.Entry
}

func NewProductHandler(s *services.ProductService, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{Service: s, log: logger.WithField("component", "products")}
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.Service.CreateProduct(r.Context(), &req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	utils.JSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.Service.GetProduct(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	utils.JSON(w, http.StatusOK, product)
}

// GetByBarcode handles GET /api/products/barcode/{code} for the scanner
func (h *ProductHandler) GetByBarcode(w http.ResponseWriter, r *http.Request) {
	product, err := h.Service.GetByBarcode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	utils.JSON(w, http.StatusOK, product)
}

// ListProducts handles GET /api/products, or only low stock with ?low_stock=true
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []*models.Product
		err      error
	)
	if r.URL.Query().Get("low_stock") == "true" {
		products, err = h.Service.ListLowStock(r.Context())
	} else {
		products, err = h.Service.ListProducts(r.Context())
	}
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if products == nil {
		products = []*models.Product{}
	}

	utils.JSON(w, http.StatusOK, products)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.Service.UpdateProduct(r.Context(), mux.Vars(r)["id"], &req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	utils.JSON(w, http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteProduct(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
