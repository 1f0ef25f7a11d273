package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"sari-backend/internal/models"
)

type ProductService struct {
	Repo ProductStore
}

func NewProductService(repo ProductStore) *ProductService {
	return &ProductService{Repo: repo}
}

func validateProduct(req *models.ProductRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return invalid("name is required")
	}
	if req.Price.IsNegative() {
		return invalid("price cannot be negative")
	}
	if req.Stock < 0 || req.MinStock < 0 {
		return invalid("stock cannot be negative")
	}
	return nil
}

func (s *ProductService) CreateProduct(ctx context.Context, req *models.ProductRequest) (*models.Product, error) {
	if err := validateProduct(req); err != nil {
		return nil, err
	}

	p := &models.Product{ID: uuid.NewString()}
	applyProductRequest(p, req)

	if err := s.Repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func applyProductRequest(p *models.Product, req *models.ProductRequest) {
	p.Name = strings.TrimSpace(req.Name)
	p.Category = strings.TrimSpace(req.Category)
	p.Price = req.Price.Round(2)
	p.Stock = req.Stock
	p.MinStock = req.MinStock
	p.Barcode = strings.TrimSpace(req.Barcode)
	p.Supplier = strings.TrimSpace(req.Supplier)
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if err := checkID(id, "product"); err != nil {
		return nil, err
	}
	p, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

func (s *ProductService) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	if strings.TrimSpace(barcode) == "" {
		return nil, invalid("barcode is required")
	}
	p, err := s.Repo.GetByBarcode(ctx, strings.TrimSpace(barcode))
	if err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

func (s *ProductService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return s.Repo.List(ctx)
}

func (s *ProductService) ListLowStock(ctx context.Context) ([]*models.Product, error) {
	return s.Repo.ListLowStock(ctx)
}

func (s *ProductService) UpdateProduct(ctx context.Context, id string, req *models.ProductRequest) (*models.Product, error) {
	if err := checkID(id, "product"); err != nil {
		return nil, err
	}
	if err := validateProduct(req); err != nil {
		return nil, err
	}
	p, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	applyProductRequest(p, req)

	if err := s.Repo.Update(ctx, p); err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := checkID(id, "product"); err != nil {
		return err
	}
	if _, err := s.Repo.Get(ctx, id); err != nil {
		return notFound(err, "product")
	}
	return s.Repo.Delete(ctx, id)
}
