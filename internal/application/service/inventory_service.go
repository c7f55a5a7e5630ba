package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/repository"
	"github.com/sangkips/investify-pos/pkg/apperror"
	"github.com/sangkips/investify-pos/pkg/pagination"
)

// InventoryService is the read-only lookup of products and customers. Stock
// read here is a point-in-time view; commits re-read it in the transaction.
type InventoryService struct {
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
}

// NewInventoryService creates a new inventory service
func NewInventoryService(productRepo repository.ProductRepository, customerRepo repository.CustomerRepository) *InventoryService {
	return &InventoryService{
		productRepo:  productRepo,
		customerRepo: customerRepo,
	}
}

// ListProducts lists the products of the business in ctx
func (s *InventoryService) ListProducts(ctx context.Context, params *repository.ProductFilterParams) (*pagination.PaginatedResult[entity.Product], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	products, total, err := s.productRepo.List(ctx, params)
	if err != nil {
		return nil, storeError(err)
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(products, pag), nil
}

// GetProduct retrieves a product by ID
func (s *InventoryService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// GetCustomer retrieves a customer by ID
func (s *InventoryService) GetCustomer(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

const maxCustomerResults = 50

// SearchCustomers finds customers by name or phone for the customer step
func (s *InventoryService) SearchCustomers(ctx context.Context, query string, limit int) ([]entity.Customer, error) {
	if limit <= 0 || limit > maxCustomerResults {
		limit = maxCustomerResults
	}
	customers, err := s.customerRepo.Search(ctx, strings.TrimSpace(query), limit)
	if err != nil {
		return nil, storeError(err)
	}
	if customers == nil {
		customers = []entity.Customer{}
	}
	return customers, nil
}
