package service

import (
	"context"

	"github.com/checkoutpos/billing-api/internal/domain/entity"
	"github.com/checkoutpos/billing-api/internal/domain/repository"
	"github.com/checkoutpos/billing-api/pkg/apperror"
	"github.com/checkoutpos/billing-api/pkg/money"
	"github.com/checkoutpos/billing-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// ProductService manages the product catalog.
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new product service
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// CreateProductInput represents the create product input
type CreateProductInput struct {
	Code            string
	Name            string
	UnitPrice       decimal.Decimal
	TaxPercentage   decimal.Decimal
	AvailableStocks int
}

// CreateProduct registers a catalog entry. Price and tax rate are
// quantized on the way in; everything downstream works on the stored
// integer forms.
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*entity.Product, error) {
	if input.UnitPrice.IsNegative() {
		return nil, apperror.NewBadRequestError("Unit price must not be negative")
	}
	if input.TaxPercentage.IsNegative() {
		return nil, apperror.NewBadRequestError("Tax percentage must not be negative")
	}
	if input.AvailableStocks < 0 {
		return nil, apperror.NewBadRequestError("Available stock must not be negative")
	}

	existing, err := s.productRepo.GetByCode(ctx, input.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Product with code " + input.Code + " already exists")
	}

	product := &entity.Product{
		Code:            input.Code,
		Name:            input.Name,
		UnitPrice:       money.FromDecimal(input.UnitPrice).Minor(),
		TaxRate:         money.BasisPoints(input.TaxPercentage),
		AvailableStocks: input.AvailableStocks,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// GetProductByCode fetches a single product by its code.
func (s *ProductService) GetProductByCode(ctx context.Context, code string) (*entity.Product, error) {
	product, err := s.productRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewProductNotFoundError(code)
	}
	return product, nil
}

// ListProducts returns the catalog, paginated, optionally filtered by a
// search term over code and name.
func (s *ProductService) ListProducts(ctx context.Context, params *pagination.PaginationParams, search string) (*pagination.PaginatedResult[entity.Product], error) {
	products, total, err := s.productRepo.List(ctx, params, search)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(products, pag), nil
}
