package request

import "github.com/shopspring/decimal"

// CreateProductRequest represents a product creation request
type CreateProductRequest struct {
	Code            string          `json:"product_id" binding:"required,max=100"`
	Name            string          `json:"name" binding:"required,min=2,max=255"`
	UnitPrice       decimal.Decimal `json:"price" binding:"required"`
	TaxPercentage   decimal.Decimal `json:"tax_percentage"`
	AvailableStocks int             `json:"available_stocks" binding:"min=0"`
}

// ProductFilterRequest represents product filter parameters
type ProductFilterRequest struct {
	Search  string `form:"search"`
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
}
