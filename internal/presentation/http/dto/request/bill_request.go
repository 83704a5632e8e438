package request

import "github.com/shopspring/decimal"

// BillItemRequest is one cart line in a sale request.
type BillItemRequest struct {
	ProductCode string `json:"product_id" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required,min=1"`
}

// DenominationRequest is one drawer row supplied with a sale or a
// drawer refill.
type DenominationRequest struct {
	Value int64 `json:"value" binding:"required,min=1"`
	Count int   `json:"count" binding:"min=0"`
}

// CreateBillRequest represents a sale request. Denominations, when
// present, describe the drawer state for this transaction; omitted, the
// persisted drawer is used.
type CreateBillRequest struct {
	CustomerEmail string                `json:"customer_email" binding:"required,email"`
	Items         []BillItemRequest     `json:"items" binding:"required,min=1,dive"`
	PaidAmount    decimal.Decimal       `json:"paid_amount" binding:"required"`
	Denominations []DenominationRequest `json:"denominations" binding:"omitempty,dive"`
}

// ReplaceDrawerRequest swaps the persisted drawer contents.
type ReplaceDrawerRequest struct {
	Denominations []DenominationRequest `json:"denominations" binding:"required,min=1,dive"`
}
