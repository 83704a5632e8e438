package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/checkoutpos/billing-api/internal/domain/entity"
	"github.com/checkoutpos/billing-api/pkg/pagination"
)

// ProductRepository defines the interface for product data operations.
// Stock is read here but only ever decremented through BillRepository's
// atomic commit, so a failed sale can never leave a partial decrement.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	GetByCode(ctx context.Context, code string) (*entity.Product, error)
	// GetByCodes retrieves multiple products by code in a single query (prevents N+1)
	GetByCodes(ctx context.Context, codes []string) ([]entity.Product, error)
	List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Product, int64, error)
}
