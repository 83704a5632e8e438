package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/checkoutpos/billing-api/internal/domain/entity"
	"github.com/checkoutpos/billing-api/pkg/change"
	"github.com/checkoutpos/billing-api/pkg/pagination"
)

// ErrTxConflict signals a serialization or deadlock failure inside the
// atomic commit. The caller may retry the whole compute-and-commit with
// re-validated stock; it is the only retryable failure in this core.
var ErrTxConflict = errors.New("transaction conflict")

// StockDecrement is one product's stock deduction for a committing sale.
type StockDecrement struct {
	ProductID uuid.UUID
	Code      string
	Quantity  int
}

// BillRepository defines the interface for bill data operations
type BillRepository interface {
	// CreateAtomic persists the bill with its items, decrements each
	// product's stock conditionally on availability, and, when drawerTake
	// is non-empty, deducts the allocated change from the persisted
	// drawer - all in one transaction. Either every effect is visible or
	// none is. An unsatisfiable decrement fails the commit with
	// InsufficientStock.
	CreateAtomic(ctx context.Context, bill *entity.Bill, decrements []StockDecrement, drawerTake change.Allocation) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Bill, error)
	GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Bill, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params *pagination.PaginationParams) ([]entity.Bill, int64, error)
}
