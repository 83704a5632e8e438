package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/checkoutpos/billing-api/internal/domain/entity"
	domainRepo "github.com/checkoutpos/billing-api/internal/domain/repository"
	"github.com/checkoutpos/billing-api/pkg/apperror"
	"github.com/checkoutpos/billing-api/pkg/change"
	"github.com/checkoutpos/billing-api/pkg/pagination"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATEs that make a commit worth retrying.
const (
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

type billRepository struct {
	db *gorm.DB
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *gorm.DB) domainRepo.BillRepository {
	return &billRepository{db: db}
}

// CreateAtomic writes the bill and its items, then applies every stock
// decrement conditionally on current availability, in one transaction.
// The conditional UPDATE re-checks stock at commit time, so two sales
// racing over the same product serialize here instead of overselling.
func (r *billRepository) CreateAtomic(ctx context.Context, bill *entity.Bill, decrements []domainRepo.StockDecrement, drawerTake change.Allocation) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(bill).Error; err != nil {
			return err
		}

		for _, d := range decrements {
			result := tx.Model(&entity.Product{}).
				Where("id = ? AND available_stocks >= ?", d.ProductID, d.Quantity).
				Update("available_stocks", gorm.Expr("available_stocks - ?", d.Quantity))

			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				// Stock was consumed between validation and commit.
				return apperror.NewInsufficientStockError(d.Code)
			}
		}

		for value, count := range drawerTake {
			if count == 0 {
				continue
			}
			result := tx.Model(&entity.Denomination{}).
				Where("value = ? AND available_count >= ?", value, count).
				Update("available_count", gorm.Expr("available_count - ?", count))

			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				// The drawer was drained concurrently; the caller must
				// reallocate against the drawer's current state.
				return domainRepo.ErrTxConflict
			}
		}

		return nil
	})

	return classifyTxError(err)
}

// classifyTxError maps retryable PostgreSQL failures onto ErrTxConflict
// and passes everything else through.
func classifyTxError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == serializationFailure || pgErr.Code == deadlockDetected {
			return domainRepo.ErrTxConflict
		}
	}
	return err
}

func (r *billRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	var bill entity.Bill
	err := r.db.WithContext(ctx).
		Preload("Customer").
		First(&bill, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &bill, err
}

func (r *billRepository) GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	var bill entity.Bill
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		First(&bill, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &bill, err
}

func (r *billRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, params *pagination.PaginationParams) ([]entity.Bill, int64, error) {
	var bills []entity.Bill
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Bill{}).
		Where("customer_id = ?", customerID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Order("created_at DESC").
		Find(&bills).Error

	return bills, total, err
}
