package repository

import (
	"context"

	"github.com/checkoutpos/billing-api/internal/domain/entity"
	domainRepo "github.com/checkoutpos/billing-api/internal/domain/repository"
	"github.com/checkoutpos/billing-api/pkg/change"
	"gorm.io/gorm"
)

type denominationRepository struct {
	db *gorm.DB
}

// NewDenominationRepository creates a new denomination repository
func NewDenominationRepository(db *gorm.DB) domainRepo.DenominationRepository {
	return &denominationRepository{db: db}
}

func (r *denominationRepository) List(ctx context.Context) ([]entity.Denomination, error) {
	var denominations []entity.Denomination
	err := r.db.WithContext(ctx).
		Order("value DESC").
		Find(&denominations).Error
	return denominations, err
}

func (r *denominationRepository) Ledger(ctx context.Context) (change.Ledger, error) {
	denominations, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	ledger := make(change.Ledger, len(denominations))
	for _, d := range denominations {
		ledger[d.Value] = d.AvailableCount
	}
	return ledger, nil
}

// Replace swaps the drawer contents for the given counts in one
// transaction, so a drawer refill never interleaves with a sale's
// conditional decrements.
func (r *denominationRepository) Replace(ctx context.Context, counts map[int64]int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&entity.Denomination{}).Error; err != nil {
			return err
		}
		if len(counts) == 0 {
			return nil
		}
		denominations := make([]entity.Denomination, 0, len(counts))
		for value, count := range counts {
			denominations = append(denominations, entity.Denomination{Value: value, AvailableCount: count})
		}
		return tx.Create(&denominations).Error
	})
}
