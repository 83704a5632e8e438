package service

import (
	"context"

	"github.com/checkoutpos/billing-api/internal/domain/entity"
	"github.com/checkoutpos/billing-api/internal/domain/repository"
	"github.com/checkoutpos/billing-api/pkg/apperror"
	"github.com/checkoutpos/billing-api/pkg/change"
)

// DrawerService manages the persisted cash drawer that backs change
// allocation when a sale does not supply its own denominations.
type DrawerService struct {
	denomRepo repository.DenominationRepository
}

// NewDrawerService creates a new drawer service
func NewDrawerService(denomRepo repository.DenominationRepository) *DrawerService {
	return &DrawerService{denomRepo: denomRepo}
}

// ListDenominations returns the drawer contents, largest value first.
func (s *DrawerService) ListDenominations(ctx context.Context) ([]entity.Denomination, error) {
	return s.denomRepo.List(ctx)
}

// ReplaceDrawer overwrites the drawer with the given counts. Values must
// be positive and counts non-negative.
func (s *DrawerService) ReplaceDrawer(ctx context.Context, counts change.Ledger) error {
	for value, count := range counts {
		if value <= 0 {
			return apperror.NewBadRequestError("Denomination values must be positive")
		}
		if count < 0 {
			return apperror.NewBadRequestError("Denomination counts must not be negative")
		}
	}
	return s.denomRepo.Replace(ctx, counts)
}
