package repository

import (
	"context"

	"github.com/checkoutpos/billing-api/internal/domain/entity"
	"github.com/checkoutpos/billing-api/pkg/change"
)

// DenominationRepository defines the interface for cash drawer state.
// Counts only ever decrease through BillRepository.CreateAtomic;
// replacing them wholesale is the drawer-refill collaborator's job.
type DenominationRepository interface {
	List(ctx context.Context) ([]entity.Denomination, error)
	// Ledger materializes the drawer into the allocator's input form.
	Ledger(ctx context.Context) (change.Ledger, error)
	// Replace swaps the drawer contents for the given counts.
	Replace(ctx context.Context, counts map[int64]int) error
}
