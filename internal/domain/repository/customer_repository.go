package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/checkoutpos/billing-api/internal/domain/entity"
)

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
	GetByEmail(ctx context.Context, email string) (*entity.Customer, error)
	// FindOrCreateByEmail resolves a customer by email, creating the record
	// when none exists. Idempotent per email.
	FindOrCreateByEmail(ctx context.Context, email string) (*entity.Customer, error)
}
