package customer

import (
	"context"

	"github.com/careline/intake-platform/internal/domain"
)

// Repository defines read access to customers and their case history.
// Implementations must be safe for concurrent use.
type Repository interface {
	// FindByID returns a single customer. Returns ErrNotFound if absent.
	FindByID(ctx context.Context, id string) (*domain.Customer, error)

	// FindByEmail returns the customer with the given email (case-insensitive).
	// Returns ErrNotFound if absent.
	FindByEmail(ctx context.Context, email string) (*domain.Customer, error)

	// FindAll returns customers matching the filter plus the unfiltered total.
	FindAll(ctx context.Context, f ListFilter) ([]domain.Customer, int, error)

	// CasesForCustomer returns the customer's cases, newest first.
	CasesForCustomer(ctx context.Context, customerID string) ([]domain.Case, error)

	// CountCases returns the number of cases the customer has submitted.
	CountCases(ctx context.Context, customerID string) (int, error)
}

// ListFilter controls pagination and filtering for customer listings.
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}
