// Package repositories defines the persistence interfaces consumed by the
// service layer, keeping services free of any Firestore specifics.
package repositories

import (
	"context"

	"github.com/marketbay/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ProductRepository stores the product catalog in the primary datastore.
type ProductRepository interface {
	// Count returns the number of catalog documents. Used to decide whether
	// the collection needs seeding.
	Count(ctx context.Context) (int64, error)
	// InsertMany bulk-writes the provided products keyed by their IDs.
	InsertMany(ctx context.Context, products []domain.Product) error
	// ListAll returns every catalog product. Filtering, sorting, and paging
	// happen in the service so primary and fallback paths behave identically.
	ListAll(ctx context.Context) ([]domain.Product, error)
	// GetByID fetches one product. Returns a RepositoryError reporting
	// IsNotFound when the document does not exist.
	GetByID(ctx context.Context, id string) (domain.Product, error)
	// Create inserts a new product and fails with IsConflict when the ID is taken.
	Create(ctx context.Context, product domain.Product) error
	// Update overwrites an existing product.
	Update(ctx context.Context, product domain.Product) error
	// Delete removes the product by ID.
	Delete(ctx context.Context, id string) error
}
