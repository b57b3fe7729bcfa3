package adapter

import (
	"context"

	"marketplace-migrator/internal/domain/model"
)

// SourceCatalog reads the seller's products from the source marketplace API.
type SourceCatalog interface {
	// ListProducts returns the seller's catalog, normalized. Pagination is an
	// implementation concern; the full list comes back in one call.
	ListProducts(ctx context.Context) ([]model.Product, error)
}
