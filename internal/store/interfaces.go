package store

import (
	"context"

	"github.com/dqalex/OmniSpark/internal/model"
)

// ProductStore provides access to the persistent product library.
type ProductStore interface {
	SaveProduct(ctx context.Context, record model.ProductRecord) (model.ProductRecord, bool, error)
	ListProducts(ctx context.Context) ([]model.ProductRecord, error)
	PinProduct(ctx context.Context, id string, pinned bool) error
	DeleteProduct(ctx context.Context, id string) error
}

// LibraryStore provides access to the curated asset library.
type LibraryStore interface {
	PromoteAsset(ctx context.Context, a model.LibraryAsset) error
	ListAssets(ctx context.Context, f LibraryFilter) ([]model.LibraryAsset, error)
	PinAsset(ctx context.Context, id string, pinned bool) error
	DeleteAsset(ctx context.Context, id string) error
}

// Repository combines all persistence operations for the API layer.
type Repository interface {
	ProductStore
	LibraryStore
}
