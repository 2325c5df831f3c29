package domain

import "context"

type Service interface {
	// FindProductTypeByCode returns the product's type code, or "" when
	// the code is unknown. Cache hits skip the store.
	FindProductTypeByCode(ctx context.Context, code string) string
	// BuildAllProductsCache bulk loads every product into the type cache.
	// Store errors are logged and swallowed.
	BuildAllProductsCache(ctx context.Context)
	// GetProducts lists products. When staffCheck is set, hidden products
	// are only included for staff callers.
	GetProducts(ctx context.Context, includeHidden, staffCheck bool) ([]ProductCode, error)
}
