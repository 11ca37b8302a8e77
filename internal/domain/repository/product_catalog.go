package repository

import "context"

// ProductCatalog puerto hacia el maestro de productos (colaborador externo).
// Solo se usa para validar la existencia del producto al resolver una venta.
type ProductCatalog interface {
	Exists(ctx context.Context, productID string) (bool, error)
}
