package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

var _ repository.ProductCatalog = (*ProductCatalog)(nil)

// ProductCatalog consulta el maestro de productos en la tabla products.
type ProductCatalog struct {
	q Querier
}

// NewProductCatalog construye el adaptador. Pasar pool o tx (Querier).
func NewProductCatalog(q Querier) *ProductCatalog {
	return &ProductCatalog{q: q}
}

// Exists indica si el producto existe.
func (c *ProductCatalog) Exists(ctx context.Context, productID string) (bool, error) {
	var exists bool
	err := c.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("product exists: %w", err)
	}
	return exists, nil
}
