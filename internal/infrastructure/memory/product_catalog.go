package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

var _ repository.ProductCatalog = (*ProductCatalog)(nil)

// ProductCatalog maestro de productos en memoria: un conjunto de IDs.
type ProductCatalog struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewProductCatalog construye el catálogo con los productos dados.
func NewProductCatalog(productIDs ...string) *ProductCatalog {
	c := &ProductCatalog{ids: map[string]struct{}{}}
	c.Add(productIDs...)
	return c
}

// Add registra productos.
func (c *ProductCatalog) Add(productIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range productIDs {
		c.ids[id] = struct{}{}
	}
}

// Exists indica si el producto existe.
func (c *ProductCatalog) Exists(_ context.Context, productID string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.ids[productID]
	return ok, nil
}
