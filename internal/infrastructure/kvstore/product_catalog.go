package kvstore

import (
	"context"

	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

var _ repository.ProductCatalog = (*LotCatalog)(nil)

// LotCatalog catálogo derivado de los lotes: un producto existe si tiene al menos un lote.
// Se usa con los backends que no tienen un maestro de productos propio.
type LotCatalog struct {
	kv repository.KVStore
}

// NewLotCatalog construye el catálogo sobre el mismo KVStore de los lotes.
func NewLotCatalog(kv repository.KVStore) *LotCatalog {
	return &LotCatalog{kv: kv}
}

// Exists indica si el producto tiene lotes registrados.
func (c *LotCatalog) Exists(ctx context.Context, productID string) (bool, error) {
	if productID == "" {
		return false, nil
	}
	rows, err := c.kv.Scan(ctx, prefixLotByProduct+seg(productID)+"/")
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}
