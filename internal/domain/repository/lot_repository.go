package repository

import (
	"context"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// LotRepository define el puerto de persistencia para lotes (DIP).
type LotRepository interface {
	Create(ctx context.Context, lot *entity.Lot) error
	GetByID(ctx context.Context, id string) (*entity.Lot, error)
	GetByNaturalKey(ctx context.Context, batchRef, productID string) (*entity.Lot, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.Lot, error)
	ListAll(ctx context.Context) ([]*entity.Lot, error)
	// UpdateAttributes solo reescribe atributos de presentación (artículo, código de barras).
	UpdateAttributes(ctx context.Context, lot *entity.Lot) error
}
