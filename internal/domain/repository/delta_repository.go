package repository

import (
	"context"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// DeltaRepository define el puerto del registro de deltas por lote (solo anexar).
type DeltaRepository interface {
	// Insert agrega el delta si su ID no existe. Devuelve false si ya estaba (reproducción idempotente)
	// y domain.ErrDeltaConflict si el ID existe con otro contenido.
	Insert(ctx context.Context, delta entity.Delta) (bool, error)
	ListByLot(ctx context.Context, lotID string) ([]entity.Delta, error)
	ListAll(ctx context.Context) ([]entity.Delta, error)
}
