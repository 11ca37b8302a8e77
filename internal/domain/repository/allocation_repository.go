package repository

import (
	"context"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// AllocationRepository define el puerto de persistencia para asignaciones (inmutables).
type AllocationRepository interface {
	Create(ctx context.Context, a *entity.Allocation) error
	GetByID(ctx context.Context, id string) (*entity.Allocation, error)
	ListBySaleLine(ctx context.Context, saleLineID string) ([]*entity.Allocation, error)
	// ListReturnsOf devuelve las devoluciones enlazadas a una asignación de venta.
	ListReturnsOf(ctx context.Context, originalAllocationID string) ([]*entity.Allocation, error)
	// GetByDeltaID devuelve la asignación que originó un delta (nil si no hay).
	GetByDeltaID(ctx context.Context, deltaID string) (*entity.Allocation, error)
}
