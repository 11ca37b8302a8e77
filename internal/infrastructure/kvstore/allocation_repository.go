package kvstore

import (
	"context"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

var _ repository.AllocationRepository = (*AllocationRepo)(nil)

// AllocationRepo implementación de AllocationRepository sobre KVStore.
type AllocationRepo struct {
	kv repository.KVStore
}

// NewAllocationRepository construye el adaptador de asignaciones.
func NewAllocationRepository(kv repository.KVStore) *AllocationRepo {
	return &AllocationRepo{kv: kv}
}

// Create persiste la asignación con sus índices por línea y, si es devolución, por asignación original.
func (r *AllocationRepo) Create(ctx context.Context, a *entity.Allocation) error {
	if err := r.kv.Put(ctx, prefixAllocByLine+seg(a.SaleLineID)+"/"+seg(a.ID), []byte(a.ID)); err != nil {
		return err
	}
	if a.DeltaID != "" {
		if err := r.kv.Put(ctx, prefixAllocByDelta+seg(a.DeltaID), []byte(a.ID)); err != nil {
			return err
		}
	}
	if a.OriginalAllocationID != "" {
		if err := r.kv.Put(ctx, prefixAllocReturns+seg(a.OriginalAllocationID)+"/"+seg(a.ID), []byte(a.ID)); err != nil {
			return err
		}
	}
	return putJSON(ctx, r.kv, prefixAllocation+seg(a.ID), a)
}

// GetByID obtiene una asignación. Devuelve nil, nil si no existe.
func (r *AllocationRepo) GetByID(ctx context.Context, id string) (*entity.Allocation, error) {
	var a entity.Allocation
	ok, err := getJSON(ctx, r.kv, prefixAllocation+seg(id), &a)
	if err != nil || !ok {
		return nil, err
	}
	return &a, nil
}

// ListBySaleLine lista las asignaciones de una línea (una por lote si la venta se dividió).
func (r *AllocationRepo) ListBySaleLine(ctx context.Context, saleLineID string) ([]*entity.Allocation, error) {
	return r.listIndex(ctx, prefixAllocByLine+seg(saleLineID)+"/")
}

// ListReturnsOf lista las devoluciones enlazadas a una asignación de venta.
func (r *AllocationRepo) ListReturnsOf(ctx context.Context, originalAllocationID string) ([]*entity.Allocation, error) {
	return r.listIndex(ctx, prefixAllocReturns+seg(originalAllocationID)+"/")
}

// GetByDeltaID devuelve la asignación que originó el delta.
func (r *AllocationRepo) GetByDeltaID(ctx context.Context, deltaID string) (*entity.Allocation, error) {
	raw, err := r.kv.Get(ctx, prefixAllocByDelta+seg(deltaID))
	if err != nil {
		return nil, ignoreNotFound(err)
	}
	return r.GetByID(ctx, string(raw))
}

func (r *AllocationRepo) listIndex(ctx context.Context, prefix string) ([]*entity.Allocation, error) {
	ids, err := scanIndex(ctx, r.kv, prefix)
	if err != nil {
		return nil, err
	}
	list := make([]*entity.Allocation, 0, len(ids))
	for _, id := range ids {
		a, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if a != nil {
			list = append(list, a)
		}
	}
	return list, nil
}
