package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

var _ repository.DeltaRepository = (*DeltaRepo)(nil)

// DeltaRepo registro de deltas por lote sobre KVStore. La clave incluye lot_id y delta_id,
// así que reescribir el mismo delta es inocuo: el ID es direccionado por contenido.
type DeltaRepo struct {
	kv repository.KVStore
}

// NewDeltaRepository construye el adaptador del registro de deltas.
func NewDeltaRepository(kv repository.KVStore) *DeltaRepo {
	return &DeltaRepo{kv: kv}
}

func deltaKey(lotID, deltaID string) string {
	return prefixDelta + seg(lotID) + "/" + seg(deltaID)
}

// Insert agrega el delta si el ID no está presente (chequeo de pertenencia por delta_id).
func (r *DeltaRepo) Insert(ctx context.Context, d entity.Delta) (bool, error) {
	var prev entity.Delta
	ok, err := getJSON(ctx, r.kv, deltaKey(d.LotID, d.ID), &prev)
	if err != nil {
		return false, err
	}
	if ok {
		if !prev.SamePayload(d) {
			return false, domain.ErrDeltaConflict
		}
		return false, nil
	}
	// El mismo ID bajo otro lote también es un conflicto
	if other, err := r.findElsewhere(ctx, d); err != nil {
		return false, err
	} else if other {
		return false, domain.ErrDeltaConflict
	}
	if err := putJSON(ctx, r.kv, deltaKey(d.LotID, d.ID), d); err != nil {
		return false, err
	}
	return true, nil
}

// findElsewhere comprueba el índice global delta_id -> lot_id y lo registra si falta.
func (r *DeltaRepo) findElsewhere(ctx context.Context, d entity.Delta) (bool, error) {
	idxKey := prefixDeltaIndex + seg(d.ID)
	raw, err := r.kv.Get(ctx, idxKey)
	if err == nil {
		return string(raw) != d.LotID, nil
	}
	if err := ignoreNotFound(err); err != nil {
		return false, err
	}
	if err := r.kv.Put(ctx, idxKey, []byte(d.LotID)); err != nil {
		return false, fmt.Errorf("put %s: %w", idxKey, err)
	}
	return false, nil
}

// ListByLot devuelve los deltas distintos de un lote.
func (r *DeltaRepo) ListByLot(ctx context.Context, lotID string) ([]entity.Delta, error) {
	return r.scan(ctx, prefixDelta+seg(lotID)+"/")
}

// ListAll devuelve todos los deltas conocidos localmente.
func (r *DeltaRepo) ListAll(ctx context.Context) ([]entity.Delta, error) {
	return r.scan(ctx, prefixDelta)
}

func (r *DeltaRepo) scan(ctx context.Context, prefix string) ([]entity.Delta, error) {
	rows, err := r.kv.Scan(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("scan deltas: %w", err)
	}
	list := make([]entity.Delta, 0, len(rows))
	for _, row := range rows {
		var d entity.Delta
		if err := json.Unmarshal(row.Value, &d); err != nil {
			return nil, fmt.Errorf("decode delta %s: %w", row.Key, err)
		}
		list = append(list, d)
	}
	return list, nil
}
