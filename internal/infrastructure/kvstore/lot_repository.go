package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo implementación de LotRepository sobre cualquier KVStore.
type LotRepo struct {
	kv repository.KVStore
}

// NewLotRepository construye el adaptador de lotes.
func NewLotRepository(kv repository.KVStore) *LotRepo {
	return &LotRepo{kv: kv}
}

// Create persiste el lote y sus índices (clave natural y producto).
// El índice de clave natural conserva el primer lote registrado; el registro principal se escribe
// al final para que un lote visible siempre tenga índices.
func (r *LotRepo) Create(ctx context.Context, lot *entity.Lot) error {
	naturalKey := prefixLotKey + seg(lot.BatchRef) + "/" + seg(lot.ProductID)
	if _, err := r.kv.Get(ctx, naturalKey); err != nil {
		if err := ignoreNotFound(err); err != nil {
			return err
		}
		if err := r.kv.Put(ctx, naturalKey, []byte(lot.ID)); err != nil {
			return err
		}
	}
	if err := r.kv.Put(ctx, prefixLotByProduct+seg(lot.ProductID)+"/"+seg(lot.ID), []byte(lot.ID)); err != nil {
		return err
	}
	return putJSON(ctx, r.kv, prefixLot+seg(lot.ID), lot)
}

// GetByID obtiene un lote por ID. Devuelve nil, nil si no existe.
func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.Lot, error) {
	var lot entity.Lot
	ok, err := getJSON(ctx, r.kv, prefixLot+seg(id), &lot)
	if err != nil || !ok {
		return nil, err
	}
	return &lot, nil
}

// GetByNaturalKey busca el lote por (lote de compra, producto).
func (r *LotRepo) GetByNaturalKey(ctx context.Context, batchRef, productID string) (*entity.Lot, error) {
	raw, err := r.kv.Get(ctx, prefixLotKey+seg(batchRef)+"/"+seg(productID))
	if err != nil {
		return nil, ignoreNotFound(err)
	}
	return r.GetByID(ctx, string(raw))
}

// ListByProduct lista los lotes del producto ordenados por fecha de creación e ID.
func (r *LotRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.Lot, error) {
	ids, err := scanIndex(ctx, r.kv, prefixLotByProduct+seg(productID)+"/")
	if err != nil {
		return nil, err
	}
	list := make([]*entity.Lot, 0, len(ids))
	for _, id := range ids {
		lot, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		// índice escrito pero registro aún no visible (creación en curso)
		if lot == nil {
			continue
		}
		list = append(list, lot)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

// ListAll devuelve todos los lotes conocidos localmente.
func (r *LotRepo) ListAll(ctx context.Context) ([]*entity.Lot, error) {
	rows, err := r.kv.Scan(ctx, prefixLot)
	if err != nil {
		return nil, fmt.Errorf("scan lotes: %w", err)
	}
	list := make([]*entity.Lot, 0, len(rows))
	for _, row := range rows {
		var lot entity.Lot
		if err := json.Unmarshal(row.Value, &lot); err != nil {
			return nil, fmt.Errorf("decode lote %s: %w", row.Key, err)
		}
		list = append(list, &lot)
	}
	return list, nil
}

// UpdateAttributes reescribe el registro del lote; el caso de uso garantiza que solo cambian
// atributos de presentación.
func (r *LotRepo) UpdateAttributes(ctx context.Context, lot *entity.Lot) error {
	return putJSON(ctx, r.kv, prefixLot+seg(lot.ID), lot)
}
