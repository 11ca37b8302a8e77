package kvstore

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

var _ repository.SyncStateRepository = (*SyncStateRepo)(nil)

// SyncStateRepo estado de sincronización sobre KVStore.
type SyncStateRepo struct {
	kv repository.KVStore
}

// NewSyncStateRepository construye el adaptador.
func NewSyncStateRepository(kv repository.KVStore) *SyncStateRepo {
	return &SyncStateRepo{kv: kv}
}

// GetPeerVector devuelve el vector de versiones recibido de un par (vacío si nunca se sincronizó).
func (r *SyncStateRepo) GetPeerVector(ctx context.Context, peer string) (map[string]uint64, error) {
	vector := map[string]uint64{}
	if _, err := getJSON(ctx, r.kv, prefixPeerVector+seg(peer), &vector); err != nil {
		return nil, err
	}
	return vector, nil
}

// SavePeerVector guarda el vector de versiones de un par.
func (r *SyncStateRepo) SavePeerVector(ctx context.Context, peer string, vector map[string]uint64) error {
	return putJSON(ctx, r.kv, prefixPeerVector+seg(peer), vector)
}

// GetLastReconciledAt devuelve la marca de última conciliación (nil si nunca hubo).
func (r *SyncStateRepo) GetLastReconciledAt(ctx context.Context) (*time.Time, error) {
	var at time.Time
	ok, err := getJSON(ctx, r.kv, keyReconciledAt, &at)
	if err != nil || !ok {
		return nil, err
	}
	return &at, nil
}

// SetLastReconciledAt actualiza la marca de última conciliación.
func (r *SyncStateRepo) SetLastReconciledAt(ctx context.Context, at time.Time) error {
	return putJSON(ctx, r.kv, keyReconciledAt, at.UTC())
}
