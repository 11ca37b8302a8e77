package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

// Prefijos de claves del libro de lotes sobre el KVStore.
const (
	prefixLot          = "lot/"
	prefixLotKey       = "lotkey/"
	prefixLotByProduct = "lotprod/"
	prefixDelta        = "delta/"
	prefixAllocation   = "alloc/"
	prefixAllocByLine  = "allocline/"
	prefixAllocReturns = "allocret/"
	prefixAllocByDelta = "allocdelta/"
	prefixDeltaIndex   = "deltaidx/"
	prefixPeerVector   = "sync/peer/"
	keyReconciledAt    = "sync/reconciled_at"
)

// seg escapa un componente de clave para que no pueda contener el separador "/".
func seg(s string) string {
	return url.PathEscape(s)
}

func putJSON(ctx context.Context, kv repository.KVStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// getJSON decodifica la clave en v. Devuelve (false, nil) si la clave no existe.
func getJSON(ctx context.Context, kv repository.KVStore, key string, v any) (bool, error) {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// scanIndex devuelve los valores (IDs) de un índice secundario en orden de clave.
func scanIndex(ctx context.Context, kv repository.KVStore, prefix string) ([]string, error) {
	rows, err := kv.Scan(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", prefix, err)
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, string(r.Value))
	}
	return ids, nil
}

// ignoreNotFound convierte domain.ErrNotFound en nil.
func ignoreNotFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}
