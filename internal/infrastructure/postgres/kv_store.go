package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

var _ repository.KVStore = (*KVStore)(nil)

// KVStore implementación del transporte clave/valor sobre la tabla ledger_kv (usable con pool o tx).
type KVStore struct {
	q Querier
}

// NewKVStore construye el adaptador. Pasar pool o tx (Querier).
func NewKVStore(q Querier) *KVStore {
	return &KVStore{q: q}
}

// Put inserta o reemplaza el valor de la clave.
func (s *KVStore) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO ledger_kv (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	if _, err := s.q.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("put kv: %w", err)
	}
	return nil
}

// Get obtiene el valor o domain.ErrNotFound.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.q.QueryRow(ctx, `SELECT value FROM ledger_kv WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get kv: %w", err)
	}
	return value, nil
}

// Scan lista las claves con el prefijo en orden ascendente (starts_with evita escapar % y _).
func (s *KVStore) Scan(ctx context.Context, prefix string) ([]repository.KV, error) {
	rows, err := s.q.Query(ctx, `
		SELECT key, value FROM ledger_kv
		WHERE starts_with(key, $1)
		ORDER BY key COLLATE "C"`, prefix)
	if err != nil {
		return nil, fmt.Errorf("scan kv: %w", err)
	}
	defer rows.Close()
	var list []repository.KV
	for rows.Next() {
		var kv repository.KV
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, fmt.Errorf("scan kv row: %w", err)
		}
		list = append(list, kv)
	}
	return list, rows.Err()
}
