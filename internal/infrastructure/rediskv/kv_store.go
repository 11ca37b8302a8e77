package rediskv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	redis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

var _ repository.KVStore = (*KVStore)(nil)

// scanCount tamaño de página sugerido para SCAN.
const scanCount = 500

// KVStore transporte clave/valor sobre Redis. Todas las claves llevan el namespace configurado.
type KVStore struct {
	client    redis.UniversalClient
	namespace string
}

// NewClient construye el cliente Redis a partir de la configuración.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewKVStore construye el adaptador con un namespace (ej. "lotledger:").
func NewKVStore(client redis.UniversalClient, namespace string) *KVStore {
	return &KVStore{client: client, namespace: namespace}
}

// Ping verifica la conexión.
func (s *KVStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Put guarda el valor sin expiración: el registro de deltas es permanente.
func (s *KVStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.namespace+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get obtiene el valor o domain.ErrNotFound.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.namespace+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

// Scan recorre SCAN MATCH <namespace><prefix>* y lee los valores con MGET.
// Las claves pueden repetirse entre páginas de SCAN; se deduplican antes de leer.
func (s *KVStore) Scan(ctx context.Context, prefix string) ([]repository.KV, error) {
	pattern := escapeGlob(s.namespace+prefix) + "*"
	seen := map[string]struct{}{}
	var keys []string
	var cursor uint64
	for {
		page, next, err := s.client.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan: %w", err)
		}
		for _, k := range page {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	out := make([]repository.KV, 0, len(keys))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// borrada entre SCAN y MGET
			continue
		}
		out = append(out, repository.KV{Key: strings.TrimPrefix(keys[i], s.namespace), Value: []byte(str)})
	}
	return out, nil
}

// escapeGlob escapa los metacaracteres del patrón de SCAN.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
