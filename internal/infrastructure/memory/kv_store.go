package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

var _ repository.KVStore = (*KVStore)(nil)

// KVStore almacén clave/valor en memoria (un dispositivo sin base de datos, y tests).
type KVStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewKVStore construye un almacén vacío.
func NewKVStore() *KVStore {
	return &KVStore{data: map[string][]byte{}}
}

// Put guarda una copia del valor.
func (s *KVStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Get devuelve una copia del valor o domain.ErrNotFound.
func (s *KVStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Scan devuelve las claves con el prefijo en orden ascendente.
func (s *KVStore) Scan(_ context.Context, prefix string) ([]repository.KV, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]repository.KV, 0)
	for k, v := range s.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, repository.KV{Key: k, Value: append([]byte(nil), v...)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
