package repository

import "context"

// KV par clave/valor devuelto por Scan.
type KV struct {
	Key   string
	Value []byte
}

// KVStore puerto del transporte de persistencia: lectura/escritura por clave y barrido por prefijo.
// Get devuelve domain.ErrNotFound si la clave no existe. Scan devuelve las claves en orden ascendente.
type KVStore interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Scan(ctx context.Context, prefix string) ([]KV, error)
}
