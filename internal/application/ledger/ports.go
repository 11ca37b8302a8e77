package ledger

import "github.com/jhoicas/Inventario-lotes/internal/domain/repository"

// Repositories agrupa los puertos de persistencia del libro de lotes.
// Todas las implementaciones comparten el mismo KVStore en producción.
type Repositories struct {
	Lots        repository.LotRepository
	Deltas      repository.DeltaRepository
	Allocations repository.AllocationRepository
	SyncState   repository.SyncStateRepository
	Catalog     repository.ProductCatalog
}
