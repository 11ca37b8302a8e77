package kvstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/kvstore"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/memory"
)

func TestLotRepo_IndicesYOrden(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVStore()
	repo := kvstore.NewLotRepository(kv)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	newer := &entity.Lot{ID: "b", ProductID: "p/1", BatchRef: "OC 2", UnitCost: decimal.NewFromInt(2), QuantityReceived: 5, CreatedAt: base.Add(time.Hour)}
	older := &entity.Lot{ID: "z", ProductID: "p/1", BatchRef: "OC 1", UnitCost: decimal.NewFromInt(1), QuantityReceived: 5, CreatedAt: base}
	require.NoError(t, repo.Create(ctx, newer))
	require.NoError(t, repo.Create(ctx, older))

	list, err := repo.ListByProduct(ctx, "p/1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "z", list[0].ID)
	assert.Equal(t, "b", list[1].ID)

	byKey, err := repo.GetByNaturalKey(ctx, "OC 1", "p/1")
	require.NoError(t, err)
	require.NotNil(t, byKey)
	assert.Equal(t, "z", byKey.ID)

	// el índice de clave natural conserva el primer lote
	require.NoError(t, repo.Create(ctx, &entity.Lot{ID: "c", ProductID: "p/1", BatchRef: "OC 1", QuantityReceived: 1, CreatedAt: base}))
	byKey, err = repo.GetByNaturalKey(ctx, "OC 1", "p/1")
	require.NoError(t, err)
	assert.Equal(t, "z", byKey.ID)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	catalog := kvstore.NewLotCatalog(kv)
	ok, err := catalog.Exists(ctx, "p/1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = catalog.Exists(ctx, "p")
	require.NoError(t, err)
	assert.False(t, ok, "el prefijo de otro producto no cuenta")
}

func TestDeltaRepo_InsertIdempotenteYConflicto(t *testing.T) {
	ctx := context.Background()
	repo := kvstore.NewDeltaRepository(memory.NewKVStore())
	d := entity.Delta{ID: "d1", LotID: "L1", SignedQuantity: 3, OriginWriterID: "w1", LogicalTimestamp: 1}

	appended, err := repo.Insert(ctx, d)
	require.NoError(t, err)
	assert.True(t, appended)

	appended, err = repo.Insert(ctx, d)
	require.NoError(t, err)
	assert.False(t, appended)

	other := d
	other.SignedQuantity = 4
	_, err = repo.Insert(ctx, other)
	assert.ErrorIs(t, err, domain.ErrDeltaConflict)

	moved := d
	moved.LotID = "L2"
	_, err = repo.Insert(ctx, moved)
	assert.ErrorIs(t, err, domain.ErrDeltaConflict, "el mismo ID en otro lote también es conflicto")

	list, err := repo.ListByLot(ctx, "L1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	none, err := repo.ListByLot(ctx, "L2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAllocationRepo_Indices(t *testing.T) {
	ctx := context.Background()
	repo := kvstore.NewAllocationRepository(memory.NewKVStore())
	sale := &entity.Allocation{ID: "a1", SaleLineID: "V-1", LotID: "L1", Kind: entity.AllocationKindSale, Quantity: 5, DeltaID: "d1"}
	ret := &entity.Allocation{ID: "a2", SaleLineID: "D-1", LotID: "L1", Kind: entity.AllocationKindReturn, Quantity: -2, OriginalAllocationID: "a1", DeltaID: "d2"}
	require.NoError(t, repo.Create(ctx, sale))
	require.NoError(t, repo.Create(ctx, ret))

	byLine, err := repo.ListBySaleLine(ctx, "V-1")
	require.NoError(t, err)
	require.Len(t, byLine, 1)
	assert.Equal(t, "a1", byLine[0].ID)

	returns, err := repo.ListReturnsOf(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, returns, 1)
	assert.Equal(t, int64(-2), returns[0].Quantity)

	byDelta, err := repo.GetByDeltaID(ctx, "d2")
	require.NoError(t, err)
	require.NotNil(t, byDelta)
	assert.Equal(t, "a2", byDelta.ID)

	missing, err := repo.GetByDeltaID(ctx, "d9")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSyncStateRepo(t *testing.T) {
	ctx := context.Background()
	repo := kvstore.NewSyncStateRepository(memory.NewKVStore())

	at, err := repo.GetLastReconciledAt(ctx)
	require.NoError(t, err)
	assert.Nil(t, at)

	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetLastReconciledAt(ctx, now))
	at, err = repo.GetLastReconciledAt(ctx)
	require.NoError(t, err)
	require.NotNil(t, at)
	assert.True(t, at.Equal(now))

	vector, err := repo.GetPeerVector(ctx, "http://caja-02:8080")
	require.NoError(t, err)
	assert.Empty(t, vector)
	require.NoError(t, repo.SavePeerVector(ctx, "http://caja-02:8080", map[string]uint64{"caja-02": 7}))
	vector, err = repo.GetPeerVector(ctx, "http://caja-02:8080")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), vector["caja-02"])
}
