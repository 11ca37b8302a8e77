package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	appledger "github.com/jhoicas/Inventario-lotes/internal/application/ledger"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/kvstore"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-lotes/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const testProductID = "prod-arroz"

// writer agrupa los casos de uso de un escritor (dispositivo) con su propio almacenamiento.
type writer struct {
	repos      appledger.Repositories
	lots       *appledger.LotUseCase
	quantities *appledger.QuantityLedger
	sales      *appledger.AllocationUseCase
	costs      *appledger.CostUseCase
	reconcile  *appledger.ReconcileUseCase
}

func newWriter(t *testing.T, writerID string) *writer {
	t.Helper()
	kv := memory.NewKVStore()
	repos := appledger.Repositories{
		Lots:        kvstore.NewLotRepository(kv),
		Deltas:      kvstore.NewDeltaRepository(kv),
		Allocations: kvstore.NewAllocationRepository(kv),
		SyncState:   kvstore.NewSyncStateRepository(kv),
		Catalog:     memory.NewProductCatalog(testProductID),
	}
	log := logger.Nop()
	q := appledger.NewQuantityLedger(repos, writerID, log)
	require.NoError(t, q.RestoreClock(context.Background()))
	return &writer{
		repos:      repos,
		lots:       appledger.NewLotUseCase(repos, q, log),
		quantities: q,
		sales:      appledger.NewAllocationUseCase(repos, q, log),
		costs:      appledger.NewCostUseCase(repos, log),
		reconcile:  appledger.NewReconcileUseCase(repos, q, log),
	}
}

var baseTime = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

// createLot registra un lote con fecha de ingreso baseTime + offset días.
func (w *writer) createLot(t *testing.T, batchRef string, qty int64, unitCost string, dayOffset int) *entity.Lot {
	t.Helper()
	at := baseTime.AddDate(0, 0, dayOffset)
	lot, created, err := w.lots.Create(context.Background(), dto.CreateLotRequest{
		ProductID:        testProductID,
		BatchRef:         batchRef,
		UnitCost:         decimal.RequireFromString(unitCost),
		UnitSalePrice:    decimal.NewFromInt(15),
		UnitMRP:          decimal.NewFromInt(18),
		QuantityReceived: qty,
		CreatedAt:        &at,
	})
	require.NoError(t, err)
	require.True(t, created)
	return lot
}

func (w *writer) sell(t *testing.T, line string, qty int64, lotID string) dto.SaleLineResponse {
	t.Helper()
	resp, err := w.sales.RecordSale(context.Background(), dto.SaleLineRequest{
		SaleLineID: line,
		ProductID:  testProductID,
		Quantity:   qty,
		LotID:      lotID,
	})
	require.NoError(t, err)
	return resp
}

func (w *writer) consumed(t *testing.T, lotID string) int64 {
	t.Helper()
	n, err := w.quantities.ConsumedQuantity(context.Background(), lotID)
	require.NoError(t, err)
	return n
}

// sync trae a dst todo lo que src tiene y dst no.
func sync(t *testing.T, src, dst *writer) dto.MergeResult {
	t.Helper()
	ctx := context.Background()
	batch, err := src.reconcile.Export(ctx, nil, 0)
	require.NoError(t, err)
	res, err := dst.reconcile.Merge(ctx, batch)
	require.NoError(t, err)
	return res
}

// ──────────────────────────────────────────────────────────────────────────────
// Registro de lotes
// ──────────────────────────────────────────────────────────────────────────────

func TestLotUseCase_CreateIdempotentePorClaveNatural(t *testing.T) {
	w := newWriter(t, "caja-01")
	ctx := context.Background()
	lot := w.createLot(t, "OC-100/1", 100, "10", 0)

	at := baseTime
	again, created, err := w.lots.Create(ctx, dto.CreateLotRequest{
		ProductID:        testProductID,
		BatchRef:         "OC-100/1",
		UnitCost:         decimal.NewFromInt(10),
		UnitSalePrice:    decimal.NewFromInt(15),
		UnitMRP:          decimal.NewFromInt(18),
		QuantityReceived: 100,
		CreatedAt:        &at,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, lot.ID, again.ID)
}

func TestLotUseCase_CreateConOtroCostoEsDuplicado(t *testing.T) {
	w := newWriter(t, "caja-01")
	w.createLot(t, "OC-100/1", 100, "10", 0)

	_, _, err := w.lots.Create(context.Background(), dto.CreateLotRequest{
		ProductID:        testProductID,
		BatchRef:         "OC-100/1",
		UnitCost:         decimal.NewFromInt(11),
		UnitSalePrice:    decimal.NewFromInt(15),
		UnitMRP:          decimal.NewFromInt(18),
		QuantityReceived: 100,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateLot)
}

func TestLotUseCase_CreateValidaCantidad(t *testing.T) {
	w := newWriter(t, "caja-01")
	_, _, err := w.lots.Create(context.Background(), dto.CreateLotRequest{
		ProductID: testProductID, BatchRef: "OC-1", QuantityReceived: 0,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestLotUseCase_UpdateAttributesRechazaCamposInmutables(t *testing.T) {
	w := newWriter(t, "caja-01")
	ctx := context.Background()
	lot := w.createLot(t, "OC-100/1", 100, "10", 0)

	article, qty := "ARZ-5KG", int64(120)
	_, err := w.lots.UpdateAttributes(ctx, lot.ID, dto.UpdateLotRequest{QuantityReceived: &qty})
	assert.ErrorIs(t, err, domain.ErrImmutableFieldViolation)

	cost := decimal.NewFromInt(9)
	_, err = w.lots.UpdateAttributes(ctx, lot.ID, dto.UpdateLotRequest{UnitCost: &cost})
	assert.ErrorIs(t, err, domain.ErrImmutableFieldViolation)

	updated, err := w.lots.UpdateAttributes(ctx, lot.ID, dto.UpdateLotRequest{Article: &article})
	require.NoError(t, err)
	assert.Equal(t, "ARZ-5KG", updated.Article)
	assert.Equal(t, int64(100), updated.QuantityReceived)

	got, err := w.lots.GetByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, "ARZ-5KG", got.Article)
}

func TestLotUseCase_GetInexistente(t *testing.T) {
	w := newWriter(t, "caja-01")
	_, err := w.lots.GetByID(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ventas, devoluciones y costo
// ──────────────────────────────────────────────────────────────────────────────

// Escenario 1: venta explícita de 30 sobre L1 (100 unidades a costo 10).
func TestRecordSale_LoteExplicito(t *testing.T) {
	w := newWriter(t, "caja-01")
	ctx := context.Background()
	l1 := w.createLot(t, "OC-1/1", 100, "10", 0)

	resp := w.sell(t, "V-1/1", 30, l1.ID)
	require.Len(t, resp.Allocations, 1)
	assert.Equal(t, l1.ID, resp.Allocations[0].LotID)
	assert.True(t, resp.Allocations[0].UnitSalePrice.Equal(decimal.NewFromInt(15)), "sin precio toma el del lote")

	assert.Equal(t, int64(30), w.consumed(t, l1.ID))
	remaining, err := w.quantities.RemainingQuantity(ctx, l1.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(70), remaining)

	cost, err := w.costs.LineCost(ctx, resp.Allocations[0].ID)
	require.NoError(t, err)
	assert.True(t, cost.CostBasis.Equal(decimal.NewFromInt(300)))
	assert.True(t, cost.GrossMargin.Equal(decimal.NewFromInt(150)))
	assert.False(t, cost.Estimated)
}

// Escenario 2: la devolución revierte exactamente la venta.
func TestRecordReturn_RevierteVenta(t *testing.T) {
	w := newWriter(t, "caja-01")
	ctx := context.Background()
	l1 := w.createLot(t, "OC-1/1", 100, "10", 0)
	sale := w.sell(t, "V-1/1", 30, l1.ID).Allocations[0]

	ret, replayed, err := w.sales.RecordReturn(ctx, dto.ReturnLineRequest{
		ReturnLineID: "D-1/1", OriginalAllocationID: sale.ID, Quantity: 30,
	})
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, int64(-30), ret.Quantity)
	assert.Equal(t, l1.ID, ret.LotID)
	assert.Equal(t, int64(0), w.consumed(t, l1.ID))

	saleCost, err := w.costs.LineCost(ctx, sale.ID)
	require.NoError(t, err)
	retCost, err := w.costs.LineCost(ctx, ret.ID)
	require.NoError(t, err)
	assert.True(t, retCost.CostBasis.Equal(saleCost.CostBasis.Neg()))
	assert.True(t, retCost.GrossMargin.Equal(saleCost.GrossMargin.Neg()))

	// la asignación original no cambia
	orig, err := w.sales.GetAllocation(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), orig.Quantity)
}

func TestRecordReturn_NoPuedeExcederLoVendido(t *testing.T) {
	w := newWriter(t, "caja-01")
	ctx := context.Background()
	l1 := w.createLot(t, "OC-1/1", 100, "10", 0)
	sale := w.sell(t, "V-1/1", 30, l1.ID).Allocations[0]

	_, _, err := w.sales.RecordReturn(ctx, dto.ReturnLineRequest{ReturnLineID: "D-1", OriginalAllocationID: sale.ID, Quantity: 20})
	require.NoError(t, err)
	_, _, err = w.sales.RecordReturn(ctx, dto.ReturnLineRequest{ReturnLineID: "D-2", OriginalAllocationID: sale.ID, Quantity: 11})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	// reintento de la misma devolución: idempotente
	_, replayed, err := w.sales.RecordReturn(ctx, dto.ReturnLineRequest{ReturnLineID: "D-1", OriginalAllocationID: sale.ID, Quantity: 20})
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, int64(10), w.consumed(t, l1.ID))
}

func TestRecordReturn_AsignacionInexistente(t *testing.T) {
	w := newWriter(t, "caja-01")
	_, _, err := w.sales.RecordReturn(context.Background(), dto.ReturnLineRequest{
		ReturnLineID: "D-1", OriginalAllocationID: "no-existe", Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Escenario 4: sin lote explícito se consume del más antiguo primero, dividiendo la línea.
func TestRecordSale_MasAntiguoPrimeroDivide(t *testing.T) {
	w := newWriter(t, "caja-01")
	ctx := context.Background()
	l1 := w.createLot(t, "OC-1/1", 10, "10", 0)
	l2 := w.createLot(t, "OC-2/1", 50, "12", 5)

	resp := w.sell(t, "V-9/1", 25, "")
	require.Len(t, resp.Allocations, 2)
	assert.Equal(t, l1.ID, resp.Allocations[0].LotID)
	assert.Equal(t, int64(10), resp.Allocations[0].Quantity)
	assert.Equal(t, l2.ID, resp.Allocations[1].LotID)
	assert.Equal(t, int64(15), resp.Allocations[1].Quantity)

	assert.Equal(t, int64(10), w.consumed(t, l1.ID))
	assert.Equal(t, int64(15), w.consumed(t, l2.ID))

	total, err := w.costs.SaleLineCost(ctx, "V-9/1")
	require.NoError(t, err)
	assert.Len(t, total.Lines, 2)
	// 10*10 + 15*12
	assert.True(t, total.CostBasis.Equal(decimal.NewFromInt(280)))
	assert.False(t, total.Estimated)
}

func TestRecordSale_IdempotentePorLinea(t *testing.T) {
	w := newWriter(t, "caja-01")
	l1 := w.createLot(t, "OC-1/1", 100, "10", 0)

	first := w.sell(t, "V-1/1", 30, l1.ID)
	second := w.sell(t, "V-1/1", 30, l1.ID)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Allocations[0].ID, second.Allocations[0].ID)
	assert.Equal(t, int64(30), w.consumed(t, l1.ID))
}

func TestRecordSale_StockInsuficiente(t *testing.T) {
	w := newWriter(t, "caja-01")
	l1 := w.createLot(t, "OC-1/1", 10, "10", 0)

	_, err := w.sales.RecordSale(context.Background(), dto.SaleLineRequest{
		SaleLineID: "V-1/1", ProductID: testProductID, Quantity: 11, LotID: l1.ID,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(0), w.consumed(t, l1.ID), "una venta rechazada no deja deltas")
}

func TestRecordSale_CantidadCeroYProductoDesconocido(t *testing.T) {
	w := newWriter(t, "caja-01")
	ctx := context.Background()

	_, err := w.sales.RecordSale(ctx, dto.SaleLineRequest{SaleLineID: "V-1", ProductID: testProductID, Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = w.sales.ResolveSale(ctx, dto.ResolveSaleRequest{ProductID: "otro", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveSale_NoMutaEstado(t *testing.T) {
	w := newWriter(t, "caja-01")
	l1 := w.createLot(t, "OC-1/1", 10, "10", 0)

	portions, err := w.sales.ResolveSale(context.Background(), dto.ResolveSaleRequest{ProductID: testProductID, Quantity: 4})
	require.NoError(t, err)
	require.Len(t, portions, 1)
	assert.Equal(t, l1.ID, portions[0].LotID)
	assert.Equal(t, int64(0), w.consumed(t, l1.ID))
}

func TestLineCost_SinLoteDeOrigenEsEstimado(t *testing.T) {
	w := newWriter(t, "caja-01")
	ctx := context.Background()
	ghost := &entity.Allocation{
		ID:            "alloc-huerfana",
		SaleLineID:    "V-7/1",
		LotID:         "lote-desconocido",
		ProductID:     testProductID,
		Kind:          entity.AllocationKindSale,
		Quantity:      4,
		UnitSalePrice: decimal.NewFromInt(5),
	}
	require.NoError(t, w.repos.Allocations.Create(ctx, ghost))

	cost, err := w.costs.LineCost(ctx, ghost.ID)
	assert.ErrorIs(t, err, domain.ErrUnresolvedCostBasis)
	assert.True(t, cost.Estimated)
	assert.True(t, cost.CostBasis.IsZero())
	assert.True(t, cost.GrossMargin.Equal(decimal.NewFromInt(20)))

	total, err := w.costs.SaleLineCost(ctx, "V-7/1")
	require.NoError(t, err, "el total degrada a estimación en lugar de fallar")
	assert.True(t, total.Estimated)
}

// ──────────────────────────────────────────────────────────────────────────────
// Libro de cantidades y conciliación
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordDelta_Idempotente(t *testing.T) {
	w := newWriter(t, "caja-01")
	ctx := context.Background()
	l1 := w.createLot(t, "OC-1/1", 100, "10", 0)

	req := dto.RecordDeltaRequest{EventKey: "SALE:manual-1", LotID: l1.ID, SignedQuantity: 5}
	first, err := w.quantities.RecordDeltaFromRequest(ctx, req)
	require.NoError(t, err)
	assert.True(t, first.Appended)
	assert.Equal(t, "caja-01", first.Delta.OriginWriterID)
	assert.NotZero(t, first.Delta.LogicalTimestamp)

	for i := 0; i < 3; i++ {
		again, err := w.quantities.RecordDeltaFromRequest(ctx, req)
		require.NoError(t, err)
		assert.False(t, again.Appended)
	}
	assert.Equal(t, int64(5), w.consumed(t, l1.ID))
}

func TestRecordDelta_ConflictoDeID(t *testing.T) {
	w := newWriter(t, "caja-01")
	ctx := context.Background()
	l1 := w.createLot(t, "OC-1/1", 100, "10", 0)

	_, err := w.quantities.RecordDelta(ctx, entity.Delta{ID: "d-1", LotID: l1.ID, SignedQuantity: 5})
	require.NoError(t, err)
	_, err = w.quantities.RecordDelta(ctx, entity.Delta{ID: "d-1", LotID: l1.ID, SignedQuantity: 6})
	assert.ErrorIs(t, err, domain.ErrDeltaConflict)
}

// Reintentar un evento con otra cantidad no debe sumar dos veces.
func TestRecordDelta_MismoEventoOtraCantidadEsConflicto(t *testing.T) {
	w := newWriter(t, "caja-01")
	ctx := context.Background()
	l1 := w.createLot(t, "OC-1/1", 100, "10", 0)

	first, err := w.quantities.RecordDeltaFromRequest(ctx, dto.RecordDeltaRequest{EventKey: "SALE:L9", LotID: l1.ID, SignedQuantity: 5})
	require.NoError(t, err)
	assert.True(t, first.Appended)

	_, err = w.quantities.RecordDeltaFromRequest(ctx, dto.RecordDeltaRequest{EventKey: "SALE:L9", LotID: l1.ID, SignedQuantity: 7})
	assert.ErrorIs(t, err, domain.ErrDeltaConflict)
	assert.Equal(t, int64(5), w.consumed(t, l1.ID))
}

func TestMerge_LoteNuevoLlegaSinDeltas(t *testing.T) {
	a := newWriter(t, "caja-01")
	b := newWriter(t, "caja-02")

	l1 := a.createLot(t, "OC-1/1", 100, "10", 0)
	res := sync(t, a, b)
	assert.Equal(t, 1, res.LotsImported)

	got, err := b.lots.GetByID(context.Background(), l1.ID)
	require.NoError(t, err)
	assert.True(t, got.SameImmutableFields(l1))
	assert.Equal(t, "caja-01", got.OriginWriterID)
}

// Escenario 3: dos escritores venden del mismo lote sin conexión y luego concilian.
func TestMerge_DosEscritoresConvergen(t *testing.T) {
	a := newWriter(t, "caja-01")
	b := newWriter(t, "caja-02")
	ctx := context.Background()

	l1 := a.createLot(t, "OC-1/1", 100, "10", 0)
	sync(t, a, b)

	a.sell(t, "A-1/1", 30, l1.ID)
	b.sell(t, "B-1/1", 40, l1.ID)

	resAB := sync(t, a, b)
	resBA := sync(t, b, a)
	assert.Equal(t, 1, resAB.Applied)
	assert.Equal(t, 1, resBA.Applied)

	assert.Equal(t, int64(70), a.consumed(t, l1.ID))
	assert.Equal(t, int64(70), b.consumed(t, l1.ID))

	// re-sincronizar no cambia nada
	again := sync(t, a, b)
	assert.Equal(t, 0, again.Applied)
	assert.Equal(t, int64(70), b.consumed(t, l1.ID))

	at, err := b.quantities.LastReconciledAt(ctx)
	require.NoError(t, err)
	require.NotNil(t, at)

	snap, err := b.quantities.Snapshot(ctx, l1.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), snap.RemainingQuantity)
	assert.False(t, snap.Oversold)
	assert.NotNil(t, snap.LastReconciledAt)
}

// Escenario 5: ventas concurrentes exceden el lote; la sobreventa se reporta, no se recorta.
func TestMerge_SobreventaVisible(t *testing.T) {
	a := newWriter(t, "caja-01")
	b := newWriter(t, "caja-02")
	ctx := context.Background()

	l1 := a.createLot(t, "OC-1/1", 100, "10", 0)
	sync(t, a, b)

	a.sell(t, "A-1/1", 60, l1.ID)
	b.sell(t, "B-1/1", 50, l1.ID)

	res := sync(t, b, a)
	require.Len(t, res.Oversold, 1)
	assert.Equal(t, l1.ID, res.Oversold[0].LotID)
	assert.Equal(t, int64(10), res.Oversold[0].OversoldBy)

	remaining, err := a.quantities.RemainingQuantity(ctx, l1.ID)
	assert.ErrorIs(t, err, domain.ErrOversold)
	assert.Equal(t, int64(-10), remaining)

	snap, err := a.quantities.Snapshot(ctx, l1.ID)
	require.NoError(t, err)
	assert.True(t, snap.Oversold)
	assert.Equal(t, int64(110), snap.ConsumedQuantity)
}

// La devolución registrada en otro escritor usa el costo del lote original.
func TestMerge_DevolucionEnOtroEscritor(t *testing.T) {
	a := newWriter(t, "caja-01")
	b := newWriter(t, "caja-02")
	ctx := context.Background()

	l1 := a.createLot(t, "OC-1/1", 100, "10", 0)
	sale := a.sell(t, "A-1/1", 30, l1.ID).Allocations[0]
	sync(t, a, b)

	ret, _, err := b.sales.RecordReturn(ctx, dto.ReturnLineRequest{ReturnLineID: "BD-1", OriginalAllocationID: sale.ID, Quantity: 30})
	require.NoError(t, err)

	cost, err := b.costs.LineCost(ctx, ret.ID)
	require.NoError(t, err)
	assert.True(t, cost.CostBasis.Equal(decimal.NewFromInt(-300)))

	sync(t, b, a)
	assert.Equal(t, int64(0), a.consumed(t, l1.ID))
	assert.Equal(t, int64(0), b.consumed(t, l1.ID))
}

// Dos escritores devuelven sin conexión la misma venta: el consumo queda negativo,
// se marca y el resolvedor no vende más de lo recibido.
func TestMerge_DevolucionDobleEnDosEscritores(t *testing.T) {
	a := newWriter(t, "caja-01")
	b := newWriter(t, "caja-02")
	ctx := context.Background()

	l1 := a.createLot(t, "OC-1/1", 100, "10", 0)
	sale := a.sell(t, "A-1/1", 10, l1.ID).Allocations[0]
	sync(t, a, b)

	_, _, err := a.sales.RecordReturn(ctx, dto.ReturnLineRequest{ReturnLineID: "AD-1", OriginalAllocationID: sale.ID, Quantity: 10})
	require.NoError(t, err)
	_, _, err = b.sales.RecordReturn(ctx, dto.ReturnLineRequest{ReturnLineID: "BD-1", OriginalAllocationID: sale.ID, Quantity: 10})
	require.NoError(t, err)

	res := sync(t, b, a)
	assert.Empty(t, res.Oversold)
	require.Len(t, res.OverReturned, 1)
	assert.Equal(t, l1.ID, res.OverReturned[0].LotID)
	assert.Equal(t, int64(10), res.OverReturned[0].OverReturnedBy)

	snap, err := a.quantities.Snapshot(ctx, l1.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-10), snap.ConsumedQuantity)
	assert.True(t, snap.OverReturned)
	assert.Equal(t, int64(10), snap.OverReturnedBy)
	assert.False(t, snap.Oversold)

	_, err = a.sales.RecordSale(ctx, dto.SaleLineRequest{SaleLineID: "A-2/1", ProductID: testProductID, Quantity: 101, LotID: l1.ID})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	resp := a.sell(t, "A-3/1", 100, l1.ID)
	require.Len(t, resp.Allocations, 1)
	assert.Equal(t, int64(100), resp.Allocations[0].Quantity)
}

func TestExport_VectorYLimite(t *testing.T) {
	a := newWriter(t, "caja-01")
	ctx := context.Background()
	l1 := a.createLot(t, "OC-1/1", 100, "10", 0)
	for _, line := range []string{"V-1", "V-2", "V-3"} {
		a.sell(t, line, 1, l1.ID)
	}

	// orden por sello: lote (ts 1) y luego las tres ventas (ts 2..4)
	first, err := a.reconcile.Export(ctx, nil, 2)
	require.NoError(t, err)
	assert.Len(t, first.Deltas, 1)
	assert.True(t, first.HasMore)
	assert.Equal(t, "caja-01", first.WriterID)
	require.Len(t, first.Lots, 1)
	assert.Equal(t, l1.ID, first.Lots[0].ID)
	assert.Len(t, first.Allocations, 1)
	assert.Equal(t, uint64(2), first.Vector["caja-01"])

	rest, err := a.reconcile.Export(ctx, first.Vector, 2)
	require.NoError(t, err)
	assert.Len(t, rest.Deltas, 2)
	assert.False(t, rest.HasMore)

	none, err := a.reconcile.Export(ctx, rest.Vector, 2)
	require.NoError(t, err)
	assert.Empty(t, none.Deltas)
}

// El resultado de la fusión no depende del orden en que llegan los lotes de sincronización.
func TestMerge_OrdenIndiferente(t *testing.T) {
	a := newWriter(t, "caja-01")
	b := newWriter(t, "caja-02")
	c := newWriter(t, "caja-03")
	ctx := context.Background()

	l1 := a.createLot(t, "OC-1/1", 100, "10", 0)
	sync(t, a, b)
	a.sell(t, "A-1", 10, l1.ID)
	b.sell(t, "B-1", 20, l1.ID)

	batchA, err := a.reconcile.Export(ctx, nil, 0)
	require.NoError(t, err)
	batchB, err := b.reconcile.Export(ctx, nil, 0)
	require.NoError(t, err)

	_, err = c.reconcile.Merge(ctx, batchB)
	require.NoError(t, err)
	_, err = c.reconcile.Merge(ctx, batchA)
	require.NoError(t, err)
	_, err = c.reconcile.Merge(ctx, batchB)
	require.NoError(t, err)

	sync(t, b, a)
	assert.Equal(t, a.consumed(t, l1.ID), c.consumed(t, l1.ID))
	assert.Equal(t, int64(30), c.consumed(t, l1.ID))
}

func TestRestoreClock_ContinuaDespuesDelMaximo(t *testing.T) {
	w := newWriter(t, "caja-01")
	ctx := context.Background()
	l1 := w.createLot(t, "OC-1/1", 100, "10", 0)
	_, err := w.quantities.RecordDelta(ctx, entity.Delta{
		ID: "remoto-1", LotID: l1.ID, SignedQuantity: 1, OriginWriterID: "caja-09", LogicalTimestamp: 41,
	})
	require.NoError(t, err)

	restarted := appledger.NewQuantityLedger(w.repos, "caja-01", logger.Nop())
	require.NoError(t, restarted.RestoreClock(ctx))
	resp, err := restarted.RecordDeltaFromRequest(ctx, dto.RecordDeltaRequest{EventKey: "SALE:x", LotID: l1.ID, SignedQuantity: 2})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), resp.Delta.LogicalTimestamp)
}
