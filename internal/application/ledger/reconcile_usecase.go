package ledger

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/ledger"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

// ReconcileUseCase fusiona registros de deltas entre escritores (unión por delta_id)
// y exporta lo que un par todavía no conoce.
type ReconcileUseCase struct {
	lots        repository.LotRepository
	deltas      repository.DeltaRepository
	allocations repository.AllocationRepository
	state       repository.SyncStateRepository
	ledger      *QuantityLedger
	log         zerolog.Logger
}

// NewReconcileUseCase construye el caso de uso.
func NewReconcileUseCase(repos Repositories, quantities *QuantityLedger, log zerolog.Logger) *ReconcileUseCase {
	return &ReconcileUseCase{
		lots:        repos.Lots,
		deltas:      repos.Deltas,
		allocations: repos.Allocations,
		state:       repos.SyncState,
		ledger:      quantities,
		log:         log,
	}
}

// syncItem registro sincronizable (delta o lote) con su sello de escritor.
type syncItem struct {
	writerID string
	ts       uint64
	id       string
	delta    *entity.Delta
	lot      *entity.Lot
}

// Export devuelve hasta limit registros (deltas y lotes) no cubiertos por since, ordenados por
// (escritor, timestamp lógico, ID), más las asignaciones de los deltas exportados.
// Cada lote de sincronización es un prefijo por escritor, así el receptor puede guardar
// Vector como punto de partida del siguiente pedido.
// since vacío exporta el registro completo. limit <= 0 no limita.
func (uc *ReconcileUseCase) Export(ctx context.Context, since map[string]uint64, limit int) (dto.SyncBatch, error) {
	covered := ledger.VersionVector(since)

	deltas, err := uc.deltas.ListAll(ctx)
	if err != nil {
		return dto.SyncBatch{}, err
	}
	lots, err := uc.lots.ListAll(ctx)
	if err != nil {
		return dto.SyncBatch{}, err
	}
	items := make([]syncItem, 0, len(deltas))
	for i := range deltas {
		d := &deltas[i]
		if !covered.Covers(*d) {
			items = append(items, syncItem{writerID: d.OriginWriterID, ts: d.LogicalTimestamp, id: d.ID, delta: d})
		}
	}
	for _, lot := range lots {
		if lot.LogicalTimestamp > 0 && !covered.CoversStamp(lot.OriginWriterID, lot.LogicalTimestamp) {
			items = append(items, syncItem{writerID: lot.OriginWriterID, ts: lot.LogicalTimestamp, id: lot.ID, lot: lot})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.writerID != b.writerID {
			return a.writerID < b.writerID
		}
		if a.ts != b.ts {
			return a.ts < b.ts
		}
		return a.id < b.id
	})

	hasMore := false
	if limit > 0 && len(items) > limit {
		items = items[:limit]
		hasMore = true
	}

	batch := dto.SyncBatch{
		WriterID: uc.ledger.WriterID(),
		Deltas:   make([]entity.Delta, 0, len(items)),
		HasMore:  hasMore,
	}
	next := covered.Clone()
	lotIDs := make(map[string]struct{})
	for _, it := range items {
		next.Advance(it.writerID, it.ts)
		if it.lot != nil {
			lotIDs[it.lot.ID] = struct{}{}
			continue
		}
		batch.Deltas = append(batch.Deltas, *it.delta)
		// el lote referenciado viaja con el delta aunque el par ya lo tenga
		lotIDs[it.delta.LotID] = struct{}{}
		a, err := uc.allocations.GetByDeltaID(ctx, it.delta.ID)
		if err != nil {
			return dto.SyncBatch{}, err
		}
		if a != nil {
			batch.Allocations = append(batch.Allocations, *a)
		}
	}
	if batch.Lots, err = uc.lotsByID(ctx, lotIDs); err != nil {
		return dto.SyncBatch{}, err
	}
	batch.Vector = next
	return batch, nil
}

func (uc *ReconcileUseCase) lotsByID(ctx context.Context, ids map[string]struct{}) ([]entity.Lot, error) {
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)
	out := make([]entity.Lot, 0, len(sorted))
	for _, id := range sorted {
		lot, err := uc.lots.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if lot != nil {
			out = append(out, *lot)
		}
	}
	return out, nil
}

// Merge une un lote de sincronización con el registro local. Es conmutativa e idempotente:
// fusionar el mismo lote dos veces no cambia el consumo. Si falla a mitad, el llamador
// reintenta el lote completo. Los lotes que quedan con consumo mayor a lo recibido se
// reportan como sobrevendidos y los de consumo negativo como sobre-devueltos; nunca se corrigen.
func (uc *ReconcileUseCase) Merge(ctx context.Context, batch dto.SyncBatch) (dto.MergeResult, error) {
	for _, d := range batch.Deltas {
		if d.ID == "" || d.LotID == "" || d.OriginWriterID == "" || d.SignedQuantity == 0 {
			return dto.MergeResult{}, domain.ErrInvalidInput
		}
	}

	var res dto.MergeResult
	touched := make(map[string]struct{})
	for i := range batch.Lots {
		imported, err := uc.importLot(ctx, &batch.Lots[i])
		if err != nil {
			return res, err
		}
		if imported {
			res.LotsImported++
			touched[batch.Lots[i].ID] = struct{}{}
		}
	}
	for i := range batch.Allocations {
		a := &batch.Allocations[i]
		prev, err := uc.allocations.GetByID(ctx, a.ID)
		if err != nil {
			return res, err
		}
		if prev == nil {
			if err := uc.allocations.Create(ctx, a); err != nil {
				return res, err
			}
		}
	}

	for _, d := range batch.Deltas {
		appended, err := uc.ledger.RecordDelta(ctx, d)
		if errors.Is(err, domain.ErrDeltaConflict) {
			res.Conflicts++
			continue
		}
		if err != nil {
			return res, err
		}
		if appended {
			res.Applied++
			touched[d.LotID] = struct{}{}
		} else {
			res.Duplicates++
		}
	}

	now := time.Now().UTC()
	if err := uc.state.SetLastReconciledAt(ctx, now); err != nil {
		return res, err
	}
	res.ReconciledAt = now

	lotIDs := make([]string, 0, len(touched))
	for id := range touched {
		lotIDs = append(lotIDs, id)
	}
	sort.Strings(lotIDs)
	for _, id := range lotIDs {
		snap, err := uc.ledger.Snapshot(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			// el lote llegará en un lote de sincronización posterior
			uc.log.Debug().Str("lot_id", id).Msg("delta de lote aún desconocido")
			continue
		}
		if err != nil {
			return res, err
		}
		if snap.Oversold {
			uc.log.Warn().
				Str("lot_id", snap.LotID).
				Str("product_id", snap.ProductID).
				Int64("quantity_received", snap.QuantityReceived).
				Int64("consumed_quantity", snap.ConsumedQuantity).
				Int64("oversold_by", snap.OversoldBy).
				Msg("lote sobrevendido tras conciliar")
			res.Oversold = append(res.Oversold, snap)
		}
		if snap.OverReturned {
			uc.log.Warn().
				Str("lot_id", snap.LotID).
				Str("product_id", snap.ProductID).
				Int64("consumed_quantity", snap.ConsumedQuantity).
				Int64("over_returned_by", snap.OverReturnedBy).
				Msg("lote con devoluciones mayores a lo vendido tras conciliar")
			res.OverReturned = append(res.OverReturned, snap)
		}
	}

	uc.log.Info().
		Str("from_writer_id", batch.WriterID).
		Int("applied", res.Applied).
		Int("duplicates", res.Duplicates).
		Int("conflicts", res.Conflicts).
		Int("oversold", len(res.Oversold)).
		Int("over_returned", len(res.OverReturned)).
		Msg("conciliación completada")
	return res, nil
}

// importLot registra un lote recibido de otro escritor si aún no existe localmente.
func (uc *ReconcileUseCase) importLot(ctx context.Context, lot *entity.Lot) (bool, error) {
	if lot.ID == "" || lot.ProductID == "" || lot.BatchRef == "" {
		return false, domain.ErrInvalidInput
	}
	uc.ledger.observe(lot.LogicalTimestamp)
	existing, err := uc.lots.GetByID(ctx, lot.ID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if !existing.SameImmutableFields(lot) {
			uc.log.Error().Str("lot_id", lot.ID).Msg("lote remoto con campos inmutables distintos; se conserva el local")
		}
		return false, nil
	}
	byKey, err := uc.lots.GetByNaturalKey(ctx, lot.BatchRef, lot.ProductID)
	if err != nil {
		return false, err
	}
	if byKey != nil {
		uc.log.Warn().
			Str("lot_id", lot.ID).
			Str("local_lot_id", byKey.ID).
			Str("batch_ref", lot.BatchRef).
			Msg("misma clave natural registrada por dos escritores")
	}
	if err := uc.lots.Create(ctx, lot); err != nil {
		return false, err
	}
	return true, nil
}
