package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/domain"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/ledger"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
)

// QuantityLedger dueño exclusivo de la cantidad consumida de cada lote.
// El consumo nunca se guarda: se obtiene sumando los deltas distintos del registro.
type QuantityLedger struct {
	lots     repository.LotRepository
	deltas   repository.DeltaRepository
	state    repository.SyncStateRepository
	clock    *ledger.LamportClock
	writerID string
	log      zerolog.Logger
}

// NewQuantityLedger construye el libro para el escritor writerID.
// Llamar RestoreClock antes de registrar deltas locales tras un reinicio.
func NewQuantityLedger(repos Repositories, writerID string, log zerolog.Logger) *QuantityLedger {
	return &QuantityLedger{
		lots:     repos.Lots,
		deltas:   repos.Deltas,
		state:    repos.SyncState,
		clock:    ledger.NewLamportClock(0),
		writerID: writerID,
		log:      log,
	}
}

// WriterID identidad de este escritor.
func (q *QuantityLedger) WriterID() string {
	return q.writerID
}

// RestoreClock adelanta el reloj lógico al máximo timestamp persistido (deltas y lotes).
func (q *QuantityLedger) RestoreClock(ctx context.Context) error {
	all, err := q.deltas.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, d := range all {
		q.clock.Observe(d.LogicalTimestamp)
	}
	lots, err := q.lots.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, lot := range lots {
		q.clock.Observe(lot.LogicalTimestamp)
	}
	q.log.Info().
		Uint64("logical_ts", q.clock.Now()).
		Int("deltas", len(all)).
		Int("lots", len(lots)).
		Msg("reloj lógico restaurado")
	return nil
}

// stamp sello (escritor, timestamp) para un registro local nuevo.
func (q *QuantityLedger) stamp() (string, uint64) {
	return q.writerID, q.clock.Tick()
}

// observe adelanta el reloj con un timestamp recibido.
func (q *QuantityLedger) observe(ts uint64) {
	q.clock.Observe(ts)
}

// newLocalDelta arma un delta de este escritor para el evento dado.
func (q *QuantityLedger) newLocalDelta(eventKey, lotID string, signedQuantity int64, now time.Time) entity.Delta {
	writerID, ts := q.stamp()
	return entity.Delta{
		ID:               ledger.DeltaID(eventKey, lotID),
		LotID:            lotID,
		SignedQuantity:   signedQuantity,
		OriginWriterID:   writerID,
		LogicalTimestamp: ts,
		CreatedAt:        now,
	}
}

// RecordDelta anexa un delta al registro. Reprocesar un ID ya presente es un no-op (appended=false);
// el mismo ID con otro contenido falla con domain.ErrDeltaConflict.
// Un delta sin escritor de origen se atribuye a este escritor y recibe un timestamp local.
func (q *QuantityLedger) RecordDelta(ctx context.Context, d entity.Delta) (appended bool, err error) {
	_, appended, err = q.record(ctx, d)
	return appended, err
}

// record valida, completa y anexa el delta; devuelve el delta tal como quedó registrado.
func (q *QuantityLedger) record(ctx context.Context, d entity.Delta) (entity.Delta, bool, error) {
	if d.ID == "" || d.LotID == "" {
		return d, false, domain.ErrInvalidInput
	}
	if d.SignedQuantity == 0 {
		return d, false, domain.ErrInvalidQuantity
	}
	if d.OriginWriterID == "" {
		d.OriginWriterID = q.writerID
	}
	if d.LogicalTimestamp == 0 {
		// Un timestamp inventado localmente rompería el prefijo por escritor del remoto
		if d.OriginWriterID != q.writerID {
			return d, false, domain.ErrInvalidInput
		}
		d.LogicalTimestamp = q.clock.Tick()
	} else {
		q.clock.Observe(d.LogicalTimestamp)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	appended, err := q.deltas.Insert(ctx, d)
	if err != nil {
		if errors.Is(err, domain.ErrDeltaConflict) {
			q.log.Error().Str("delta_id", d.ID).Str("lot_id", d.LotID).Msg("delta_id reutilizado con otro contenido")
		}
		return d, false, err
	}
	if appended {
		q.log.Debug().
			Str("delta_id", d.ID).
			Str("lot_id", d.LotID).
			Int64("signed_quantity", d.SignedQuantity).
			Str("origin_writer_id", d.OriginWriterID).
			Uint64("logical_ts", d.LogicalTimestamp).
			Msg("delta anexado")
	}
	return d, appended, nil
}

// RecordDeltaFromRequest adapta el request HTTP a RecordDelta.
func (q *QuantityLedger) RecordDeltaFromRequest(ctx context.Context, in dto.RecordDeltaRequest) (dto.RecordDeltaResponse, error) {
	d := entity.Delta{
		ID:               in.DeltaID,
		LotID:            in.LotID,
		SignedQuantity:   in.SignedQuantity,
		OriginWriterID:   in.OriginWriterID,
		LogicalTimestamp: in.LogicalTimestamp,
	}
	if d.ID == "" && in.EventKey != "" {
		d.ID = ledger.DeltaID(in.EventKey, in.LotID)
	}
	stored, appended, err := q.record(ctx, d)
	if err != nil {
		return dto.RecordDeltaResponse{}, err
	}
	return dto.RecordDeltaResponse{Delta: stored, Appended: appended}, nil
}

func (q *QuantityLedger) requireLot(ctx context.Context, lotID string) (*entity.Lot, error) {
	lot, err := q.lots.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, domain.ErrNotFound
	}
	return lot, nil
}

// ConsumedQuantity suma de los deltas distintos aplicados al lote.
func (q *QuantityLedger) ConsumedQuantity(ctx context.Context, lotID string) (int64, error) {
	if _, err := q.requireLot(ctx, lotID); err != nil {
		return 0, err
	}
	deltas, err := q.deltas.ListByLot(ctx, lotID)
	if err != nil {
		return 0, err
	}
	return ledger.Fold(deltas), nil
}

// RemainingQuantity cantidad recibida menos consumida. Si es negativa se devuelve igual,
// junto con domain.ErrOversold, en lugar de recortarla a cero.
func (q *QuantityLedger) RemainingQuantity(ctx context.Context, lotID string) (int64, error) {
	lot, err := q.requireLot(ctx, lotID)
	if err != nil {
		return 0, err
	}
	deltas, err := q.deltas.ListByLot(ctx, lotID)
	if err != nil {
		return 0, err
	}
	remaining := ledger.Remaining(lot, ledger.Fold(deltas))
	if remaining < 0 {
		return remaining, fmt.Errorf("%w: lote %s excedido en %d", domain.ErrOversold, lotID, -remaining)
	}
	return remaining, nil
}

// Snapshot modelo de lectura conciliado de un lote.
func (q *QuantityLedger) Snapshot(ctx context.Context, lotID string) (entity.LotSnapshot, error) {
	lot, err := q.requireLot(ctx, lotID)
	if err != nil {
		return entity.LotSnapshot{}, err
	}
	at, err := q.state.GetLastReconciledAt(ctx)
	if err != nil {
		return entity.LotSnapshot{}, err
	}
	return q.snapshotOf(ctx, lot, at)
}

// SnapshotsByProduct snapshots de todos los lotes del producto, del más antiguo al más reciente.
func (q *QuantityLedger) SnapshotsByProduct(ctx context.Context, productID string) ([]entity.LotSnapshot, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	lots, err := q.lots.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	at, err := q.state.GetLastReconciledAt(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entity.LotSnapshot, 0, len(lots))
	for _, lot := range lots {
		snap, err := q.snapshotOf(ctx, lot, at)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// LastReconciledAt marca de la última fusión completada (nil si nunca hubo).
func (q *QuantityLedger) LastReconciledAt(ctx context.Context) (*time.Time, error) {
	return q.state.GetLastReconciledAt(ctx)
}

func (q *QuantityLedger) snapshotOf(ctx context.Context, lot *entity.Lot, at *time.Time) (entity.LotSnapshot, error) {
	deltas, err := q.deltas.ListByLot(ctx, lot.ID)
	if err != nil {
		return entity.LotSnapshot{}, err
	}
	return ledger.BuildSnapshot(lot, ledger.Fold(deltas), len(deltas), at), nil
}

// stockOf lote con su restante vendible, insumo del resolvedor.
func (q *QuantityLedger) stockOf(ctx context.Context, lot *entity.Lot) (ledger.LotStock, error) {
	deltas, err := q.deltas.ListByLot(ctx, lot.ID)
	if err != nil {
		return ledger.LotStock{}, err
	}
	return ledger.LotStock{Lot: lot, Remaining: ledger.Sellable(lot, ledger.Fold(deltas))}, nil
}

func (q *QuantityLedger) stocksByProduct(ctx context.Context, productID string) ([]ledger.LotStock, error) {
	lots, err := q.lots.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	stocks := make([]ledger.LotStock, 0, len(lots))
	for _, lot := range lots {
		s, err := q.stockOf(ctx, lot)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
	return stocks, nil
}
