package dto

import (
	"time"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// RecordDeltaRequest body para POST /api/deltas (delta producido por un escritor).
// Si DeltaID viene vacío se deriva de EventKey, lote y cantidad.
type RecordDeltaRequest struct {
	DeltaID          string `json:"delta_id,omitempty"`
	EventKey         string `json:"event_key,omitempty"`
	LotID            string `json:"lot_id"`
	SignedQuantity   int64  `json:"signed_quantity"`
	OriginWriterID   string `json:"origin_writer_id,omitempty"`
	LogicalTimestamp uint64 `json:"logical_timestamp,omitempty"`
}

// RecordDeltaResponse resultado de anexar un delta.
type RecordDeltaResponse struct {
	Delta    entity.Delta `json:"delta"`
	Appended bool         `json:"appended"`
}

// SyncBatch lote de sincronización entre escritores: deltas en orden (escritor, timestamp, ID)
// más los lotes y asignaciones que referencian. Vector es el vector que el receptor debe guardar
// tras fusionar el lote.
type SyncBatch struct {
	WriterID    string              `json:"writer_id"`
	Deltas      []entity.Delta      `json:"deltas"`
	Lots        []entity.Lot        `json:"lots,omitempty"`
	Allocations []entity.Allocation `json:"allocations,omitempty"`
	Vector      map[string]uint64   `json:"vector"`
	HasMore     bool                `json:"has_more"`
}

// MergeResult resumen de una fusión.
type MergeResult struct {
	Applied      int                  `json:"applied"`
	Duplicates   int                  `json:"duplicates"`
	Conflicts    int                  `json:"conflicts"`
	LotsImported int                  `json:"lots_imported"`
	Oversold     []entity.LotSnapshot `json:"oversold,omitempty"`
	OverReturned []entity.LotSnapshot `json:"over_returned,omitempty"`
	ReconciledAt time.Time            `json:"reconciled_at"`
}
