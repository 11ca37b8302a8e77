package http

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/application/ledger"
)

// LedgerHandler libro de cantidades (deltas, snapshots) y sincronización entre escritores.
type LedgerHandler struct {
	quantities *ledger.QuantityLedger
	reconcile  *ledger.ReconcileUseCase
	syncBatch  int
	log        zerolog.Logger
}

// NewLedgerHandler construye el handler. syncBatch es el límite por defecto de deltas exportados.
func NewLedgerHandler(quantities *ledger.QuantityLedger, reconcile *ledger.ReconcileUseCase, syncBatch int, log zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{quantities: quantities, reconcile: reconcile, syncBatch: syncBatch, log: log}
}

// RecordDelta godoc
// @Summary      Anexar un delta al libro
// @Description  Reprocesar el mismo delta_id es un no-op (appended=false).
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordDeltaRequest  true  "delta_id o event_key, lot_id, signed_quantity"
// @Success      201   {object}  dto.RecordDeltaResponse
// @Success      200   {object}  dto.RecordDeltaResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/deltas [post]
func (h *LedgerHandler) RecordDelta(c *fiber.Ctx) error {
	var in dto.RecordDeltaRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.quantities.RecordDeltaFromRequest(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	if !out.Appended {
		return c.JSON(out)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Snapshot godoc
// @Summary      Estado conciliado de un lote
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  entity.LotSnapshot
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/snapshot [get]
func (h *LedgerHandler) Snapshot(c *fiber.Ctx) error {
	snap, err := h.quantities.Snapshot(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(snap)
}

// SnapshotsByProduct godoc
// @Summary      Estado conciliado de todos los lotes de un producto
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/products/{id}/snapshots [get]
func (h *LedgerHandler) SnapshotsByProduct(c *fiber.Ctx) error {
	list, err := h.quantities.SnapshotsByProduct(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	oversold, overReturned := 0, 0
	var remaining int64
	for _, s := range list {
		remaining += s.RemainingQuantity
		if s.Oversold {
			oversold++
		}
		if s.OverReturned {
			overReturned++
		}
	}
	return c.JSON(fiber.Map{
		"total":           len(list),
		"remaining_total": remaining,
		"oversold_lots":   oversold,
		"over_returned":   overReturned,
		"snapshots":       list,
	})
}

// Export godoc
// @Summary      Exportar deltas que el par aún no tiene
// @Tags         sync
// @Security     Bearer
// @Produce      json
// @Param        since  query  string  false  "vector de versiones JSON {writer_id: ts}; vacío = registro completo"
// @Param        limit  query  int     false  "máximo de registros"
// @Success      200    {object}  dto.SyncBatch
// @Failure      400    {object}  dto.ErrorResponse
// @Router       /api/sync/deltas [get]
func (h *LedgerHandler) Export(c *fiber.Ctx) error {
	var since map[string]uint64
	if raw := c.Query("since"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &since); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "since debe ser un objeto JSON {writer_id: ts}"})
		}
	}
	limit := c.QueryInt("limit", h.syncBatch)
	batch, err := h.reconcile.Export(c.Context(), since, limit)
	if err != nil {
		return writeError(c, err)
	}
	h.log.Debug().
		Str("peer_writer_id", GetWriterID(c)).
		Str("company_id", GetCompanyID(c)).
		Int("deltas", len(batch.Deltas)).
		Bool("has_more", batch.HasMore).
		Msg("lote de sincronización exportado")
	return c.JSON(batch)
}

// Merge godoc
// @Summary      Fusionar un lote de sincronización enviado por otro escritor
// @Tags         sync
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SyncBatch  true  "deltas, lotes y asignaciones"
// @Success      200   {object}  dto.MergeResult
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/sync/deltas [post]
func (h *LedgerHandler) Merge(c *fiber.Ctx) error {
	var batch dto.SyncBatch
	if err := c.BodyParser(&batch); err != nil {
		return badBody(c)
	}
	if batch.WriterID == "" {
		batch.WriterID = GetWriterID(c)
	}
	res, err := h.reconcile.Merge(c.Context(), batch)
	if err != nil {
		return writeError(c, err)
	}
	h.log.Info().
		Str("peer_writer_id", GetWriterID(c)).
		Str("company_id", GetCompanyID(c)).
		Str("batch_writer_id", batch.WriterID).
		Int("applied", res.Applied).
		Int("conflicts", res.Conflicts).
		Msg("lote de sincronización recibido")
	return c.JSON(res)
}
