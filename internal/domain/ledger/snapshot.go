package ledger

import (
	"time"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// Remaining cantidad restante sin recortar: puede ser negativa si el lote está sobrevendido.
func Remaining(lot *entity.Lot, consumed int64) int64 {
	return lot.QuantityReceived - consumed
}

// Sellable cantidad que el resolvedor puede asignar: el restante acotado a lo recibido.
// Un consumo negativo (devoluciones en exceso) no crea stock vendible.
func Sellable(lot *entity.Lot, consumed int64) int64 {
	return min(Remaining(lot, consumed), lot.QuantityReceived)
}

// BuildSnapshot arma el modelo de lectura de un lote a partir del consumo conciliado.
func BuildSnapshot(lot *entity.Lot, consumed int64, deltaCount int, lastReconciledAt *time.Time) entity.LotSnapshot {
	remaining := Remaining(lot, consumed)
	snap := entity.LotSnapshot{
		LotID:             lot.ID,
		ProductID:         lot.ProductID,
		QuantityReceived:  lot.QuantityReceived,
		ConsumedQuantity:  consumed,
		RemainingQuantity: remaining,
		DeltaCount:        deltaCount,
		LastReconciledAt:  lastReconciledAt,
	}
	if remaining < 0 {
		snap.Oversold = true
		snap.OversoldBy = -remaining
	}
	if consumed < 0 {
		snap.OverReturned = true
		snap.OverReturnedBy = -consumed
	}
	return snap
}
