package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LotSnapshot modelo de lectura para reportes: estado conciliado de un lote.
type LotSnapshot struct {
	LotID             string     `json:"lot_id"`
	ProductID         string     `json:"product_id"`
	QuantityReceived  int64      `json:"quantity_received"`
	ConsumedQuantity  int64      `json:"consumed_quantity"`
	RemainingQuantity int64      `json:"remaining_quantity"` // negativo si está sobrevendido
	Oversold          bool       `json:"oversold"`
	OversoldBy        int64      `json:"oversold_by"`
	// OverReturned: se devolvió más de lo vendido (consumo negativo), típico de dos escritores
	// que registran sin conexión la devolución de la misma venta.
	OverReturned      bool       `json:"over_returned"`
	OverReturnedBy    int64      `json:"over_returned_by"`
	DeltaCount        int        `json:"delta_count"`
	LastReconciledAt  *time.Time `json:"last_reconciled_at,omitempty"`
}

// LineCost costo de mercancía y margen bruto de una asignación.
// Estimated marca un costo cero de respaldo cuando no se pudo resolver la base de costo.
type LineCost struct {
	AllocationID string          `json:"allocation_id"`
	Kind         string          `json:"kind"`
	Quantity     int64           `json:"quantity"`
	CostBasis    decimal.Decimal `json:"cost_basis"`
	GrossMargin  decimal.Decimal `json:"gross_margin"`
	Estimated    bool            `json:"estimated"`
}
