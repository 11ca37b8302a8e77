package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateLotRequest body para POST /api/lots.
// CreatedAt es la fecha de ingreso del lote (por defecto, ahora); define el orden "más antiguo primero".
type CreateLotRequest struct {
	ProductID        string          `json:"product_id"`
	BatchRef         string          `json:"batch_ref"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	UnitSalePrice    decimal.Decimal `json:"unit_sale_price"`
	UnitMRP          decimal.Decimal `json:"unit_mrp"`
	QuantityReceived int64           `json:"quantity_received"`
	Article          string          `json:"article,omitempty"`
	Barcode          string          `json:"barcode,omitempty"`
	CreatedAt        *time.Time      `json:"created_at,omitempty"`
}

// UpdateLotRequest body para PATCH /api/lots/:id.
// Solo Article y Barcode son editables; los demás campos existen para detectar el intento
// de reescribir un campo inmutable y rechazarlo.
type UpdateLotRequest struct {
	Article          *string          `json:"article,omitempty"`
	Barcode          *string          `json:"barcode,omitempty"`
	ProductID        *string          `json:"product_id,omitempty"`
	BatchRef         *string          `json:"batch_ref,omitempty"`
	UnitCost         *decimal.Decimal `json:"unit_cost,omitempty"`
	UnitSalePrice    *decimal.Decimal `json:"unit_sale_price,omitempty"`
	UnitMRP          *decimal.Decimal `json:"unit_mrp,omitempty"`
	QuantityReceived *int64           `json:"quantity_received,omitempty"`
}

// TouchesImmutable indica si la solicitud intenta escribir algún campo de escritura única.
func (r UpdateLotRequest) TouchesImmutable() bool {
	return r.ProductID != nil || r.BatchRef != nil || r.UnitCost != nil ||
		r.UnitSalePrice != nil || r.UnitMRP != nil || r.QuantityReceived != nil
}
