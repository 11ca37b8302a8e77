package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de asignación.
const (
	AllocationKindSale   = "SALE"
	AllocationKindReturn = "RETURN"
)

// Allocation vincula una línea de venta (o devolución) con el lote específico del que descuenta.
// Es inmutable: una devolución crea una nueva asignación enlazada de signo opuesto.
type Allocation struct {
	ID                   string          `json:"id"`
	SaleLineID           string          `json:"sale_line_id"`
	LotID                string          `json:"lot_id"`
	ProductID            string          `json:"product_id"`
	Kind                 string          `json:"kind"`
	Quantity             int64           `json:"quantity"` // positivo venta, negativo devolución
	UnitSalePrice        decimal.Decimal `json:"unit_sale_price"`
	OriginalAllocationID string          `json:"original_allocation_id,omitempty"`
	Backorder            bool            `json:"backorder"`
	DeltaID              string          `json:"delta_id"`
	WriterID             string          `json:"writer_id"`
	LogicalTimestamp     uint64          `json:"logical_timestamp"`
	CreatedAt            time.Time       `json:"created_at"`
}

// IsReturn indica si la asignación revierte una venta.
func (a *Allocation) IsReturn() bool {
	return a.Kind == AllocationKindReturn
}

// Delta reconstruye el delta que registró esta asignación.
func (a *Allocation) Delta() Delta {
	return Delta{
		ID:               a.DeltaID,
		LotID:            a.LotID,
		SignedQuantity:   a.Quantity,
		OriginWriterID:   a.WriterID,
		LogicalTimestamp: a.LogicalTimestamp,
		CreatedAt:        a.CreatedAt,
	}
}
